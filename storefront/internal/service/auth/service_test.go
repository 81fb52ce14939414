package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/auth"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/testapi"
)

func TestService_Login(t *testing.T) {
	t.Parallel()
	be := testapi.New()
	t.Cleanup(be.Close)
	svc := auth.NewService(zap.NewNop(), be.Client(""))

	tests := []struct {
		name    string
		userID  string
		passwd  string
		want    model.Session
		wantErr error
	}{
		{
			name:   "ok",
			userID: "u1",
			passwd: "pw1",
			want:   model.Session{Token: testapi.Token("u1"), UserID: "u1", UserName: "Kim", UserRole: model.RoleUser},
		},
		{name: "wrong password", userID: "u1", passwd: "nope", wantErr: errs.ErrInvalidCredentials},
		{name: "missing password", userID: "u1", passwd: "", wantErr: errs.ErrInvalidInput},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := svc.Login(context.Background(), tt.userID, tt.passwd)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoginError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "401", err: &errs.APIError{StatusCode: http.StatusUnauthorized}, want: errs.ErrInvalidCredentials},
		{name: "credential message", err: &errs.APIError{StatusCode: http.StatusInternalServerError, Message: "패스워드 오류"}, want: errs.ErrInvalidCredentials},
		{name: "400", err: &errs.APIError{StatusCode: http.StatusBadRequest, Message: "bad"}, want: errs.ErrInvalidInput},
		{name: "500", err: &errs.APIError{StatusCode: http.StatusInternalServerError}, want: errs.ErrDefault},
		{name: "network", err: errors.New("dial tcp: refused"), want: errs.ErrDefault},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := auth.LoginError(tt.err)
			require.ErrorIs(t, got, tt.want)
			require.ErrorIs(t, got, tt.err)
		})
	}
}
