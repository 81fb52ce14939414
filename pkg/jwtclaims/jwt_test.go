package jwtclaims_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/bookstore-storefront/pkg/jwtclaims"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestParse(t *testing.T) {
	t.Parallel()
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		claims    jwt.MapClaims
		wantExp   time.Time
		wantRoles []string
	}{
		{
			name:      "exp and string role",
			claims:    jwt.MapClaims{"sub": "u1", "exp": exp.Unix(), "auth": "ROLE_ADMIN,ROLE_USER"},
			wantExp:   exp,
			wantRoles: []string{"ROLE_ADMIN", "ROLE_USER"},
		},
		{
			name:      "array roles without exp",
			claims:    jwt.MapClaims{"sub": "u2", "roles": []interface{}{"ROLE_USER"}},
			wantRoles: []string{"ROLE_USER"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, err := jwtclaims.Parse(sign(t, tt.claims))
			require.NoError(t, err)
			require.True(t, tt.wantExp.Equal(h.ExpiresAt()))
			require.Equal(t, tt.wantRoles, h.Roles())
			require.Equal(t, tt.claims["sub"], h.Subject())
		})
	}
}

func TestParse_Opaque(t *testing.T) {
	t.Parallel()
	_, err := jwtclaims.Parse("not-a-jwt")
	require.Error(t, err)
}
