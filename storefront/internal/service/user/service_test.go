package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/user"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/testapi"
)

func TestService_Admin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	be := testapi.New()
	t.Cleanup(be.Close)
	be.AddUser(model.User{UserID: "u2", UserName: "Lee", UserRole: model.RoleUser}, "pw2")
	svc := user.NewService(zap.NewNop(), be.Client(model.AdminUserID))

	page, err := svc.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Content, 2)
	require.Equal(t, model.AdminUserID, page.Content[0].UserID)

	require.NoError(t, svc.UpdatePoint(ctx, "u2", 500))
	require.Equal(t, int64(500), be.User("u2").Point)

	require.NoError(t, svc.UpdateStatus(ctx, "u2", "N", ""))
	require.Equal(t, "N", be.User("u2").UseYn)
	require.Equal(t, 1, be.Hits("PATCH /admin/users/:userId"))
}

func TestService_Me(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	be := testapi.New()
	t.Cleanup(be.Close)
	svc := user.NewService(zap.NewNop(), be.Client("u1"))

	me, err := svc.Detail(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", me.UserID)
	require.Equal(t, int64(1000), me.Point)

	me.UserName = "Kim Jr"
	me.Email = "kim@example.com"
	updated, err := svc.Update(ctx, me)
	require.NoError(t, err)
	require.Equal(t, "Kim Jr", updated.UserName)
	require.Equal(t, "kim@example.com", be.User("u1").Email)
}

func TestService_UpdateMessageReply(t *testing.T) {
	t.Parallel()
	be := testapi.New()
	t.Cleanup(be.Close)
	be.AnswerProfileWithMessage()
	svc := user.NewService(zap.NewNop(), be.Client("u1"))

	updated, err := svc.Update(context.Background(), model.User{UserName: "Kim2"})
	require.NoError(t, err)
	require.Equal(t, model.User{}, updated)
	require.Equal(t, "Kim2", be.User("u1").UserName)
}
