package hooks

import (
	"context"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

type Auth struct {
	log     *zap.Logger
	q       *query.Client
	session SessionStore
	svc     AuthService
}

// Login authenticates, stores the session and drops every cached query,
// since cached data belongs to the previous identity.
func (a *Auth) Login(ctx context.Context, req model.LoginRequest) (model.Session, error) {
	return mutate(ctx, a.log, "login", query.Mutation[model.LoginRequest, model.Session]{
		Fn: func(ctx context.Context, req model.LoginRequest) (model.Session, error) {
			sess, err := a.svc.Login(ctx, req.UserID, req.Passwd)
			if err != nil {
				return model.Session{}, err
			}
			return sess, a.session.SetLogin(ctx, sess)
		},
		OnSuccess: func(context.Context, model.Session, model.LoginRequest) {
			a.q.Clear()
		},
	}, req)
}

func (a *Auth) Logout(ctx context.Context) error {
	defer a.q.Clear()
	return a.session.Logout(ctx)
}
