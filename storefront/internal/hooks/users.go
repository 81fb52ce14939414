package hooks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

const DefaultPageSize = 10

type Users struct {
	log   *zap.Logger
	q     *query.Client
	guard guard
	svc   UserService
}

func (u *Users) List(ctx context.Context, page, size int) (model.UserPage, error) {
	if err := u.guard.admin(); err != nil {
		return model.UserPage{}, err
	}
	return query.Fetch(ctx, u.q, UserPageKey(page, size), func(ctx context.Context) (model.UserPage, error) {
		return u.svc.List(ctx, page, size)
	})
}

func (u *Users) UpdatePoint(ctx context.Context, userID string, point int64) error {
	if err := u.guard.admin(); err != nil {
		return err
	}
	_, err := mutate(ctx, u.log, "update point", query.Mutation[model.PointUpdate, struct{}]{
		Fn: func(ctx context.Context, in model.PointUpdate) (struct{}, error) {
			return struct{}{}, u.svc.UpdatePoint(ctx, in.UserID, in.Point)
		},
		OnSuccess: func(context.Context, struct{}, model.PointUpdate) {
			u.q.Invalidate(UsersKey())
		},
	}, model.PointUpdate{UserID: userID, Point: point})
	return err
}

// UpdatePoints sends all updates in parallel and invalidates the user
// list once after every request has finished, even on partial failure.
func (u *Users) UpdatePoints(ctx context.Context, updates []model.PointUpdate) error {
	if err := u.guard.admin(); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	failures := make([]error, len(updates))
	var g errgroup.Group
	for i, up := range updates {
		i, up := i, up
		g.Go(func() error {
			if err := u.svc.UpdatePoint(ctx, up.UserID, up.Point); err != nil {
				failures[i] = fmt.Errorf("user %s: %w", up.UserID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	u.q.Invalidate(UsersKey())

	if err := errors.Join(failures...); err != nil {
		u.log.Error("update points", zap.Error(err))
		return err
	}
	return nil
}

func (u *Users) UpdateStatus(ctx context.Context, userID string, st model.StatusUpdate) error {
	if err := u.guard.admin(); err != nil {
		return err
	}
	_, err := mutate(ctx, u.log, "update status", query.Mutation[string, struct{}]{
		Fn: func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, u.svc.UpdateStatus(ctx, id, st.UseYn, st.DelYn)
		},
		OnSuccess: func(context.Context, struct{}, string) {
			u.q.Invalidate(UsersKey())
		},
	}, userID)
	return err
}

func (u *Users) Me(ctx context.Context) (model.User, error) {
	if err := u.guard.member(); err != nil {
		return model.User{}, err
	}
	return query.Fetch(ctx, u.q, MeKey(), u.svc.Detail)
}

func (u *Users) UpdateMe(ctx context.Context, in model.User) (model.User, error) {
	if err := u.guard.member(); err != nil {
		return model.User{}, err
	}
	out, err := mutate(ctx, u.log, "update profile", query.Mutation[model.User, model.User]{
		Fn: u.svc.Update,
		OnSuccess: func(_ context.Context, out model.User, _ model.User) {
			if out.UserID != "" {
				query.SetData(u.q, MeKey(), out)
			} else {
				u.q.Invalidate(MeKey())
			}
			u.q.Invalidate(UsersKey())
		},
	}, in)
	if err != nil || out.UserID != "" {
		return out, err
	}
	return u.Me(ctx)
}
