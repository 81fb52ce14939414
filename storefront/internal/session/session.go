package session

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/pkg/jwtclaims"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

// StorageKey names the persisted authentication record.
const StorageKey = "auth-info"

// Persister is durable client storage for the session.
type Persister interface {
	// Load returns an empty session when nothing is stored.
	Load(ctx context.Context) (model.Session, error)
	Save(ctx context.Context, s model.Session) error
	Delete(ctx context.Context) error
}

// Store holds the authenticated identity of this client process.
type Store struct {
	mu        sync.RWMutex
	session   model.Session
	expiresAt time.Time

	persister Persister
	clock     clock.Clock
	log       *zap.Logger
}

func NewStore(log *zap.Logger, p Persister, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.WallClock
	}
	if p == nil {
		p = NewMemoryPersister()
	}
	return &Store{
		persister: p,
		clock:     clk,
		log:       log.Named("session"),
	}
}

// Load hydrates the store from durable storage.
func (s *Store) Load(ctx context.Context) error {
	sess, err := s.persister.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "session load")
	}
	s.mu.Lock()
	s.set(sess)
	s.mu.Unlock()
	return nil
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Token returns the bearer token. An expired token tears the session down.
func (s *Store) Token() string {
	s.mu.RLock()
	token, exp := s.session.Token, s.expiresAt
	s.mu.RUnlock()
	if token == "" {
		return ""
	}
	if !exp.IsZero() && !s.clock.Now().Before(exp) {
		s.log.Info("session expired", zap.String("userId", s.UserID()), zap.Time("exp", exp))
		if err := s.Logout(context.Background()); err != nil {
			s.log.Error("logout expired session", zap.Error(err))
		}
		return ""
	}
	return token
}

func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.UserID
}

func (s *Store) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.UserName
}

func (s *Store) UserRole() model.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.UserRole
}

func (s *Store) IsAdmin() bool {
	return s.IsAuthenticated() && s.UserRole() == model.RoleAdmin
}

func (s *Store) Snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// SetLogin replaces the whole session and persists it.
func (s *Store) SetLogin(ctx context.Context, sess model.Session) error {
	s.mu.Lock()
	s.set(sess)
	sess = s.session
	s.mu.Unlock()
	return errors.Wrap(s.persister.Save(ctx, sess), "session save")
}

// SetToken replaces only the token and persists the session.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	sess := s.session
	sess.Token = token
	s.set(sess)
	sess = s.session
	s.mu.Unlock()
	return errors.Wrap(s.persister.Save(ctx, sess), "session save")
}

// ClearAuth resets the in-memory session only.
func (s *Store) ClearAuth() {
	s.mu.Lock()
	s.set(model.Session{})
	s.mu.Unlock()
}

// Logout clears the session and removes it from durable storage.
func (s *Store) Logout(ctx context.Context) error {
	s.ClearAuth()
	return errors.Wrap(s.persister.Delete(ctx), "session delete")
}

// set must be called with mu held.
func (s *Store) set(sess model.Session) {
	s.expiresAt = time.Time{}
	if sess.Token != "" {
		if claims, err := jwtclaims.Parse(sess.Token); err == nil {
			s.expiresAt = claims.ExpiresAt()
			if sess.UserRole == "" {
				for _, role := range []model.Role{model.RoleAdmin, model.RoleUser} {
					if claims.HasRole(string(role)) {
						sess.UserRole = role
						break
					}
				}
			}
			if sess.UserID == "" {
				sess.UserID = claims.Subject()
			}
		}
	}
	s.session = sess
}
