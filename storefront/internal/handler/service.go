package handler

import (
	"time"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

type SessionStore interface {
	Snapshot() model.Session
	IsAuthenticated() bool
	ExpiresAt() time.Time
}
