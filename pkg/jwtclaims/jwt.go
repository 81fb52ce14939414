package jwtclaims

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Helper reads claims from a bearer token without verifying its signature.
// The storefront never trusts these values for authorization; they only
// drive local session expiry and a role fallback.
type Helper struct {
	claims jwt.MapClaims
	roles  []string
}

func Parse(token string) (*Helper, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &Helper{
		claims: claims,
		roles:  parseRoles(claims),
	}, nil
}

func (h *Helper) Subject() string {
	sub, _ := h.claims.GetSubject() //nolint:errcheck
	return sub
}

// ExpiresAt returns the zero time when the token has no exp claim.
func (h *Helper) ExpiresAt() time.Time {
	exp, err := h.claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (h *Helper) Roles() []string {
	return h.roles
}

func (h *Helper) HasRole(role string) bool {
	for i := range h.roles {
		if h.roles[i] == role {
			return true
		}
	}
	return false
}

// parseRoles accepts "role", "auth" and "roles" claims, either as a single
// comma separated string or as an array.
func parseRoles(claims jwt.MapClaims) []string {
	var roles []string
	for _, key := range []string{"role", "auth", "roles"} {
		raw, ok := claims[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			for _, r := range strings.Split(v, ",") {
				if r = strings.TrimSpace(r); r != "" {
					roles = append(roles, r)
				}
			}
		case []interface{}:
			for _, r := range v {
				if s, ok := r.(string); ok {
					roles = append(roles, s)
				}
			}
		}
	}
	return roles
}
