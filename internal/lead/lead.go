// Package lead defines the onboarding record and its stores.
package lead

import (
	"context"
	"strings"
	"time"
)

// FallbackIdentity is stored when the transport reports no user handle.
const FallbackIdentity = "NoUsername"

// Lead is a registered user's onboarding record. It is created exactly once
// when onboarding completes and never mutated afterwards.
type Lead struct {
	Identity  string    `db:"identity"`
	Country   string    `db:"country"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// Identity normalizes a transport username into the registration key.
func Identity(username string) string {
	if s := strings.TrimSpace(username); s != "" {
		return s
	}
	return FallbackIdentity
}

// Store persists leads and answers registration lookups.
type Store interface {
	// IsRegistered reports whether a lead with this identity exists.
	IsRegistered(ctx context.Context, identity string) (bool, error)
	// Save persists a new lead.
	Save(ctx context.Context, l Lead) error
}
