// Package session keeps short-lived login state: pending OAuth nonces and
// the ids of session tokens revoked by logout.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrStateNotFound = errors.New("oauth state not found or expired")

type Store interface {
	SaveState(ctx context.Context, nonce string, expiresAt time.Time) error
	// ConsumeState succeeds at most once per nonce.
	ConsumeState(ctx context.Context, nonce string) error
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
