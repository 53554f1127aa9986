// Package session maintains the signed-in state: the bearer token and user
// profile, held in memory and persisted so they survive restarts.
package session

import (
	"context"
	"errors"

	"cv-evaluator-client/internal/models"
)

// ErrNoSession is returned by Load when nothing is persisted.
var ErrNoSession = errors.New("no persisted session")

// Store persists one session. Implementations: file (default) and redis.
type Store interface {
	Save(ctx context.Context, s *models.Session) error
	Load(ctx context.Context) (*models.Session, error)
	Clear(ctx context.Context) error
}
