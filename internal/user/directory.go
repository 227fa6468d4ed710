// Package user resolves the operators (buyers) recorded on sales.
package user

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when no user carries the requested id.
var ErrNotFound = errors.New("user: not found")

type queryProvider interface {
	GetUserDisplayName(ctx context.Context, id int64) (string, error)
}

// Directory looks up user display names.
type Directory struct {
	queries queryProvider
}

// DirectoryConfig groups Directory dependencies.
type DirectoryConfig struct {
	Queries queryProvider
}

// NewDirectory constructs a Directory.
func NewDirectory(cfg DirectoryConfig) *Directory {
	return &Directory{queries: cfg.Queries}
}

// DisplayName returns the trimmed display name of user id.
func (d *Directory) DisplayName(ctx context.Context, id int64) (string, error) {
	if d == nil || d.queries == nil {
		return "", errors.New("user directory not configured")
	}
	name, err := d.queries.GetUserDisplayName(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return strings.TrimSpace(name), nil
}
