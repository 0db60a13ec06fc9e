package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/raidroster/api/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PlayerStore persists players. Lookups of missing records return (nil, nil);
// Update and Delete report absence through their bool result.
type PlayerStore interface {
	// Create inserts a player whose ID has already been assigned.
	Create(ctx context.Context, player *domain.Player) error

	// FindByID returns a player by ID, or nil if absent.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Player, error)

	// Update replaces the mutable fields. Returns false if no such player exists.
	Update(ctx context.Context, player *domain.Player) (bool, error)

	// Delete removes a player. Returns false if no such player exists.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// ListAll returns every player ordered by name.
	ListAll(ctx context.Context) ([]domain.Player, error)

	// Search returns the window [offset, offset+limit) of players whose name
	// contains term case-insensitively (all players when term is empty),
	// ordered by name, plus the count of all matches.
	Search(ctx context.Context, term string, offset, limit int) ([]domain.Player, int, error)

	// Ping reports storage health.
	Ping(ctx context.Context) error
}
