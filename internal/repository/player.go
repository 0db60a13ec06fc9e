package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/raidroster/api/internal/domain"
)

// PgDB is a DBTX that can also be pinged, e.g. *pgxpool.Pool.
type PgDB interface {
	DBTX
	Ping(ctx context.Context) error
}

type pgPlayerStore struct {
	db PgDB
}

// NewPgPlayerStore returns a pgx-backed PlayerStore.
func NewPgPlayerStore(db PgDB) PlayerStore {
	return &pgPlayerStore{db: db}
}

const playerColumns = `id, region, realm, name, main_raid`

func (s *pgPlayerStore) Create(ctx context.Context, p *domain.Player) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO players (id, region, realm, name, main_raid)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Region, p.Realm, p.Name, p.MainRaid)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (s *pgPlayerStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	row := s.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *pgPlayerStore) Update(ctx context.Context, p *domain.Player) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE players
		SET region = $2, realm = $3, name = $4, main_raid = $5, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Region, p.Realm, p.Name, p.MainRaid)
	if err != nil {
		return false, fmt.Errorf("update player: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *pgPlayerStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete player: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *pgPlayerStore) ListAll(ctx context.Context) ([]domain.Player, error) {
	rows, err := s.db.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY name COLLATE "C" ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return collectPlayers(rows)
}

func (s *pgPlayerStore) Search(ctx context.Context, term string, offset, limit int) ([]domain.Player, int, error) {
	pattern := "%" + escapeLike(term) + "%"

	var total int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM players
		WHERE ($1::text = '' OR name ILIKE $2)`, term, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count players: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE ($1::text = '' OR name ILIKE $2)
		ORDER BY name COLLATE "C" ASC, id ASC
		LIMIT $3 OFFSET $4`, term, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search players: %w", err)
	}
	items, err := collectPlayers(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *pgPlayerStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	if err := row.Scan(&p.ID, &p.Region, &p.Realm, &p.Name, &p.MainRaid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	return &p, nil
}

func collectPlayers(rows pgx.Rows) ([]domain.Player, error) {
	defer rows.Close()
	players := []domain.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// escapeLike makes term match literally inside an ILIKE pattern.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
