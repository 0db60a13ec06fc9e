package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/raidroster/api/internal/domain"
)

// MemoryPlayerStore is an in-process PlayerStore for local runs and tests.
type MemoryPlayerStore struct {
	mu      sync.RWMutex
	players map[uuid.UUID]domain.Player
}

// NewMemoryPlayerStore returns an empty store.
func NewMemoryPlayerStore() *MemoryPlayerStore {
	return &MemoryPlayerStore{players: make(map[uuid.UUID]domain.Player)}
}

func (s *MemoryPlayerStore) Create(ctx context.Context, p *domain.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = *p
	return nil
}

func (s *MemoryPlayerStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryPlayerStore) Update(ctx context.Context, p *domain.Player) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; !ok {
		return false, nil
	}
	s.players[p.ID] = *p
	return true, nil
}

func (s *MemoryPlayerStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return false, nil
	}
	delete(s.players, id)
	return true, nil
}

func (s *MemoryPlayerStore) ListAll(ctx context.Context) ([]domain.Player, error) {
	return s.filtered(ctx, "")
}

func (s *MemoryPlayerStore) Search(ctx context.Context, term string, offset, limit int) ([]domain.Player, int, error) {
	matches, err := s.filtered(ctx, term)
	if err != nil {
		return nil, 0, err
	}
	total := len(matches)
	if offset >= total {
		return []domain.Player{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matches[offset:end], total, nil
}

func (s *MemoryPlayerStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// filtered returns players whose name contains term (case-insensitive), sorted by name then ID.
func (s *MemoryPlayerStore) filtered(ctx context.Context, term string) ([]domain.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)

	s.mu.RLock()
	out := make([]domain.Player, 0, len(s.players))
	for _, p := range s.players {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
