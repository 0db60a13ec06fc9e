package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/raidroster/api/internal/auth"
	"github.com/raidroster/api/internal/domain"
	"github.com/raidroster/api/internal/repository"
)

// PlayerService implements the player record lifecycle and the paged search over it.
type PlayerService struct {
	store  repository.PlayerStore
	logger *slog.Logger
	newID  func() uuid.UUID
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(store repository.PlayerStore, logger *slog.Logger) *PlayerService {
	return &PlayerService{store: store, logger: logger, newID: uuid.New}
}

// Create validates input, assigns a fresh ID and persists the player.
func (s *PlayerService) Create(ctx context.Context, input domain.PlayerInput) (*domain.Player, error) {
	input, err := domain.ValidatePlayerInput(input)
	if err != nil {
		return nil, err
	}

	p := &domain.Player{ID: s.newID()}
	input.Apply(p)
	if err := s.store.Create(ctx, p); err != nil {
		return nil, domain.ErrInternal("create player", err)
	}

	s.logger.Info("player created", "player_id", p.ID, "name", p.Name, "by", auth.SubjectFromContext(ctx))
	return p, nil
}

// Get returns the player or a not-found error.
func (s *PlayerService) Get(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("find player", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound("player", id.String())
	}
	return p, nil
}

// Update replaces every mutable field of an existing player.
func (s *PlayerService) Update(ctx context.Context, id uuid.UUID, input domain.PlayerInput) (*domain.Player, error) {
	input, err := domain.ValidatePlayerInput(input)
	if err != nil {
		return nil, err
	}

	p := &domain.Player{ID: id}
	input.Apply(p)
	ok, err := s.store.Update(ctx, p)
	if err != nil {
		return nil, domain.ErrInternal("update player", err)
	}
	if !ok {
		return nil, domain.ErrNotFound("player", id.String())
	}
	s.logger.Info("player updated", "player_id", id, "by", auth.SubjectFromContext(ctx))
	return p, nil
}

// Delete removes a player. It reports false, not an error, when the player does not exist.
func (s *PlayerService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, domain.ErrInternal("delete player", err)
	}
	if ok {
		s.logger.Info("player deleted", "player_id", id, "by", auth.SubjectFromContext(ctx))
	}
	return ok, nil
}

// ListAll returns every player ordered by name.
func (s *PlayerService) ListAll(ctx context.Context) ([]domain.Player, error) {
	players, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrInternal("list players", err)
	}
	return players, nil
}

// List normalizes params and returns the requested page of matching players.
// A page past the end is empty but still carries the totals.
func (s *PlayerService) List(ctx context.Context, params domain.SearchParameters) (*domain.PaginatedResult, error) {
	params = params.Normalize()

	items, total, err := s.store.Search(ctx, params.Search, params.Offset(), params.PageSize)
	if err != nil {
		return nil, domain.ErrInternal("search players", err)
	}
	if items == nil {
		items = []domain.Player{}
	}

	return &domain.PaginatedResult{
		Items:      items,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalItems: total,
	}, nil
}
