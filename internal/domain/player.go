package domain

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Player represents a players row. ID is assigned once, at creation.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Region   string    `json:"region"`
	Realm    string    `json:"realm"`
	Name     string    `json:"name"`
	MainRaid bool      `json:"mainRaid"`
}

// PlayerInput carries the mutable fields of a player for create and update.
type PlayerInput struct {
	Region   string `json:"region" validate:"required,max=100"`
	Realm    string `json:"realm" validate:"required,max=100"`
	Name     string `json:"name" validate:"required,max=100"`
	MainRaid bool   `json:"mainRaid"`
}

// Normalize trims surrounding whitespace so that blank values fail "required".
func (in PlayerInput) Normalize() PlayerInput {
	in.Region = strings.TrimSpace(in.Region)
	in.Realm = strings.TrimSpace(in.Realm)
	in.Name = strings.TrimSpace(in.Name)
	return in
}

// Apply copies the mutable fields onto p, leaving ID untouched.
func (in PlayerInput) Apply(p *Player) {
	p.Region = in.Region
	p.Realm = in.Realm
	p.Name = in.Name
	p.MainRaid = in.MainRaid
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SearchParameters selects a window of players, optionally filtered by name.
type SearchParameters struct {
	Search   string `json:"search"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// Normalize trims the search term and clamps Page to >= 1 and PageSize to [1, MaxPageSize].
// Applying it twice yields the same value.
func (p SearchParameters) Normalize() SearchParameters {
	p.Search = strings.TrimSpace(p.Search)
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 1
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of records skipped before the page window.
func (p SearchParameters) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PaginatedResult is one page of players plus counts. The paging flags are
// derived from the stored fields and are not settable.
type PaginatedResult struct {
	Items      []Player
	Page       int
	PageSize   int
	TotalItems int
}

// TotalPages is ceil(TotalItems / PageSize).
func (r PaginatedResult) TotalPages() int {
	if r.PageSize <= 0 {
		return 0
	}
	return (r.TotalItems + r.PageSize - 1) / r.PageSize
}

func (r PaginatedResult) HasPreviousPage() bool { return r.Page > 1 }

func (r PaginatedResult) HasNextPage() bool { return r.Page < r.TotalPages() }

func (r PaginatedResult) MarshalJSON() ([]byte, error) {
	items := r.Items
	if items == nil {
		items = []Player{}
	}
	return json.Marshal(struct {
		Items           []Player `json:"items"`
		Page            int      `json:"page"`
		PageSize        int      `json:"pageSize"`
		TotalItems      int      `json:"totalItems"`
		TotalPages      int      `json:"totalPages"`
		HasPreviousPage bool     `json:"hasPreviousPage"`
		HasNextPage     bool     `json:"hasNextPage"`
	}{items, r.Page, r.PageSize, r.TotalItems, r.TotalPages(), r.HasPreviousPage(), r.HasNextPage()})
}
