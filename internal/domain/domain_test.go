package domain

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- SearchParameters Tests ---

func TestSearchParametersNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   SearchParameters
		want SearchParameters
	}{
		{"defaults kept", SearchParameters{Page: 1, PageSize: 10}, SearchParameters{Page: 1, PageSize: 10}},
		{"page zero", SearchParameters{Page: 0, PageSize: 10}, SearchParameters{Page: 1, PageSize: 10}},
		{"negative page", SearchParameters{Page: -4, PageSize: 10}, SearchParameters{Page: 1, PageSize: 10}},
		{"page size zero", SearchParameters{Page: 2, PageSize: 0}, SearchParameters{Page: 2, PageSize: 1}},
		{"page size too large", SearchParameters{Page: 1, PageSize: 500}, SearchParameters{Page: 1, PageSize: 100}},
		{"search trimmed", SearchParameters{Search: "  play ", Page: 1, PageSize: 5}, SearchParameters{Search: "play", Page: 1, PageSize: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, got.Normalize(), "normalize must be idempotent")
		})
	}
}

func TestSearchParametersOffset(t *testing.T) {
	assert.Equal(t, 0, SearchParameters{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, SearchParameters{Page: 3, PageSize: 20}.Offset())
}

// --- PaginatedResult Tests ---

func TestPaginatedResultDerivedFields(t *testing.T) {
	tests := []struct {
		name      string
		res       PaginatedResult
		wantPages int
		wantPrev  bool
		wantNext  bool
	}{
		{"empty", PaginatedResult{Page: 1, PageSize: 10}, 0, false, false},
		{"single page", PaginatedResult{Page: 1, PageSize: 10, TotalItems: 10}, 1, false, false},
		{"first of three", PaginatedResult{Page: 1, PageSize: 10, TotalItems: 21}, 3, false, true},
		{"middle", PaginatedResult{Page: 2, PageSize: 10, TotalItems: 21}, 3, true, true},
		{"last", PaginatedResult{Page: 3, PageSize: 10, TotalItems: 21}, 3, true, false},
		{"beyond last", PaginatedResult{Page: 9, PageSize: 10, TotalItems: 21}, 3, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantPages, tt.res.TotalPages())
			assert.Equal(t, tt.wantPrev, tt.res.HasPreviousPage())
			assert.Equal(t, tt.wantNext, tt.res.HasNextPage())
		})
	}
}

func TestPaginatedResultJSON(t *testing.T) {
	res := PaginatedResult{Page: 2, PageSize: 5, TotalItems: 11}
	b, err := json.Marshal(res)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &body))
	assert.Equal(t, float64(3), body["totalPages"])
	assert.Equal(t, true, body["hasPreviousPage"])
	assert.Equal(t, true, body["hasNextPage"])
	assert.Equal(t, []interface{}{}, body["items"])
}

// --- Validation Tests ---

func TestValidatePlayerInput(t *testing.T) {
	long := strings.Repeat("a", 101)
	tests := []struct {
		name    string
		in      PlayerInput
		wantErr string
	}{
		{"valid", PlayerInput{Region: "US", Realm: "Stormrage", Name: "Foo"}, ""},
		{"empty name", PlayerInput{Region: "US", Realm: "Stormrage"}, "Name is required"},
		{"whitespace realm", PlayerInput{Region: "US", Realm: "   ", Name: "Foo"}, "Realm is required"},
		{"long region", PlayerInput{Region: long, Realm: "Stormrage", Name: "Foo"}, "Region must be at most 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePlayerInput(tt.in)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var appErr *AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, http.StatusBadRequest, appErr.Status)
			assert.Contains(t, appErr.Details, tt.wantErr)
		})
	}
}

func TestValidatePlayerInputTrims(t *testing.T) {
	in, err := ValidatePlayerInput(PlayerInput{Region: " EU ", Realm: " Draenor", Name: "Bar "})
	require.NoError(t, err)
	assert.Equal(t, PlayerInput{Region: "EU", Realm: "Draenor", Name: "Bar"}, in)
}

func TestValidateFeedback(t *testing.T) {
	_, err := ValidateFeedback(Feedback{Message: "ok"})
	require.Error(t, err)
	assert.Contains(t, err.(*AppError).Details, "Message must be at least 3")

	_, err = ValidateFeedback(Feedback{Message: strings.Repeat("x", 2001)})
	require.Error(t, err)

	f, err := ValidateFeedback(Feedback{Name: " Jaina ", Message: " great site "})
	require.NoError(t, err)
	assert.Equal(t, "Jaina", f.DisplayName())
	assert.Equal(t, "great site", f.Message)
}

func TestFeedbackDisplayName(t *testing.T) {
	assert.Equal(t, "Anonymous", Feedback{Name: "Thrall", Anonymous: true}.DisplayName())
	assert.Equal(t, "Anonymous", Feedback{}.DisplayName())
	assert.Equal(t, "Thrall", Feedback{Name: "Thrall"}.DisplayName())
}

func TestValidatePaging(t *testing.T) {
	assert.NoError(t, ValidatePaging(1, 1))
	assert.NoError(t, ValidatePaging(7, 100))
	assert.Error(t, ValidatePaging(0, 10))
	assert.Error(t, ValidatePaging(1, 0))
	assert.Error(t, ValidatePaging(1, 101))
}

// --- AppError Tests ---

func TestAppErrorConstructors(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{ErrValidation("x"), 400},
		{ErrNotFound("player", "1"), 404},
		{ErrUnauthenticated(), 401},
		{ErrInvalidCredential(), 401},
		{ErrRateLimited(""), 429},
		{ErrInternal("boom", nil), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Status)
		assert.Equal(t, tt.want, tt.err.Response().StatusCode)
	}
	assert.NotEqual(t, ErrUnauthenticated().Message, ErrInvalidCredential().Message)
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := ErrInternal("list players", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db down")
}
