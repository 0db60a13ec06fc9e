package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/raidroster/api/internal/domain"
)

const maxBodyBytes = 1 << 20

type detailKeyType struct{}

// ErrorDetail controls whether 5xx responses carry the underlying error text.
// Only development deployments should enable it.
func ErrorDetail(expose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), detailKeyType{}, expose)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func exposeDetails(ctx context.Context) bool {
	v, _ := ctx.Value(detailKeyType{}).(bool)
	return v
}

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes the ErrorResponse body for err. Client errors pass through;
// anything else becomes a 500 with a fixed message.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		RespondJSON(w, appErr.Status, appErr.Response())
		return
	}

	body := domain.ErrorResponse{
		StatusCode: http.StatusInternalServerError,
		Message:    domain.MsgInternal,
	}
	if exposeDetails(r.Context()) {
		body.Details = err.Error()
	}
	RespondJSON(w, http.StatusInternalServerError, body)
}

// DecodeJSON reads and decodes a JSON request body into dst. Bodies over 1 MiB are rejected.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes+1))
	if err := dec.Decode(dst); err != nil {
		return domain.ErrValidation(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
