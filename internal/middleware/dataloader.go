package middleware

import (
	"context"
	"net/http"

	"github.com/rpattn/trackgrid/internal/screen"
	"github.com/rpattn/trackgrid/internal/stateloader"
)

type ctxKey string

const snapshotLoaderKey ctxKey = "snapshotLoader"

// DataLoaderMiddleware attaches a fresh snapshot loader to the request context
func DataLoaderMiddleware(registry *screen.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := stateloader.NewSnapshotLoader(registry)
			ctx := context.WithValue(r.Context(), snapshotLoaderKey, loader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SnapshotLoaderFromContext retrieves the loader from context
func SnapshotLoaderFromContext(ctx context.Context) *stateloader.SnapshotLoader {
	if l, ok := ctx.Value(snapshotLoaderKey).(*stateloader.SnapshotLoader); ok {
		return l
	}
	return nil
}
