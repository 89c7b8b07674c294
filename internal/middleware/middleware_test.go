package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rpattn/trackgrid/internal/domain"
	"github.com/rpattn/trackgrid/internal/screen"
	"github.com/rpattn/trackgrid/internal/stateloader"
)

func TestDataLoaderMiddlewareAttachesLoaderPerRequest(t *testing.T) {
	registry, err := screen.NewRegistry([]domain.ScreenDefinition{
		{Name: "works", Source: domain.SourceSpec{Kind: domain.SourceList, Path: "works"}, Fields: []domain.FieldSpec{{Key: "title", Label: "Name"}}},
	}, screen.FetcherFunc(func(context.Context, domain.ScreenDefinition, domain.FetchParams) (domain.FetchResult, error) {
		return domain.FetchResult{StatusCode: http.StatusNoContent}, nil
	}))
	require.NoError(t, err)

	var seen []*stateloader.SnapshotLoader
	handler := DataLoaderMiddleware(registry)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loader := SnapshotLoaderFromContext(r.Context())
		require.NotNil(t, loader)
		snapshots, errs := loader.LoadMany(r.Context(), []string{"works"})
		require.NoError(t, errs[0])
		assert.Equal(t, "works", snapshots[0].Name)
		seen = append(seen, loader)
	}))

	for range 2 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/snapshots", nil))
	}
	require.Len(t, seen, 2)
	assert.NotSame(t, seen[0], seen[1], "each request gets its own loader")

	assert.Nil(t, SnapshotLoaderFromContext(context.Background()))
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/screens/works/fetch", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/screens/works/fetch", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}
