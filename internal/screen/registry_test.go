package screen

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rpattn/trackgrid/internal/domain"
)

func TestRegistryLookup(t *testing.T) {
	second := templateDefinition()
	second.Name = "work-listing"
	registry, err := NewRegistry([]domain.ScreenDefinition{templateDefinition(), second}, &stubFetcher{})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if names := registry.Names(); len(names) != 2 || names[0] != "task-templates" || names[1] != "work-listing" {
		t.Fatalf("unexpected names %v", names)
	}
	if _, err := registry.Get(" work-listing "); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := registry.Get("missing"); !errors.Is(err, ErrUnknownScreen) {
		t.Fatalf("expected ErrUnknownScreen, got %v", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	defs := []domain.ScreenDefinition{templateDefinition(), templateDefinition()}
	if _, err := NewRegistry(defs, &stubFetcher{}); err == nil {
		t.Fatalf("expected duplicate screen error")
	}
	if _, err := NewRegistry([]domain.ScreenDefinition{{Name: " "}}, &stubFetcher{}); err == nil {
		t.Fatalf("expected missing name error")
	}
}

func TestRegistryRefreshAll(t *testing.T) {
	second := templateDefinition()
	second.Name = "work-listing"
	fetcher := FetcherFunc(func(_ context.Context, def domain.ScreenDefinition, _ domain.FetchParams) (domain.FetchResult, error) {
		if def.Name == "work-listing" {
			return domain.FetchResult{}, errors.New("upstream unavailable")
		}
		return domain.FetchResult{StatusCode: http.StatusOK, Records: []domain.Record{templateRecord("A", "Act", "Phase", true)}}, nil
	})
	registry, err := NewRegistry([]domain.ScreenDefinition{templateDefinition(), second}, fetcher)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	snapshots, err := registry.RefreshAll(context.Background(), domain.FetchParams{}, 2)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if snapshots[0].State.Status != domain.ResultLoaded {
		t.Fatalf("expected first screen LOADED, got %s", snapshots[0].State.Status)
	}
	if snapshots[1].State.Status != domain.ResultError {
		t.Fatalf("expected fetch failure to surface as ERROR, got %s", snapshots[1].State.Status)
	}
}
