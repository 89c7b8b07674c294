package grid

import (
	"sync"
	"testing"

	"github.com/rpattn/trackgrid/internal/domain"
)

func TestMemoBuildsOncePerCollection(t *testing.T) {
	memo, err := NewMemo(forecastFields(), 2)
	if err != nil {
		t.Fatalf("new memo: %v", err)
	}
	first := domain.NewCollection(forecastRecords())

	for i := 0; i < 3; i++ {
		if _, err := memo.Columns(first); err != nil {
			t.Fatalf("columns: %v", err)
		}
	}
	if memo.Builds() != 1 {
		t.Fatalf("expected 1 build for repeated identity, got %d", memo.Builds())
	}

	// Same records, new identity: rebuilt.
	second := domain.NewCollection(first.Records)
	columns, err := memo.Columns(second)
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if memo.Builds() != 2 {
		t.Fatalf("expected rebuild for new identity, got %d builds", memo.Builds())
	}
	if column, ok := columns.Find("ea_type"); !ok || column.Options.Len() != 2 {
		t.Fatalf("unexpected rebuilt columns: %+v", column)
	}
}

func TestMemoEvictsOldCollections(t *testing.T) {
	memo, err := NewMemo(forecastFields(), 1)
	if err != nil {
		t.Fatalf("new memo: %v", err)
	}
	a := domain.NewCollection(forecastRecords())
	b := domain.NewCollection(forecastRecords()[:1])

	_, _ = memo.Columns(a)
	_, _ = memo.Columns(b)
	_, _ = memo.Columns(a)
	if memo.Builds() != 3 {
		t.Fatalf("expected eviction to force a rebuild, got %d builds", memo.Builds())
	}
}

func TestMemoZeroIdentityIsNeverCached(t *testing.T) {
	memo, err := NewMemo(forecastFields(), 0)
	if err != nil {
		t.Fatalf("new memo: %v", err)
	}
	collection := domain.Collection{Records: forecastRecords()}
	_, _ = memo.Columns(collection)
	_, _ = memo.Columns(collection)
	if memo.Builds() != 2 {
		t.Fatalf("expected uncached builds for zero identity, got %d", memo.Builds())
	}
}

func TestMemoConcurrentAccess(t *testing.T) {
	memo, err := NewMemo(forecastFields(), 4)
	if err != nil {
		t.Fatalf("new memo: %v", err)
	}
	collection := domain.NewCollection(forecastRecords())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := memo.Columns(collection); err != nil {
				t.Errorf("columns: %v", err)
			}
		}()
	}
	wg.Wait()
	if memo.Builds() != 1 {
		t.Fatalf("expected a single build, got %d", memo.Builds())
	}
}
