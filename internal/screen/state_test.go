package screen

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rpattn/trackgrid/internal/domain"
)

func loadedState(t *testing.T) State {
	t.Helper()
	s := Reduce(InitialState(), Submitted{})
	s = Reduce(s, Responded{
		StatusCode: http.StatusOK,
		Collection: domain.NewCollection([]domain.Record{{"name": domain.String("A")}}),
	})
	if s.Status != domain.ResultLoaded {
		t.Fatalf("expected LOADED, got %s", s.Status)
	}
	return s
}

func TestReduceSubmitEntersLoading(t *testing.T) {
	at := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	s := Reduce(InitialState(), Submitted{At: at})
	if s.Status != domain.ResultLoading {
		t.Fatalf("expected LOADING, got %s", s.Status)
	}
	if s.Attempt != 1 || !s.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected bookkeeping: %+v", s)
	}
}

func TestReduceNoContentIsNoRecord(t *testing.T) {
	prior := loadedState(t)
	s := Reduce(Reduce(prior, Submitted{}), Responded{StatusCode: http.StatusNoContent, Collection: domain.NewCollection(nil)})
	if s.Status != domain.ResultNoRecord {
		t.Fatalf("expected NO_RECORD, got %s", s.Status)
	}
	if s.Collection.Len() != 0 {
		t.Fatalf("expected empty rows, got %d", s.Collection.Len())
	}
	if s.Collection.ID == prior.Collection.ID {
		t.Fatalf("expected a new collection identity")
	}
	if s.Message != "" {
		t.Fatalf("NO_RECORD must not carry an error message")
	}
}

func TestReduceEmptyOKIsNoRecord(t *testing.T) {
	s := Reduce(Reduce(InitialState(), Submitted{}), Responded{StatusCode: http.StatusOK, Collection: domain.NewCollection([]domain.Record{})})
	if s.Status != domain.ResultNoRecord {
		t.Fatalf("expected NO_RECORD for an empty body, got %s", s.Status)
	}
}

func TestReduceFailureKeepsPriorRows(t *testing.T) {
	prior := loadedState(t)
	s := Reduce(Reduce(prior, Submitted{}), Failed{Err: errors.New("connection refused")})
	if s.Status != domain.ResultError {
		t.Fatalf("expected ERROR, got %s", s.Status)
	}
	if s.Collection.ID != prior.Collection.ID || s.Collection.Len() != 1 {
		t.Fatalf("failed fetch must keep prior rows, got %+v", s.Collection)
	}
	if s.Message != ErrorMessage {
		t.Fatalf("expected generic message, got %q", s.Message)
	}
}

func TestReduceUnexpectedStatusIsError(t *testing.T) {
	prior := loadedState(t)
	for _, code := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusInternalServerError} {
		s := Reduce(Reduce(prior, Submitted{}), Responded{StatusCode: code, Collection: domain.NewCollection([]domain.Record{{}})})
		if s.Status != domain.ResultError {
			t.Errorf("status %d: expected ERROR, got %s", code, s.Status)
		}
		if s.Collection.ID != prior.Collection.ID {
			t.Errorf("status %d: rows must not be overwritten", code)
		}
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	prior := loadedState(t)
	_ = Reduce(prior, Failed{Err: errors.New("boom")})
	if prior.Status != domain.ResultLoaded || prior.Message != "" {
		t.Fatalf("reducer mutated its input: %+v", prior)
	}
	if got := Reduce(prior, nil); got.Status != prior.Status {
		t.Fatalf("nil event should be a no-op")
	}
}

func TestReduceErrorRecoversOnNextSubmit(t *testing.T) {
	s := Reduce(Reduce(InitialState(), Submitted{}), Failed{Err: errors.New("timeout")})
	s = Reduce(s, Submitted{})
	if s.Status != domain.ResultLoading || s.Message != "" {
		t.Fatalf("expected a fresh LOADING state, got %+v", s)
	}
	if s.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %d", s.Attempt)
	}
}
