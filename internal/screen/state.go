package screen

import (
	"net/http"
	"time"

	"github.com/rpattn/trackgrid/internal/domain"
)

// ErrorMessage is the user visible text for a failed fetch.
const ErrorMessage = "Error occurred during processing. Please try again after some time."

// State is an immutable snapshot of a screen's fetch result.
type State struct {
	Status     domain.ResultStatus
	Collection domain.Collection
	Message    string
	// Attempt counts submissions; it only ever grows.
	Attempt   int
	UpdatedAt time.Time
}

// InitialState is the idle state with an empty collection.
func InitialState() State {
	return State{Status: domain.ResultIdle, Collection: domain.Collection{Records: []domain.Record{}}}
}

// Event drives the reducer.
type Event interface {
	apply(State) State
}

// Submitted is raised when the user triggers a fetch.
type Submitted struct {
	At time.Time
}

// Responded carries a completed HTTP exchange. Collection must already hold
// its identity so the reducer stays deterministic.
type Responded struct {
	StatusCode int
	Collection domain.Collection
	At         time.Time
}

// Failed carries a transport level failure.
type Failed struct {
	Err error
	At  time.Time
}

// Reduce returns the state that follows s after ev. It never mutates s.
func Reduce(s State, ev Event) State {
	if ev == nil {
		return s
	}
	return ev.apply(s)
}

func (e Submitted) apply(s State) State {
	s.Status = domain.ResultLoading
	s.Message = ""
	s.Attempt++
	s.UpdatedAt = e.At
	return s
}

func (e Responded) apply(s State) State {
	s.UpdatedAt = e.At
	switch {
	case e.StatusCode == http.StatusOK && e.Collection.Len() > 0:
		s.Status = domain.ResultLoaded
		s.Collection = e.Collection
		s.Message = ""
	case e.StatusCode == http.StatusNoContent, e.StatusCode == http.StatusOK:
		s.Status = domain.ResultNoRecord
		s.Collection = emptyCollection(e.Collection)
		s.Message = ""
	default:
		// Unexpected statuses keep the previous rows.
		s.Status = domain.ResultError
		s.Message = ErrorMessage
	}
	return s
}

func (e Failed) apply(s State) State {
	s.Status = domain.ResultError
	s.Message = ErrorMessage
	s.UpdatedAt = e.At
	return s
}

func emptyCollection(c domain.Collection) domain.Collection {
	return domain.Collection{ID: c.ID, Records: []domain.Record{}}
}
