package screen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rpattn/trackgrid/internal/domain"
	"github.com/rpattn/trackgrid/internal/grid"
)

// Fetcher loads the records of a screen.
type Fetcher interface {
	Fetch(ctx context.Context, def domain.ScreenDefinition, params domain.FetchParams) (domain.FetchResult, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, def domain.ScreenDefinition, params domain.FetchParams) (domain.FetchResult, error)

func (f FetcherFunc) Fetch(ctx context.Context, def domain.ScreenDefinition, params domain.FetchParams) (domain.FetchResult, error) {
	return f(ctx, def, params)
}

// Snapshot pairs a state with the descriptors of its collection.
type Snapshot struct {
	Name    string
	Title   string
	State   State
	Columns grid.Columns
}

// Controller owns the state of one screen. Submissions are not
// de-duplicated: concurrent fetches race and the last one to finish wins.
type Controller struct {
	def     domain.ScreenDefinition
	fetcher Fetcher
	memo    *grid.Memo
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.RWMutex
	state State
}

type controllerOptions struct {
	logger   *zap.Logger
	now      func() time.Time
	memoSize int
}

// Option configures a Controller.
type Option func(*controllerOptions)

func WithLogger(logger *zap.Logger) Option {
	return func(o *controllerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *controllerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMemoSize bounds how many collections keep cached descriptors.
func WithMemoSize(size int) Option {
	return func(o *controllerOptions) {
		if size > 0 {
			o.memoSize = size
		}
	}
}

// NewController validates the definition's fields and returns an idle screen.
func NewController(def domain.ScreenDefinition, fetcher Fetcher, opts ...Option) (*Controller, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("screen %s: fetcher is required", def.Name)
	}
	options := controllerOptions{logger: zap.NewNop(), now: time.Now, memoSize: 4}
	for _, opt := range opts {
		opt(&options)
	}
	if _, err := grid.Build(def.Fields, nil); err != nil {
		return nil, fmt.Errorf("screen %s: %w", def.Name, err)
	}
	memo, err := grid.NewMemo(def.Fields, options.memoSize)
	if err != nil {
		return nil, err
	}
	return &Controller{
		def:     def,
		fetcher: fetcher,
		memo:    memo,
		logger:  options.logger.With(zap.String("screen", def.Name)),
		now:     options.now,
		state:   InitialState(),
	}, nil
}

func (c *Controller) Definition() domain.ScreenDefinition { return c.def }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) dispatch(ev Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, ev)
	return c.state
}

// Submit runs one fetch and returns the resulting snapshot. The failure
// detail is logged and never stored in the state.
func (c *Controller) Submit(ctx context.Context, params domain.FetchParams) (Snapshot, error) {
	c.dispatch(Submitted{At: c.now()})
	start := c.now()

	result, err := c.fetcher.Fetch(ctx, c.def, params)
	if err != nil {
		c.logger.Warn("fetch failed", zap.Error(err), zap.Duration("duration", c.now().Sub(start)))
		c.dispatch(Failed{Err: err, At: c.now()})
		return c.Snapshot()
	}

	state := c.dispatch(Responded{
		StatusCode: result.StatusCode,
		Collection: domain.NewCollection(result.Records),
		At:         c.now(),
	})
	c.logger.Info("fetch completed",
		zap.Int("status_code", result.StatusCode),
		zap.String("result", string(state.Status)),
		zap.Int("rows", state.Collection.Len()),
		zap.Duration("duration", c.now().Sub(start)),
	)
	return c.Snapshot()
}

// Snapshot returns the current state with its descriptors.
func (c *Controller) Snapshot() (Snapshot, error) {
	state := c.State()
	columns, err := c.memo.Columns(state.Collection)
	if err != nil {
		return Snapshot{}, fmt.Errorf("screen %s: build columns: %w", c.def.Name, err)
	}
	return Snapshot{Name: c.def.Name, Title: c.def.Title, State: state, Columns: columns}, nil
}

// RowSet is one filtered read of a screen. Rows, Columns and State all come
// from the same snapshot.
type RowSet struct {
	State   State
	Columns grid.Columns
	Rows    []domain.Record
}

// Rows returns the rows of the current collection that pass filters, along
// with the descriptors bound to those filters. Rows follow the definition's
// default sort when one is set.
func (c *Controller) Rows(filters map[string]domain.ColumnFilter) (RowSet, error) {
	snapshot, err := c.Snapshot()
	if err != nil {
		return RowSet{}, err
	}
	columns := snapshot.Columns.WithFilters(filters)
	rows := snapshot.State.Collection.Records
	if c.def.DefaultSort != "" {
		if column, ok := columns.Find(c.def.DefaultSort); ok {
			if accessor, isPath := column.Accessor.(grid.PathAccessor); isPath {
				rows = grid.SortRecords(rows, accessor.Path, false)
			}
		}
	}
	return RowSet{State: snapshot.State, Columns: columns, Rows: grid.ApplyFilters(rows, columns)}, nil
}

func (c *Controller) memoBuilds() int64 { return c.memo.Builds() }
