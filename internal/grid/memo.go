package grid

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rpattn/trackgrid/internal/domain"
)

const defaultMemoSize = 8

// Memo caches descriptor builds keyed by collection identity. A collection
// with a new ID always triggers a rebuild; the same ID is served from cache.
type Memo struct {
	fields []domain.FieldSpec
	cache  *lru.Cache[uuid.UUID, Columns]
	mu     sync.Mutex
	builds atomic.Int64
}

// NewMemo creates a memo for a fixed field list. size bounds the number of
// collections kept; non-positive sizes use a small default.
func NewMemo(fields []domain.FieldSpec, size int) (*Memo, error) {
	if size <= 0 {
		size = defaultMemoSize
	}
	cache, err := lru.New[uuid.UUID, Columns](size)
	if err != nil {
		return nil, fmt.Errorf("create column cache: %w", err)
	}
	return &Memo{
		fields: append([]domain.FieldSpec(nil), fields...),
		cache:  cache,
	}, nil
}

// Columns returns the descriptors for collection, building them at most once
// per collection ID.
func (m *Memo) Columns(collection domain.Collection) (Columns, error) {
	if collection.ID == uuid.Nil {
		columns, err := Build(m.fields, collection.Records)
		if err != nil {
			return nil, err
		}
		m.builds.Add(1)
		return columns, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.cache.Get(collection.ID); ok {
		return cached, nil
	}
	columns, err := Build(m.fields, collection.Records)
	if err != nil {
		return nil, err
	}
	m.builds.Add(1)
	m.cache.Add(collection.ID, columns)
	return columns, nil
}

// Builds reports how many times descriptors were built.
func (m *Memo) Builds() int64 { return m.builds.Load() }

// Purge drops every cached build.
func (m *Memo) Purge() { m.cache.Purge() }
