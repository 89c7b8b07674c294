package screen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rpattn/trackgrid/internal/domain"
)

// ErrUnknownScreen is returned when a screen name is not registered.
var ErrUnknownScreen = errors.New("unknown screen")

// Registry holds one controller per screen definition.
type Registry struct {
	order   []string
	screens map[string]*Controller
}

// NewRegistry builds controllers for defs. Names must be unique.
func NewRegistry(defs []domain.ScreenDefinition, fetcher Fetcher, opts ...Option) (*Registry, error) {
	registry := &Registry{screens: make(map[string]*Controller, len(defs))}
	for _, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, errors.New("screen name is required")
		}
		if _, exists := registry.screens[name]; exists {
			return nil, fmt.Errorf("duplicate screen %s", name)
		}
		def.Name = name
		controller, err := NewController(def, fetcher, opts...)
		if err != nil {
			return nil, err
		}
		registry.screens[name] = controller
		registry.order = append(registry.order, name)
	}
	return registry, nil
}

// Get returns the controller for name.
func (r *Registry) Get(name string) (*Controller, error) {
	controller, ok := r.screens[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScreen, name)
	}
	return controller, nil
}

// Names lists screens in definition order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// RefreshAll submits every screen concurrently, at most limit at a time.
// Fetch failures end up in each screen's state; only snapshot errors are
// returned.
func (r *Registry) RefreshAll(ctx context.Context, params domain.FetchParams, limit int) ([]Snapshot, error) {
	snapshots := make([]Snapshot, len(r.order))
	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}
	for i, name := range r.order {
		controller := r.screens[name]
		group.Go(func() error {
			snapshot, err := controller.Submit(groupCtx, params)
			if err != nil {
				return err
			}
			snapshots[i] = snapshot
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}
