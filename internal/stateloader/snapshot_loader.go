package stateloader

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/trackgrid/internal/screen"
)

// SnapshotLoader batches snapshot lookups by screen name within one request.
type SnapshotLoader struct {
	Loader *dataloader.Loader
}

func NewSnapshotLoader(registry *screen.Registry) *SnapshotLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		// Results must line up with keys.
		results := make([]*dataloader.Result, len(keys))
		for i, key := range keys {
			if err := ctx.Err(); err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			controller, err := registry.Get(key.String())
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			snapshot, err := controller.Snapshot()
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			results[i] = &dataloader.Result{Data: snapshot}
		}
		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))

	return &SnapshotLoader{Loader: loader}
}

// LoadMany resolves snapshots for names in order. Errors are per name.
func (l *SnapshotLoader) LoadMany(ctx context.Context, names []string) ([]screen.Snapshot, []error) {
	data, errs := l.Loader.LoadMany(ctx, dataloader.NewKeysFromStrings(names))()
	snapshots := make([]screen.Snapshot, len(names))
	perName := make([]error, len(names))
	for i := range names {
		if i < len(errs) && errs[i] != nil {
			perName[i] = errs[i]
			continue
		}
		if i < len(data) {
			if snapshot, ok := data[i].(screen.Snapshot); ok {
				snapshots[i] = snapshot
			}
		}
	}
	return snapshots, perName
}
