package source

import (
	"context"
	"fmt"

	"github.com/rpattn/trackgrid/internal/domain"
	"github.com/rpattn/trackgrid/internal/screen"
)

// Router sends file-backed screens to Local and everything else to Remote.
type Router struct {
	Remote screen.Fetcher
	Local  screen.Fetcher
}

func (r Router) Fetch(ctx context.Context, def domain.ScreenDefinition, params domain.FetchParams) (domain.FetchResult, error) {
	target := r.Remote
	if def.Source.Kind == domain.SourceFile {
		target = r.Local
	}
	if target == nil {
		return domain.FetchResult{}, fmt.Errorf("screen %s: no fetcher for %q sources", def.Name, def.Source.Kind)
	}
	return target.Fetch(ctx, def, params)
}
