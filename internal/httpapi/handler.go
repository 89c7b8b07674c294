package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rpattn/trackgrid/internal/domain"
	"github.com/rpattn/trackgrid/internal/export"
	"github.com/rpattn/trackgrid/internal/grid"
	"github.com/rpattn/trackgrid/internal/middleware"
	"github.com/rpattn/trackgrid/internal/screen"
	"github.com/rpattn/trackgrid/internal/stateloader"
)

// Handler serves screen snapshots, filtered rows and exports.
type Handler struct {
	registry *screen.Registry
	logger   *zap.Logger
	now      func() time.Time
}

func NewHandler(registry *screen.Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{registry: registry, logger: logger, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/snapshots", h.BatchSnapshots)
	r.Route("/screens", func(r chi.Router) {
		r.Get("/", h.ListScreens)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.GetScreen)
			r.Post("/fetch", h.FetchScreen)
			r.Post("/rows", h.QueryRows)
			r.Post("/export", h.ExportRows)
		})
	})
}

type ColumnView struct {
	Key     string               `json:"key"`
	Label   string               `json:"label"`
	Filter  domain.FilterVariant `json:"filter,omitempty"`
	Options []string             `json:"options,omitempty"`
	Hidden  bool                 `json:"hidden,omitempty"`
}

type SnapshotView struct {
	Name      string              `json:"name"`
	Title     string              `json:"title,omitempty"`
	Status    domain.ResultStatus `json:"status"`
	Message   string              `json:"message,omitempty"`
	Attempt   int                 `json:"attempt"`
	RowCount  int                 `json:"rowCount"`
	UpdatedAt *time.Time          `json:"updatedAt,omitempty"`
	Columns   []ColumnView        `json:"columns"`
}

type ScreenSummary struct {
	Name     string              `json:"name"`
	Title    string              `json:"title,omitempty"`
	Status   domain.ResultStatus `json:"status"`
	RowCount int                 `json:"rowCount"`
}

type RowsRequest struct {
	Filters map[string]domain.ColumnFilter `json:"filters,omitempty"`
}

type RowsResponse struct {
	Status  domain.ResultStatus `json:"status"`
	Columns []ColumnView        `json:"columns"`
	Rows    []map[string]any    `json:"rows"`
	Total   int                 `json:"total"`
	Count   int                 `json:"count"`
}

type BatchResponse struct {
	Snapshots []SnapshotView    `json:"snapshots"`
	Errors    map[string]string `json:"errors,omitempty"`
}

func (h *Handler) ListScreens(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	summaries := make([]ScreenSummary, 0, len(names))
	for _, name := range names {
		controller, err := h.registry.Get(name)
		if err != nil {
			writeError(w, err)
			return
		}
		state := controller.State()
		summaries = append(summaries, ScreenSummary{
			Name:     name,
			Title:    controller.Definition().Title,
			Status:   state.Status,
			RowCount: state.Collection.Len(),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) GetScreen(w http.ResponseWriter, r *http.Request) {
	controller, err := h.registry.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	snapshot, err := controller.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotView(snapshot))
}

// FetchScreen always answers 200 once the screen exists; fetch failures are
// reported through the snapshot status. The fetch outlives a disconnected
// caller since its result is shared by every reader of the screen; the API
// client timeout bounds it.
func (h *Handler) FetchScreen(w http.ResponseWriter, r *http.Request) {
	controller, err := h.registry.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	var params domain.FetchParams
	if err := decodeOptional(r.Body, &params); err != nil {
		http.Error(w, fmt.Sprintf("invalid fetch payload: %v", err), http.StatusBadRequest)
		return
	}
	snapshot, err := controller.Submit(context.WithoutCancel(r.Context()), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotView(snapshot))
}

func (h *Handler) QueryRows(w http.ResponseWriter, r *http.Request) {
	_, set, ok := h.filteredRows(w, r)
	if !ok {
		return
	}
	visible := set.Columns.Visible()
	out := make([]map[string]any, len(set.Rows))
	for i, row := range set.Rows {
		out[i] = rowView(visible, row)
	}
	writeJSON(w, http.StatusOK, RowsResponse{
		Status:  set.State.Status,
		Columns: columnViews(visible),
		Rows:    out,
		Total:   set.State.Collection.Len(),
		Count:   len(set.Rows),
	})
}

func (h *Handler) ExportRows(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	controller, set, ok := h.filteredRows(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, set.Columns, set.Rows); err != nil {
		h.logger.Error("export failed", zap.String("screen", controller.Definition().Name), zap.Error(err))
		http.Error(w, "failed to render export", http.StatusInternalServerError)
		return
	}
	def := controller.Definition()
	prefix := def.ExportPrefix
	if prefix == "" {
		prefix = def.Name
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(prefix, format, h.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// BatchSnapshots resolves ?names=a,b through the request's snapshot loader.
// Without names every screen is returned.
func (h *Handler) BatchSnapshots(w http.ResponseWriter, r *http.Request) {
	var names []string
	for _, part := range strings.Split(r.URL.Query().Get("names"), ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		names = h.registry.Names()
	}

	loader := middleware.SnapshotLoaderFromContext(r.Context())
	if loader == nil {
		loader = stateloader.NewSnapshotLoader(h.registry)
	}
	snapshots, errs := loader.LoadMany(r.Context(), names)

	resp := BatchResponse{Snapshots: make([]SnapshotView, 0, len(names))}
	for i, name := range names {
		if errs[i] != nil {
			if resp.Errors == nil {
				resp.Errors = map[string]string{}
			}
			resp.Errors[name] = errs[i].Error()
			continue
		}
		resp.Snapshots = append(resp.Snapshots, snapshotView(snapshots[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) filteredRows(w http.ResponseWriter, r *http.Request) (*screen.Controller, screen.RowSet, bool) {
	controller, err := h.registry.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return nil, screen.RowSet{}, false
	}
	var req RowsRequest
	if err := decodeOptional(r.Body, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid rows payload: %v", err), http.StatusBadRequest)
		return nil, screen.RowSet{}, false
	}
	set, err := controller.Rows(req.Filters)
	if err != nil {
		writeError(w, err)
		return nil, screen.RowSet{}, false
	}
	return controller, set, true
}

// decodeOptional accepts an empty body as the zero value.
func decodeOptional(body io.Reader, target any) error {
	if body == nil {
		return nil
	}
	err := json.NewDecoder(body).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func snapshotView(snapshot screen.Snapshot) SnapshotView {
	view := SnapshotView{
		Name:     snapshot.Name,
		Title:    snapshot.Title,
		Status:   snapshot.State.Status,
		Message:  snapshot.State.Message,
		Attempt:  snapshot.State.Attempt,
		RowCount: snapshot.State.Collection.Len(),
		Columns:  columnViews(snapshot.Columns),
	}
	if !snapshot.State.UpdatedAt.IsZero() {
		updated := snapshot.State.UpdatedAt
		view.UpdatedAt = &updated
	}
	return view
}

func columnViews(columns grid.Columns) []ColumnView {
	views := make([]ColumnView, len(columns))
	for i, column := range columns {
		views[i] = ColumnView{
			Key:     column.Key,
			Label:   column.Label,
			Filter:  column.Variant,
			Options: column.Options,
			Hidden:  column.Hidden,
		}
	}
	return views
}

func rowView(columns grid.Columns, row domain.Record) map[string]any {
	out := make(map[string]any, len(columns))
	for _, column := range columns {
		out[column.Key] = column.Value(row)
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, screen.ErrUnknownScreen):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, export.ErrUnsupportedFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
