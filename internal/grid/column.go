package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rpattn/trackgrid/internal/domain"
)

// ColumnDescriptor is the declarative column binding consumed by renderers:
// accessor, label, filter behavior and the option list derived from the
// current record collection.
type ColumnDescriptor struct {
	Key       string
	Label     string
	Accessor  Accessor
	Variant   domain.FilterVariant
	Options   domain.DistinctValueSet
	Hidden    bool
	Selection domain.FilterSelection
	Search    string
}

// WithFilter returns a copy bound to a user filter.
func (c ColumnDescriptor) WithFilter(filter domain.ColumnFilter) ColumnDescriptor {
	c.Selection = filter.Selection()
	c.Search = filter.Text
	return c
}

// WithSelection returns a copy bound to selection.
func (c ColumnDescriptor) WithSelection(selection domain.FilterSelection) ColumnDescriptor {
	c.Selection = selection
	return c
}

// Filtered reports whether the column currently restricts rows.
func (c ColumnDescriptor) Filtered() bool {
	switch c.Variant {
	case domain.FilterMultiSelect:
		return !c.Selection.IsEmpty() && c.Selection.Size() <= c.Options.Len()
	case domain.FilterSelect, domain.FilterCheckbox:
		return !c.Selection.IsEmpty()
	case domain.FilterSearch:
		return strings.TrimSpace(c.Search) != ""
	}
	return false
}

// Matches evaluates the column's predicate for row.
func (c ColumnDescriptor) Matches(row domain.Record) bool {
	if c.Accessor == nil {
		return true
	}
	switch c.Variant {
	case domain.FilterMultiSelect:
		return Matches(row, c.Accessor, c.Selection, c.Options.Len())
	case domain.FilterSelect:
		return MatchesSelect(row, c.Accessor, c.Selection)
	case domain.FilterCheckbox:
		return MatchesCheckbox(row, c.Accessor, c.Selection)
	case domain.FilterSearch:
		return MatchesSearch(row, c.Accessor, c.Search)
	}
	return true
}

// Value resolves the column for row.
func (c ColumnDescriptor) Value(row domain.Record) domain.Value {
	if c.Accessor == nil {
		return domain.Absent()
	}
	return c.Accessor.Resolve(row)
}

// Columns is an ordered descriptor set.
type Columns []ColumnDescriptor

// Find returns the descriptor with key.
func (cs Columns) Find(key string) (ColumnDescriptor, bool) {
	for _, column := range cs {
		if column.Key == key {
			return column, true
		}
	}
	return ColumnDescriptor{}, false
}

// Visible drops hidden columns.
func (cs Columns) Visible() Columns {
	out := make(Columns, 0, len(cs))
	for _, column := range cs {
		if !column.Hidden {
			out = append(out, column)
		}
	}
	return out
}

// WithFilters binds user filters by column key. Unknown keys are ignored and
// columns without an entry are reset to unfiltered.
func (cs Columns) WithFilters(filters map[string]domain.ColumnFilter) Columns {
	out := make(Columns, len(cs))
	for i, column := range cs {
		out[i] = column.WithFilter(filters[column.Key])
	}
	return out
}

// Build derives descriptors for fields over records. Descriptors are always
// rebuilt from scratch; nothing is carried over from earlier builds.
func Build(fields []domain.FieldSpec, records []domain.Record) (Columns, error) {
	columns := make(Columns, 0, len(fields))
	for _, spec := range fields {
		if !spec.Filter.Valid() {
			return nil, fmt.Errorf("field %s: unknown filter variant %q", spec.Key, spec.Filter)
		}
		if spec.Expand != nil {
			columns = append(columns, expandColumns(spec, records)...)
			continue
		}
		accessor, err := AccessorFor(spec)
		if err != nil {
			return nil, err
		}
		key := spec.Key
		if key == "" {
			key = accessor.ID()
		}
		variant := spec.Filter
		if variant == "" {
			variant = domain.FilterNone
		}
		column := ColumnDescriptor{
			Key:      key,
			Label:    labelFor(spec, key),
			Accessor: accessor,
			Variant:  variant,
			Hidden:   spec.Hidden,
			Options:  domain.DistinctValueSet{},
		}
		if variant.HasOptions() {
			column.Options = Collect(records, accessor, collectOptionsFor(spec)...)
		}
		columns = append(columns, column)
	}
	return columns, nil
}

func collectOptionsFor(spec domain.FieldSpec) []CollectOption {
	var opts []CollectOption
	if spec.IncludeNull {
		opts = append(opts, IncludeNull())
	}
	if spec.SkipEmpty {
		opts = append(opts, SkipEmpty())
	}
	if strings.TrimSpace(spec.SortBy) != "" {
		opts = append(opts, SortBy(spec.SortBy))
	}
	return opts
}

func labelFor(spec domain.FieldSpec, key string) string {
	if strings.TrimSpace(spec.Label) != "" {
		return spec.Label
	}
	return key
}

// expandColumns emits one unfiltered column per element of the first
// record's list field.
func expandColumns(spec domain.FieldSpec, records []domain.Record) Columns {
	if len(records) == 0 {
		return nil
	}
	listPath := domain.ParseFieldPath(spec.Expand.List)
	items, ok := records[0].Lookup(listPath).AsList()
	if !ok {
		return nil
	}
	columns := make(Columns, 0, len(items))
	for i, item := range items {
		index := strconv.Itoa(i)
		label := index
		if rec, isRecord := item.AsRecord(); isRecord && spec.Expand.Label != "" {
			if text, present := rec.Lookup(domain.ParseFieldPath(spec.Expand.Label)).Text(); present {
				label = text
			}
		}
		path := append(append(domain.FieldPath{}, listPath...), index)
		if spec.Expand.Value != "" {
			path = append(path, domain.ParseFieldPath(spec.Expand.Value)...)
		}
		key := spec.Key
		if key == "" {
			key = listPath.String()
		}
		columns = append(columns, ColumnDescriptor{
			Key:      key + "." + index,
			Label:    label,
			Accessor: PathAccessor{Path: path},
			Variant:  domain.FilterNone,
			Hidden:   spec.Hidden,
			Options:  domain.DistinctValueSet{},
		})
	}
	return columns
}

// ApplyFilters keeps, in input order, the rows every column matches.
func ApplyFilters(rows []domain.Record, columns Columns) []domain.Record {
	active := make(Columns, 0, len(columns))
	for _, column := range columns {
		if column.Filtered() {
			active = append(active, column)
		}
	}
	out := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		keep := true
		for _, column := range active {
			if !column.Matches(row) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}
