package domain

// DistinctValueSet is a deduplicated, first-seen ordered list of
// stringified field values.
type DistinctValueSet []string

func (s DistinctValueSet) Len() int { return len(s) }

func (s DistinctValueSet) Contains(value string) bool {
	for _, item := range s {
		if item == value {
			return true
		}
	}
	return false
}

// FilterSelection is the set of values a user has selected for one column.
type FilterSelection struct {
	values []string
	index  map[string]struct{}
}

// NewFilterSelection builds a selection, dropping duplicate values.
func NewFilterSelection(values ...string) FilterSelection {
	selection := FilterSelection{index: make(map[string]struct{}, len(values))}
	for _, value := range values {
		if _, seen := selection.index[value]; seen {
			continue
		}
		selection.index[value] = struct{}{}
		selection.values = append(selection.values, value)
	}
	return selection
}

func (s FilterSelection) Size() int { return len(s.values) }

func (s FilterSelection) IsEmpty() bool { return len(s.values) == 0 }

func (s FilterSelection) Contains(value string) bool {
	_, ok := s.index[value]
	return ok
}

// Values returns the selected values in the order they were given.
func (s FilterSelection) Values() []string {
	return append([]string(nil), s.values...)
}

// ColumnFilter is the user supplied filter input for one column.
type ColumnFilter struct {
	Values []string `json:"values,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Selection converts the filter input into a FilterSelection.
func (f ColumnFilter) Selection() FilterSelection {
	return NewFilterSelection(f.Values...)
}

// FilterVariant enumerates how a column is filtered.
type FilterVariant string

const (
	FilterNone        FilterVariant = "none"
	FilterSelect      FilterVariant = "select"
	FilterMultiSelect FilterVariant = "multi-select"
	FilterCheckbox    FilterVariant = "checkbox"
	FilterSearch      FilterVariant = "search"
)

// Valid reports whether the variant is known. The empty variant means none.
func (v FilterVariant) Valid() bool {
	switch v {
	case "", FilterNone, FilterSelect, FilterMultiSelect, FilterCheckbox, FilterSearch:
		return true
	}
	return false
}

// HasOptions reports whether the variant is driven by a distinct value list.
func (v FilterVariant) HasOptions() bool {
	return v == FilterSelect || v == FilterMultiSelect
}
