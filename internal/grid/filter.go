package grid

import (
	"strings"

	"github.com/rpattn/trackgrid/internal/domain"
)

// Matches is the multi-select predicate. An empty selection, or one larger
// than the option domain (the "select all" entry is counted), passes every
// row. Otherwise the row's stringified value must be selected; absent and
// null values never match.
func Matches(row domain.Record, accessor Accessor, selection domain.FilterSelection, fullDomainSize int) bool {
	if selection.IsEmpty() || selection.Size() > fullDomainSize {
		return true
	}
	text, ok := accessor.Resolve(row).Text()
	if !ok {
		return false
	}
	return selection.Contains(text)
}

// MatchesSelect checks equality against the first selected value.
func MatchesSelect(row domain.Record, accessor Accessor, selection domain.FilterSelection) bool {
	if selection.IsEmpty() {
		return true
	}
	text, ok := accessor.Resolve(row).Text()
	if !ok {
		return false
	}
	return text == selection.Values()[0]
}

// MatchesCheckbox compares a boolean field against a "true"/"false"
// selection. A selection holding both values, or neither, passes.
func MatchesCheckbox(row domain.Record, accessor Accessor, selection domain.FilterSelection) bool {
	wantTrue := selection.Contains("true")
	wantFalse := selection.Contains("false")
	if wantTrue == wantFalse {
		return true
	}
	value, ok := accessor.Resolve(row).AsBool()
	if !ok {
		return false
	}
	return value == wantTrue
}

// MatchesSearch is a case-insensitive substring match. Empty text passes.
func MatchesSearch(row domain.Record, accessor Accessor, text string) bool {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return true
	}
	value, ok := accessor.Resolve(row).Text()
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(value), needle)
}
