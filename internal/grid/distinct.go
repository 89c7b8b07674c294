package grid

import (
	"sort"
	"strings"

	"github.com/rpattn/trackgrid/internal/domain"
)

type collectOptions struct {
	includeNull bool
	skipEmpty   bool
	sortBy      domain.FieldPath
}

// CollectOption tunes Collect.
type CollectOption func(*collectOptions)

// IncludeNull makes null values contribute "" to the set.
func IncludeNull() CollectOption {
	return func(o *collectOptions) { o.includeNull = true }
}

// SkipEmpty drops falsy values ("", 0, false) in addition to absent and null.
func SkipEmpty() CollectOption {
	return func(o *collectOptions) { o.skipEmpty = true }
}

// SortBy orders records by the value at path before collecting, so options
// follow that order instead of input order.
func SortBy(path string) CollectOption {
	return func(o *collectOptions) { o.sortBy = domain.ParseFieldPath(path) }
}

// Collect returns the distinct stringified values of accessor over records
// in first-seen order.
func Collect(records []domain.Record, accessor Accessor, opts ...CollectOption) domain.DistinctValueSet {
	options := collectOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if len(records) == 0 || accessor == nil {
		return domain.DistinctValueSet{}
	}
	if !options.sortBy.IsZero() {
		records = SortRecords(records, options.sortBy, false)
	}

	seen := make(map[string]struct{}, len(records))
	result := make(domain.DistinctValueSet, 0, len(records))
	for _, rec := range records {
		value := accessor.Resolve(rec)
		if value.IsAbsent() {
			continue
		}
		if options.skipEmpty && value.Empty() {
			continue
		}
		var text string
		if value.IsNull() {
			if !options.includeNull {
				continue
			}
		} else {
			var ok bool
			text, ok = value.Text()
			if !ok {
				continue
			}
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		result = append(result, text)
	}
	return result
}

// SortRecords returns a stably sorted copy of records ordered by the value at
// path. Numbers sort before text; absent and null values sort last in either
// direction.
func SortRecords(records []domain.Record, path domain.FieldPath, desc bool) []domain.Record {
	sorted := append([]domain.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		left := sorted[i].Lookup(path)
		right := sorted[j].Lookup(path)
		leftMissing, rightMissing := !left.Present(), !right.Present()
		if leftMissing || rightMissing {
			return !leftMissing && rightMissing
		}
		cmp := compareValues(left, right)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return sorted
}

func compareValues(left, right domain.Value) int {
	leftNum, leftIsNum := left.AsNumber()
	rightNum, rightIsNum := right.AsNumber()
	switch {
	case leftIsNum && rightIsNum:
		switch {
		case leftNum < rightNum:
			return -1
		case leftNum > rightNum:
			return 1
		}
		return 0
	case leftIsNum:
		return -1
	case rightIsNum:
		return 1
	}
	return strings.Compare(left.TextOrEmpty(), right.TextOrEmpty())
}
