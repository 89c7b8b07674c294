package grid

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rpattn/trackgrid/internal/domain"
)

func names(values ...any) []domain.Record {
	records := make([]domain.Record, len(values))
	for i, value := range values {
		records[i] = domain.Record{"name": domain.FromAny(value)}
	}
	return records
}

func TestCollectFirstOccurrenceOrder(t *testing.T) {
	got := Collect(names("A", "B", "A"), Path("name"))
	if diff := cmp.Diff(domain.DistinctValueSet{"A", "B"}, got); diff != "" {
		t.Fatalf("unexpected distinct values (-want +got):\n%s", diff)
	}
}

func TestCollectEmptyInput(t *testing.T) {
	got := Collect(nil, Path("name"))
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil set, got %#v", got)
	}
}

func TestCollectStringifiesAndSkipsMissing(t *testing.T) {
	records := append(names(1, "1", true, nil, "true", 2.5, "x "), domain.Record{"other": domain.String("y")})
	got := Collect(records, Path("name"))
	want := domain.DistinctValueSet{"1", "true", "2.5", "x "}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected distinct values (-want +got):\n%s", diff)
	}
}

func TestCollectIsCaseAndWhitespaceSensitive(t *testing.T) {
	got := Collect(names("Road", "road", " Road"), Path("name"))
	if len(got) != 3 {
		t.Fatalf("expected exact string equality, got %v", got)
	}
}

func TestCollectIncludeNullAndSkipEmpty(t *testing.T) {
	records := names(nil, "A", "", 0, false, nil)

	withNull := Collect(records, Path("name"), IncludeNull())
	if diff := cmp.Diff(domain.DistinctValueSet{"", "A", "0", "false"}, withNull); diff != "" {
		t.Fatalf("include null (-want +got):\n%s", diff)
	}

	skipped := Collect(records, Path("name"), SkipEmpty())
	if diff := cmp.Diff(domain.DistinctValueSet{"A"}, skipped); diff != "" {
		t.Fatalf("skip empty (-want +got):\n%s", diff)
	}
}

func TestCollectSortBy(t *testing.T) {
	phase := func(name string, order any) domain.Record {
		return domain.Record{"current_work_phase": domain.Nested(domain.Record{
			"name":       domain.String(name),
			"sort_order": domain.FromAny(order),
		})}
	}
	records := []domain.Record{
		phase("Decision", 3),
		phase("Early Engagement", 1),
		phase("Unordered", nil),
		phase("Assessment", 2),
		phase("Decision", 3),
	}
	got := Collect(records, Path("current_work_phase.name"), SortBy("current_work_phase.sort_order"))
	want := domain.DistinctValueSet{"Early Engagement", "Assessment", "Decision", "Unordered"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sorted options (-want +got):\n%s", diff)
	}
	if first, _ := records[0].Lookup(domain.ParseFieldPath("current_work_phase.name")).AsString(); first != "Decision" {
		t.Fatalf("sorting must not reorder the input, first record is %q", first)
	}
}

func TestCollectCompositeTemplate(t *testing.T) {
	records := []domain.Record{{"type": domain.String("Road"), "sub_type": domain.String("Highway")}}
	got := Collect(records, TypeSubtype("type", "sub_type"))
	if diff := cmp.Diff(domain.DistinctValueSet{"Road( Highway )"}, got); diff != "" {
		t.Fatalf("composite options (-want +got):\n%s", diff)
	}
}

func TestSortRecordsDescendingKeepsMissingLast(t *testing.T) {
	records := names("b", nil, "c", "a")
	sorted := SortRecords(records, domain.FieldPath{"name"}, true)
	var got []string
	for _, rec := range sorted {
		got = append(got, rec.Get("name").TextOrEmpty())
	}
	if diff := cmp.Diff([]string{"c", "b", "a", ""}, got); diff != "" {
		t.Fatalf("descending order (-want +got):\n%s", diff)
	}
}
