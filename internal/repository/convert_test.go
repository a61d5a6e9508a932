package repository

import (
	"reflect"
	"testing"
	"time"
)

func TestAsStringSlicePromotesScalars(t *testing.T) {
	if got := asStringSlice("solo"); !reflect.DeepEqual(got, []string{"solo"}) {
		t.Errorf("scalar: got %v", got)
	}
	if got := asStringSlice([]any{"a", "b"}); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("[]any: got %v", got)
	}
	if got := asStringSlice(nil); got != nil {
		t.Errorf("nil: got %v", got)
	}
	if got := asStringSlice(""); got != nil {
		t.Errorf("empty string should stay nil, got %v", got)
	}
}

func TestAsTimeShapes(t *testing.T) {
	want := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	if got := asTime(want); !got.Equal(want) {
		t.Errorf("native: got %v", got)
	}
	if got := asTime(want.UnixMicro()); !got.Equal(want) {
		t.Errorf("micros: got %v", got)
	}
	if got := asTime("2026-08-26T12:00:00Z"); !got.Equal(want) {
		t.Errorf("rfc3339: got %v", got)
	}
	if got := asTime("garbage"); !got.IsZero() {
		t.Errorf("garbage should be zero, got %v", got)
	}
}

func TestAsDate(t *testing.T) {
	if got := asDate(time.Date(2026, 8, 26, 23, 59, 0, 0, time.UTC)); got != "2026-08-26" {
		t.Errorf("time.Time: got %q", got)
	}
	if got := asDate("2026-08-26 00:00:00"); got != "2026-08-26" {
		t.Errorf("string: got %q", got)
	}
	if got := asDate(nil); got != "" {
		t.Errorf("nil: got %q", got)
	}
}

func TestComponentFromNode(t *testing.T) {
	comp := componentFromValue(map[string]any{
		"id":         "repo:main:comp-a",
		"name":       "A",
		"kind":       "service",
		"status":     "active",
		"depends_on": []any{"comp-b"},
	})
	if comp == nil {
		t.Fatal("componentFromValue returned nil")
	}
	if comp.ID != "comp-a" {
		t.Errorf("logical id not stripped: %q", comp.ID)
	}
	if comp.Status != "active" || comp.Kind != "service" {
		t.Errorf("fields lost: %+v", comp)
	}
	if !reflect.DeepEqual(comp.DependsOn, []string{"comp-b"}) {
		t.Errorf("depends_on: %v", comp.DependsOn)
	}
}

func TestFileFromValueDecodesMetadata(t *testing.T) {
	file := fileFromValue(map[string]any{
		"id":       "file-1",
		"name":     "main.go",
		"metadata": `{"branch":"main","mime_type":"text/x-go","metrics":{"loc":120}}`,
	})
	if file == nil {
		t.Fatal("fileFromValue returned nil")
	}
	if file.Metadata.Branch != "main" {
		t.Errorf("metadata branch: %q", file.Metadata.Branch)
	}
	if file.Metadata.Metrics["loc"] != 120 {
		t.Errorf("metadata metrics: %v", file.Metadata.Metrics)
	}
}

func TestAppendUnique(t *testing.T) {
	got := appendUnique([]string{"a", "b"}, []string{"b", "c", "", "a"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("appendUnique = %v", got)
	}
	if got := appendUnique(nil, []string{"x"}); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("nil base: %v", got)
	}
}
