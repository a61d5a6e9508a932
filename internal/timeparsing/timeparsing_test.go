package timeparsing

import (
	"testing"
	"time"
)

var anchor = time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)

func TestParseDateEmptyMeansToday(t *testing.T) {
	got, err := ParseDate("", anchor)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got != "2026-08-26" {
		t.Errorf("got %q, want 2026-08-26", got)
	}
}

func TestParseDateISOPassthrough(t *testing.T) {
	got, err := ParseDate("2025-01-15", anchor)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got != "2025-01-15" {
		t.Errorf("got %q", got)
	}
}

func TestParseDateNaturalLanguage(t *testing.T) {
	got, err := ParseDate("yesterday", anchor)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got != "2026-08-25" {
		t.Errorf("yesterday = %q, want 2026-08-25", got)
	}
}

func TestParseDateRejectsGibberish(t *testing.T) {
	if _, err := ParseDate("not a date at all xyzzy", anchor); err == nil {
		t.Error("gibberish accepted")
	}
}
