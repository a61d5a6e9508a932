package types

import (
	"errors"
	"testing"
)

func TestComponentValidate(t *testing.T) {
	ok := &Component{ID: "comp-a", Name: "A", Status: StatusActive}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid component rejected: %v", err)
	}
	for name, comp := range map[string]*Component{
		"missing id":   {Name: "A"},
		"missing name": {ID: "comp-a"},
		"bad status":   {ID: "comp-a", Name: "A", Status: "retired"},
	} {
		if err := comp.Validate(); err == nil {
			t.Errorf("%s: Validate succeeded, want error", name)
		}
	}
}

func TestDecisionValidateDate(t *testing.T) {
	dec := &Decision{ID: "dec-1", Name: "Use graph storage", Date: "2026-08-26"}
	if err := dec.Validate(); err != nil {
		t.Fatalf("valid decision rejected: %v", err)
	}
	dec.Date = "26/08/2026"
	if err := dec.Validate(); err == nil {
		t.Error("malformed date accepted")
	}
	dec.Date = ""
	if err := dec.Validate(); err != nil {
		t.Errorf("empty date rejected: %v", err)
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []ComponentStatus{StatusActive, StatusDeprecated, StatusPlanned} {
		if !s.IsValid() {
			t.Errorf("%s reported invalid", s)
		}
	}
	if ComponentStatus("retired").IsValid() {
		t.Error("unknown status reported valid")
	}
}

func TestErrorCodes(t *testing.T) {
	err := NewError(CodeNotFound, "component %q not found", "c1")
	if CodeOf(err) != CodeNotFound {
		t.Errorf("CodeOf = %s, want NOT_FOUND", CodeOf(err))
	}
	wrapped := errors.Join(errors.New("outer"), err)
	if !HasCode(wrapped, CodeNotFound) {
		t.Error("HasCode failed to see through wrapping")
	}
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Error("plain errors should classify as INTERNAL_ERROR")
	}
}

func TestQueryErrorTruncatesSnippet(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	qe := QueryError(string(long), errors.New("boom"))
	if len(qe.Query) > 210 {
		t.Errorf("query snippet not truncated: %d bytes", len(qe.Query))
	}
}
