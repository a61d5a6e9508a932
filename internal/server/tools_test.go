package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

func textOf(t *testing.T, c mcp.Content) string {
	t.Helper()
	tc, ok := c.(*mcp.TextContent)
	if !ok {
		t.Fatalf("content block is %T, want *mcp.TextContent", c)
	}
	return tc.Text
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"name":    "auth",
		"limit":   float64(7),
		"confirm": true,
		"tags":    []any{"a", "b"},
		"single":  "only",
		"data":    map[string]any{"k": "v"},
	}
	if got := getString(args, "name"); got != "auth" {
		t.Errorf("getString = %q", got)
	}
	if got := getString(args, "missing"); got != "" {
		t.Errorf("getString missing = %q", got)
	}
	if got := getInt(args, "limit", 5); got != 7 {
		t.Errorf("getInt = %d", got)
	}
	if got := getInt(args, "missing", 5); got != 5 {
		t.Errorf("getInt default = %d", got)
	}
	if !getBool(args, "confirm") {
		t.Error("getBool lost true")
	}
	if got := getStringSlice(args, "tags"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("getStringSlice = %v", got)
	}
	if got := getStringSlice(args, "single"); !reflect.DeepEqual(got, []string{"only"}) {
		t.Errorf("scalar promotion = %v", got)
	}
	if got := getMap(args, "data"); got["k"] != "v" {
		t.Errorf("getMap = %v", got)
	}
}

func TestDecodeInto(t *testing.T) {
	var comp types.Component
	err := decodeInto(map[string]any{
		"id":         "comp-a",
		"name":       "A",
		"depends_on": []any{"comp-b"},
	}, &comp)
	if err != nil {
		t.Fatalf("decodeInto: %v", err)
	}
	if comp.ID != "comp-a" || len(comp.DependsOn) != 1 {
		t.Errorf("decoded: %+v", comp)
	}

	err = decodeInto(map[string]any{"depends_on": "not-a-list"}, &comp)
	if !types.HasCode(err, types.CodeInvalidArgs) {
		t.Errorf("type mismatch: got %v, want INVALID_ARGS", err)
	}
}

func TestJSONResultShape(t *testing.T) {
	res := jsonResult(map[string]any{"success": true, "count": 3})
	if res.IsError {
		t.Error("jsonResult marked isError")
	}
	if len(res.Content) != 1 {
		t.Fatalf("content blocks = %d", len(res.Content))
	}
	text := textOf(t, res.Content[0])
	var decoded map[string]any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if decoded["success"] != true || decoded["count"] != float64(3) {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestFailurePayload(t *testing.T) {
	s := &Server{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions: NewSessionRegistry(),
	}
	res := s.failure(s.logger, types.NewError(types.CodeNotFound, "component %q not found", "c1"))
	if !res.IsError {
		t.Error("failure result not marked isError")
	}
	var payload struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		ErrorID string `json:"errorId"`
	}
	if err := json.Unmarshal([]byte(textOf(t, res.Content[0])), &payload); err != nil {
		t.Fatalf("failure payload is not JSON: %v", err)
	}
	if payload.Success {
		t.Error("success should be false")
	}
	if payload.Error == "" || payload.ErrorID == "" {
		t.Errorf("payload missing fields: %+v", payload)
	}
}
