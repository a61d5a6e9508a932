package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuzumem/kuzumem-mcp/internal/config"
	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := memory.NewService(database.NewManager(database.Options{Logger: logger}), logger)
	return New(svc, &config.Config{}, logger)
}

func TestRegisterToolsCoversTheSurface(t *testing.T) {
	s := newTestServer(t)
	want := []string{
		"memory-bank", "entity", "context", "query", "associate",
		"analyze", "detect", "bulk-import", "search", "delete", "introspect",
	}
	require.Len(t, s.handlers, len(want))
	for _, name := range want {
		assert.Contains(t, s.handlers, name, "tool %s not registered", name)
	}
}

func TestToolSchemasAreValidJSON(t *testing.T) {
	s := newTestServer(t)
	for name, tool := range s.tools {
		raw, ok := tool.InputSchema.(json.RawMessage)
		require.True(t, ok, "schema for %s is not raw JSON", name)
		var schema map[string]any
		require.NoError(t, json.Unmarshal(raw, &schema), "schema for %s", name)
		assert.Equal(t, "object", schema["type"], "schema for %s", name)
		props, ok := schema["properties"].(map[string]any)
		require.True(t, ok, "schema for %s has no properties", name)
		if name != "memory-bank" {
			assert.Contains(t, props, "repository", "schema for %s", name)
		}
	}
}
