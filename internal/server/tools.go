package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kuzumem/kuzumem-mcp/internal/telemetry"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// call carries the resolved scope and per-call plumbing into a handler.
type call struct {
	root      string
	repo      string
	branch    string
	sessionID string
	requestID string
	logger    *slog.Logger
	req       *mcp.CallToolRequest
}

// handle wraps a tool body with argument parsing, scope resolution, result
// wrapping, and telemetry. needsRoot is false only for memory-bank, which
// resolves its own root during init.
func (s *Server) handle(tool string, needsRoot bool, fn func(ctx context.Context, c *call, args map[string]any) (any, error)) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()
		sessionID := ""
		if req.Session != nil {
			sessionID = req.Session.ID()
		}
		logger := s.logger.With("tool", tool, "requestId", requestID, "sessionId", sessionID)
		s.sessions.Touch(sessionID)

		args, err := parseArgs(req)
		if err != nil {
			err = types.NewError(types.CodeInvalidArgs, "%s", err)
			telemetry.RecordToolCall(ctx, tool, err, string(types.CodeOf(err)))
			return s.failure(logger, err), nil
		}
		c := &call{
			repo:      getString(args, "repository"),
			branch:    getString(args, "branch"),
			sessionID: sessionID,
			requestID: requestID,
			logger:    logger,
			req:       req,
		}
		if c.branch == "" {
			c.branch = "main"
		}
		if needsRoot {
			c.root = s.resolveRoot(sessionID, c.repo, c.branch)
			if c.root == "" {
				err := types.NewError(types.CodePreconditionRequired,
					"no initialized memory bank for %s:%s; call memory-bank init first", c.repo, c.branch)
				telemetry.RecordToolCall(ctx, tool, err, string(types.CodeOf(err)))
				return s.failure(logger, err), nil
			}
		}

		out, err := fn(ctx, c, args)
		telemetry.RecordToolCall(ctx, tool, err, string(types.CodeOf(err)))
		if err != nil {
			return s.failure(logger, err), nil
		}
		return jsonResult(out), nil
	}
}

// resolveRoot looks the project root up from the session, the (repo, branch)
// registry, then the configured default.
func (s *Server) resolveRoot(sessionID, repo, branch string) string {
	if root := s.sessions.RootFor(sessionID, repo, branch); root != "" {
		return root
	}
	return s.cfg.ClientProjectRoot
}

// failure serializes an error as {success:false, error, errorId} and marks
// the result isError. The errorId correlates the wire response with logs.
func (s *Server) failure(logger *slog.Logger, err error) *mcp.CallToolResult {
	errorID := uuid.NewString()
	logger.Error("tool call failed", "error", err, "errorId", errorID, "code", types.CodeOf(err))
	payload, _ := json.Marshal(map[string]any{
		"success": false,
		"error":   err.Error(),
		"errorId": errorID,
	})
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		IsError: true,
	}
}

// jsonResult wraps a value as a single JSON text block.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		b = []byte(fmt.Sprintf(`{"success":false,"error":"encode result: %s"}`, err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

// progress builds the callback long-running handlers stream through. Without
// a client progress token it only logs.
func (c *call) progress(ctx context.Context) func(status, message string, percent float64, isFinal bool) {
	var token any
	if c.req != nil && c.req.Params != nil {
		token = c.req.Params.GetProgressToken()
	}
	return func(status, message string, percent float64, isFinal bool) {
		c.logger.Debug("progress", "status", status, "message", message, "percent", percent, "final", isFinal)
		if token == nil || c.req.Session == nil {
			return
		}
		_ = c.req.Session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
			ProgressToken: token,
			Progress:      percent,
			Total:         100,
			Message:       fmt.Sprintf("%s: %s", status, message),
		})
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

func getString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func getInt(args map[string]any, key string, def int) int {
	v, ok := args[key].(float64) // JSON numbers decode as float64
	if !ok {
		return def
	}
	return int(v)
}

func getBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func getStringSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		if s, ok := args[key].(string); ok && s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getMap(args map[string]any, key string) map[string]any {
	v, _ := args[key].(map[string]any)
	return v
}

// decodeInto round-trips a JSON object into a typed struct.
func decodeInto(data map[string]any, dst any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return types.NewError(types.CodeInvalidArgs, "invalid data: %s", err)
	}
	return nil
}
