package repository

import (
	"strings"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// entityLabels are the node labels that carry three-segment graph IDs and a
// PART_OF edge to their Repository.
var entityLabels = []string{"Component", "Decision", "Rule", "File", "Tag", "Context", "Metadata"}

// taggableLabels are the labels that may carry TAGGED_WITH edges.
var taggableLabels = []string{"Component", "Decision", "Rule", "File", "Context"}

// sanitizeIdentifier strips everything outside [A-Za-z0-9_] from a label or
// relationship name that must be embedded in query text. It returns "" when
// nothing survives; callers must treat that as "refuse the call" rather than
// emit a query with an empty identifier.
func sanitizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// entityLabel maps a tool-facing entity type ("component", "decision", ...)
// to its node label, or "" for unknown types.
func entityLabel(entityType string) string {
	switch strings.ToLower(entityType) {
	case "component":
		return "Component"
	case "decision":
		return "Decision"
	case "rule":
		return "Rule"
	case "file":
		return "File"
	case "tag":
		return "Tag"
	case "context":
		return "Context"
	case "metadata":
		return "Metadata"
	}
	return ""
}

// relTypeFilter joins sanitized relationship names with "|" for embedding in
// a pattern. Empty input yields the default. A fully-sanitized-away input
// yields "" (refuse).
func relTypeFilter(relTypes []string, def string) string {
	if len(relTypes) == 0 {
		return def
	}
	parts := make([]string, 0, len(relTypes))
	for _, t := range relTypes {
		if s := sanitizeIdentifier(t); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "|")
}

// Direction selects arrow placement for traversal queries.
type Direction string

const (
	DirectionOutgoing Direction = "OUTGOING"
	DirectionIncoming Direction = "INCOMING"
	DirectionBoth     Direction = "BOTH"
)

// arrows returns the left and right pattern fragments for the direction.
func (d Direction) arrows() (left, right string) {
	switch d {
	case DirectionIncoming:
		return "<-", "-"
	case DirectionOutgoing:
		return "-", "->"
	default:
		return "-", "-"
	}
}

// logicalID strips the repo:branch prefix from a graph ID, tolerating IDs
// that were never prefixed (File and Tag nodes).
func logicalID(graphID string) string {
	if _, _, id, err := types.ParseGraphID(graphID); err == nil {
		return id
	}
	return graphID
}
