package repository

import (
	"encoding/json"
	"fmt"
	"time"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// The engine is loose about value shapes at the row boundary: timestamps
// arrive as native time.Time, microsecond integers, or strings depending on
// the code path, and list columns collapse to a scalar when they hold one
// element. The helpers below normalize everything at the edge so the rest of
// the layer never type-switches.

// nodeProps extracts the property map from a returned node value.
func nodeProps(v any) map[string]any {
	switch n := v.(type) {
	case kuzu.Node:
		return n.Properties
	case *kuzu.Node:
		return n.Properties
	case map[string]any:
		return n
	}
	return nil
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

// asStringSlice promotes scalars to one-element slices and flattens []any.
func asStringSlice(v any) []string {
	switch s := v.(type) {
	case nil:
		return nil
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			out = append(out, asString(e))
		}
		return out
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	default:
		return []string{asString(s)}
	}
}

// asTime normalizes engine timestamps: native, epoch microseconds, or text.
func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case int64:
		return time.UnixMicro(t).UTC()
	case float64:
		return time.UnixMicro(int64(t)).UTC()
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// asDate normalizes dates to YYYY-MM-DD.
func asDate(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		return d.Format("2006-01-02")
	case string:
		if len(d) >= 10 {
			return d[:10]
		}
		return d
	}
	if t := asTime(v); !t.IsZero() {
		return t.Format("2006-01-02")
	}
	return ""
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	}
	return 0
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func repositoryFromValue(v any) *types.Repository {
	props := nodeProps(v)
	if props == nil {
		return nil
	}
	return &types.Repository{
		ID:        asString(props["id"]),
		Name:      asString(props["name"]),
		Branch:    asString(props["branch"]),
		CreatedAt: asTime(props["created_at"]),
		UpdatedAt: asTime(props["updated_at"]),
	}
}

// componentFromValue builds a Component; depends_on is populated from the
// materialized field when present, the edge set being authoritative is the
// caller's concern.
func componentFromValue(v any) *types.Component {
	props := nodeProps(v)
	if props == nil {
		return nil
	}
	return &types.Component{
		ID:        logicalID(asString(props["id"])),
		Name:      asString(props["name"]),
		Kind:      asString(props["kind"]),
		Status:    types.ComponentStatus(asString(props["status"])),
		DependsOn: asStringSlice(props["depends_on"]),
		CreatedAt: asTime(props["created_at"]),
		UpdatedAt: asTime(props["updated_at"]),
	}
}

func metadataFromValue(v any) *types.Metadata {
	props := nodeProps(v)
	if props == nil {
		return nil
	}
	m := &types.Metadata{
		ID:        logicalID(asString(props["id"])),
		Name:      asString(props["name"]),
		CreatedAt: asTime(props["created_at"]),
		UpdatedAt: asTime(props["updated_at"]),
	}
	if raw := asString(props["content"]); raw != "" {
		var content map[string]any
		if err := json.Unmarshal([]byte(raw), &content); err == nil {
			m.Content = content
		}
	}
	return m
}

func contextFromValue(v any) *types.Context {
	props := nodeProps(v)
	if props == nil {
		return nil
	}
	return &types.Context{
		ID:           logicalID(asString(props["id"])),
		Name:         asString(props["name"]),
		ISODate:      asDate(props["iso_date"]),
		Agent:        asString(props["agent"]),
		Summary:      asString(props["summary"]),
		RelatedIssue: asString(props["related_issue"]),
		Decisions:    asStringSlice(props["decisions"]),
		Observations: asStringSlice(props["observations"]),
		CreatedAt:    asTime(props["created_at"]),
		UpdatedAt:    asTime(props["updated_at"]),
	}
}

func decisionFromValue(v any) *types.Decision {
	props := nodeProps(v)
	if props == nil {
		return nil
	}
	return &types.Decision{
		ID:        logicalID(asString(props["id"])),
		Name:      asString(props["name"]),
		Context:   asString(props["context"]),
		Date:      asDate(props["date"]),
		CreatedAt: asTime(props["created_at"]),
		UpdatedAt: asTime(props["updated_at"]),
	}
}

func ruleFromValue(v any) *types.Rule {
	props := nodeProps(v)
	if props == nil {
		return nil
	}
	return &types.Rule{
		ID:        logicalID(asString(props["id"])),
		Name:      asString(props["name"]),
		Created:   asDate(props["created"]),
		Triggers:  asStringSlice(props["triggers"]),
		Content:   asString(props["content"]),
		Status:    asString(props["status"]),
		CreatedAt: asTime(props["created_at"]),
		UpdatedAt: asTime(props["updated_at"]),
	}
}

func fileFromValue(v any) *types.File {
	props := nodeProps(v)
	if props == nil {
		return nil
	}
	f := &types.File{
		ID:        asString(props["id"]),
		Name:      asString(props["name"]),
		Path:      asString(props["path"]),
		MimeType:  asString(props["mime_type"]),
		Size:      asInt64(props["size"]),
		CreatedAt: asTime(props["created_at"]),
		UpdatedAt: asTime(props["updated_at"]),
	}
	if raw := asString(props["metadata"]); raw != "" {
		_ = json.Unmarshal([]byte(raw), &f.Metadata)
	}
	return f
}

func tagFromValue(v any) *types.Tag {
	props := nodeProps(v)
	if props == nil {
		return nil
	}
	return &types.Tag{
		ID:          asString(props["id"]),
		Name:        asString(props["name"]),
		Category:    asString(props["category"]),
		Description: asString(props["description"]),
		Color:       asString(props["color"]),
		CreatedAt:   asTime(props["created_at"]),
		UpdatedAt:   asTime(props["updated_at"]),
	}
}
