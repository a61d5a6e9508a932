// Package types defines the entities stored in a project's memory bank.
package types

import (
	"fmt"
	"time"
)

// ComponentStatus tracks the lifecycle of a component node.
type ComponentStatus string

const (
	StatusActive     ComponentStatus = "active"
	StatusDeprecated ComponentStatus = "deprecated"
	StatusPlanned    ComponentStatus = "planned"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s ComponentStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusDeprecated, StatusPlanned:
		return true
	}
	return false
}

// Repository is the root node scoping every other entity. Its node ID is
// "{name}:{branch}", two segments, unlike the three-segment graph IDs of
// the entities below.
type Repository struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Branch    string    `json:"branch"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Metadata is the single free-form blob attached to a (repository, branch).
// Content is structured but schemaless; it round-trips through JSON.
type Metadata struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Content   map[string]any `json:"content,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Context is a daily work log entry. By convention its logical ID is
// "context-YYYY-MM-DD"; Decisions and Observations accumulate across the day.
type Context struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	ISODate      string    `json:"iso_date"` // YYYY-MM-DD
	Agent        string    `json:"agent,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	RelatedIssue string    `json:"related_issue,omitempty"`
	Decisions    []string  `json:"decisions,omitempty"`
	Observations []string  `json:"observations,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Component is a unit of the tracked software system. DependsOn holds the
// logical IDs of one-hop DEPENDS_ON targets; the edge set is authoritative
// and this field mirrors it.
type Component struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      string          `json:"kind,omitempty"`
	Status    ComponentStatus `json:"status,omitempty"`
	DependsOn []string        `json:"depends_on,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Decision records an engineering decision. Context is prose, Date is the
// decision date as YYYY-MM-DD.
type Decision struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Context   string    `json:"context,omitempty"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rule is a governing constraint on components.
type Rule struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Created   string    `json:"created"` // YYYY-MM-DD
	Triggers  []string  `json:"triggers,omitempty"`
	Content   string    `json:"content,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileMetadata is the structured blob stored on File nodes as JSON. Branch
// must equal the branch segment of the owning repository's node ID.
type FileMetadata struct {
	Branch   string             `json:"branch,omitempty"`
	Content  string             `json:"content,omitempty"`
	MimeType string             `json:"mime_type,omitempty"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// File is an ingested source file. Unlike other entities its node ID is the
// logical ID itself; branch scoping lives inside Metadata.
type File struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Path      string       `json:"path,omitempty"`
	MimeType  string       `json:"mime_type,omitempty"`
	Size      int64        `json:"size,omitempty"`
	Metadata  FileMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Tag is a project-global label attachable to components, decisions, rules
// and files. Its node ID is the logical ID.
type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaggedItem is one element of a heterogeneous find-by-tag result.
type TaggedItem struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Validate checks component fields before an upsert.
func (c *Component) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("component id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("component name is required")
	}
	if c.Status != "" && !c.Status.IsValid() {
		return fmt.Errorf("invalid component status: %s", c.Status)
	}
	return nil
}

// Validate checks decision fields before an upsert.
func (d *Decision) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("decision id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("decision name is required")
	}
	if d.Date != "" {
		if _, err := time.Parse("2006-01-02", d.Date); err != nil {
			return fmt.Errorf("decision date must be YYYY-MM-DD: %q", d.Date)
		}
	}
	return nil
}

// Validate checks rule fields before an upsert.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	return nil
}

// Validate checks tag fields before an upsert.
func (t *Tag) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tag id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("tag name is required")
	}
	return nil
}
