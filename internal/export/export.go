// Package export serializes one (repository, branch) memory bank to a YAML
// snapshot and restores it, using the same service path as the MCP tools.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kuzumem/kuzumem-mcp/internal/memory"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Snapshot is the YAML document shape. Entity fields reuse their JSON tags
// via explicit yaml tags on this wrapper only.
type Snapshot struct {
	Repository string             `yaml:"repository"`
	Branch     string             `yaml:"branch"`
	ExportedAt string             `yaml:"exported_at"`
	Metadata   *types.Metadata    `yaml:"metadata,omitempty"`
	Components []*types.Component `yaml:"components,omitempty"`
	Decisions  []*types.Decision  `yaml:"decisions,omitempty"`
	Rules      []*types.Rule      `yaml:"rules,omitempty"`
	Contexts   []*types.Context   `yaml:"contexts,omitempty"`
	Files      []*types.File      `yaml:"files,omitempty"`
	Tags       []*types.Tag       `yaml:"tags,omitempty"`
}

// Write dumps the branch's memory bank as YAML to w.
func Write(ctx context.Context, svc *memory.Service, root, repo, branch string, w io.Writer) error {
	snap := &Snapshot{
		Repository: repo,
		Branch:     branch,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	var err error
	if snap.Metadata, err = svc.GetMetadata(ctx, root, repo, branch); err != nil {
		return err
	}
	if snap.Components, err = svc.ListComponents(ctx, root, repo, branch); err != nil {
		return err
	}
	if snap.Decisions, err = svc.DecisionsByDateRange(ctx, root, repo, branch, "", ""); err != nil {
		return err
	}
	if snap.Rules, err = svc.ListRules(ctx, root, repo, branch); err != nil {
		return err
	}
	if snap.Contexts, err = svc.ListContexts(ctx, root, repo, branch); err != nil {
		return err
	}
	if snap.Files, err = svc.ListFiles(ctx, root, branch); err != nil {
		return err
	}
	if snap.Tags, err = svc.ListTags(ctx, root); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}

// Read restores a YAML snapshot into the bank. Existing entities are
// overwritten; the snapshot's repo and branch win over the node contents.
func Read(ctx context.Context, svc *memory.Service, root string, r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Repository == "" || snap.Branch == "" {
		return nil, types.NewError(types.CodeInvalidArgs, "snapshot must name repository and branch")
	}
	repo, branch := snap.Repository, snap.Branch

	if _, err := svc.InitMemoryBank(ctx, root, repo, branch); err != nil {
		return nil, err
	}
	if snap.Metadata != nil {
		if _, err := svc.UpdateMetadata(ctx, root, repo, branch, snap.Metadata); err != nil {
			return nil, err
		}
	}
	for _, tag := range snap.Tags {
		if _, err := svc.UpsertTag(ctx, root, tag); err != nil {
			return nil, fmt.Errorf("import tag %s: %w", tag.ID, err)
		}
	}
	for _, comp := range snap.Components {
		if _, err := svc.UpsertComponent(ctx, root, repo, branch, comp); err != nil {
			return nil, fmt.Errorf("import component %s: %w", comp.ID, err)
		}
	}
	for _, dec := range snap.Decisions {
		if _, err := svc.UpsertDecision(ctx, root, repo, branch, dec); err != nil {
			return nil, fmt.Errorf("import decision %s: %w", dec.ID, err)
		}
	}
	for _, rule := range snap.Rules {
		if _, err := svc.UpsertRule(ctx, root, repo, branch, rule); err != nil {
			return nil, fmt.Errorf("import rule %s: %w", rule.ID, err)
		}
	}
	for _, cx := range snap.Contexts {
		if _, err := svc.UpdateContext(ctx, root, repo, branch, cx); err != nil {
			return nil, fmt.Errorf("import context %s: %w", cx.ID, err)
		}
	}
	for _, file := range snap.Files {
		if _, err := svc.UpsertFile(ctx, root, repo, branch, file); err != nil {
			return nil, fmt.Errorf("import file %s: %w", file.ID, err)
		}
	}
	return &snap, nil
}
