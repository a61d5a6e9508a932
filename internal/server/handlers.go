package server

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kuzumem/kuzumem-mcp/internal/memory"
	"github.com/kuzumem/kuzumem-mcp/internal/repository"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

func (s *Server) registerTools() {
	s.addTool(&mcp.Tool{
		Name:        "memory-bank",
		Description: "Initialize or inspect a project's memory bank. operation=init binds this session to a clientProjectRoot plus (repository, branch) and bootstraps the graph database; get-metadata and update-metadata read and replace the per-branch metadata blob.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"operation": {"type": "string", "enum": ["init", "get-metadata", "update-metadata"]},
				"clientProjectRoot": {"type": "string", "description": "Absolute path of the project; required for init"},
				"repository": {"type": "string"},
				"branch": {"type": "string", "description": "Defaults to main"},
				"metadata": {"type": "object", "description": "Replacement content for update-metadata"}
			},
			"required": ["operation", "repository"]
		}`),
	}, s.handle("memory-bank", false, s.handleMemoryBank))

	s.addTool(&mcp.Tool{
		Name:        "entity",
		Description: "CRUD over memory entities. entityType selects component, decision, rule, file, or tag; operation selects create (upsert), update, get, or delete. data carries the entity fields for create/update.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"entityType": {"type": "string", "enum": ["component", "decision", "rule", "file", "tag"]},
				"operation": {"type": "string", "enum": ["create", "update", "get", "delete"]},
				"repository": {"type": "string"},
				"branch": {"type": "string"},
				"id": {"type": "string"},
				"data": {"type": "object"}
			},
			"required": ["entityType", "operation", "repository"]
		}`),
	}, s.handle("entity", true, s.handleEntity))

	s.addTool(&mcp.Tool{
		Name:        "context",
		Description: "Daily work-log entries. operation=update merges decisions and observations into today's entry; get fetches one by id; latest lists the newest entries; attach links an entry to a component, decision, or rule.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"operation": {"type": "string", "enum": ["update", "get", "latest", "attach"]},
				"repository": {"type": "string"},
				"branch": {"type": "string"},
				"id": {"type": "string"},
				"agent": {"type": "string"},
				"summary": {"type": "string"},
				"relatedIssue": {"type": "string"},
				"decisions": {"type": "array", "items": {"type": "string"}},
				"observations": {"type": "array", "items": {"type": "string"}},
				"limit": {"type": "integer"},
				"itemType": {"type": "string"},
				"itemId": {"type": "string"}
			},
			"required": ["operation", "repository"]
		}`),
	}, s.handle("context", true, s.handleContext))

	s.addTool(&mcp.Tool{
		Name:        "query",
		Description: "Read-only graph questions: dependencies and dependents of a component, related items within N hops, governing decisions, contextual history of an item, files of a component, components of a file, items by tag, or a plain list by entity type.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"type": {"type": "string", "enum": ["dependencies", "dependents", "related", "governance", "history", "files", "components-by-file", "by-tag", "list"]},
				"repository": {"type": "string"},
				"branch": {"type": "string"},
				"id": {"type": "string"},
				"entityType": {"type": "string"},
				"itemType": {"type": "string"},
				"tagId": {"type": "string"},
				"relationshipTypes": {"type": "array", "items": {"type": "string"}},
				"depth": {"type": "integer"},
				"direction": {"type": "string", "enum": ["OUTGOING", "INCOMING", "BOTH"]},
				"startDate": {"type": "string", "description": "YYYY-MM-DD lower bound for list of decisions"},
				"endDate": {"type": "string", "description": "YYYY-MM-DD upper bound for list of decisions"}
			},
			"required": ["type", "repository"]
		}`),
	}, s.handle("query", true, s.handleQuery))

	s.addTool(&mcp.Tool{
		Name:        "associate",
		Description: "Create association edges: tag an item, mark a component as implemented by a file, record that a decision affects a component, or that a rule governs one.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"type": {"type": "string", "enum": ["tag-item", "file-component", "decision-component", "rule-component"]},
				"repository": {"type": "string"},
				"branch": {"type": "string"},
				"itemType": {"type": "string"},
				"itemId": {"type": "string"},
				"tagId": {"type": "string"},
				"fileId": {"type": "string"},
				"componentId": {"type": "string"},
				"decisionId": {"type": "string"},
				"ruleId": {"type": "string"}
			},
			"required": ["type", "repository"]
		}`),
	}, s.handle("associate", true, s.handleAssociate))

	s.addTool(&mcp.Tool{
		Name:        "analyze",
		Description: "Graph algorithms over the component dependency graph: pagerank, k-core, louvain, scc, wcc, and shortest-path between two components.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"algorithm": {"type": "string", "enum": ["pagerank", "k-core", "louvain", "scc", "wcc", "shortest-path"]},
				"repository": {"type": "string"},
				"branch": {"type": "string"},
				"startId": {"type": "string"},
				"endId": {"type": "string"},
				"k": {"type": "integer"},
				"dampingFactor": {"type": "number"},
				"maxIterations": {"type": "integer"},
				"tolerance": {"type": "number"},
				"normalizeInitial": {"type": "boolean"},
				"maxHops": {"type": "integer"}
			},
			"required": ["algorithm", "repository"]
		}`),
	}, s.handle("analyze", true, s.handleAnalyze))

	s.addTool(&mcp.Tool{
		Name:        "detect",
		Description: "Structural heuristics over the graph. type=cycles reports dependency cycles as strongly connected groups with more than one member.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"type": {"type": "string", "enum": ["cycles"]},
				"repository": {"type": "string"},
				"branch": {"type": "string"}
			},
			"required": ["type", "repository"]
		}`),
	}, s.handle("detect", true, s.handleDetect))

	s.addTool(&mcp.Tool{
		Name:        "bulk-import",
		Description: "Import a batch of components, decisions, or rules in one call, streaming progress. Existing entities are skipped unless overwrite is set.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"type": {"type": "string", "enum": ["components", "decisions", "rules"]},
				"repository": {"type": "string"},
				"branch": {"type": "string"},
				"items": {"type": "array", "items": {"type": "object"}},
				"overwrite": {"type": "boolean"}
			},
			"required": ["type", "repository", "items"]
		}`),
	}, s.handle("bulk-import", true, s.handleBulkImport))

	s.addTool(&mcp.Tool{
		Name:        "search",
		Description: "Search the memory bank. mode=keyword runs a label-scoped case-insensitive property match; mode=semantic is a placeholder until a vector index is configured.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"mode": {"type": "string", "enum": ["keyword", "semantic"]},
				"query": {"type": "string"},
				"repository": {"type": "string"},
				"branch": {"type": "string"},
				"entityType": {"type": "string"},
				"limit": {"type": "integer"},
				"threshold": {"type": "number"}
			},
			"required": ["mode", "query", "repository"]
		}`),
	}, s.handle("search", true, s.handleSearch))

	s.addTool(&mcp.Tool{
		Name:        "delete",
		Description: "Destructive removal of entities. operation=single removes one entity by type and id; bulk-by-type, bulk-by-tag, bulk-by-branch, and bulk-by-repository remove sets and require confirm=true. dryRun previews the affected set without changing the graph.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"operation": {"type": "string", "enum": ["single", "bulk-by-type", "bulk-by-tag", "bulk-by-branch", "bulk-by-repository"]},
				"repository": {"type": "string"},
				"branch": {"type": "string"},
				"entityType": {"type": "string"},
				"id": {"type": "string"},
				"tagId": {"type": "string"},
				"targetBranch": {"type": "string"},
				"confirm": {"type": "boolean"},
				"dryRun": {"type": "boolean"}
			},
			"required": ["operation", "repository"]
		}`),
	}, s.handle("delete", true, s.handleDelete))

	s.addTool(&mcp.Tool{
		Name:        "introspect",
		Description: "Schema and server metadata: node tables with row counts, registered tool names, and session statistics.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repository": {"type": "string"},
				"branch": {"type": "string"}
			},
			"required": ["repository"]
		}`),
	}, s.handle("introspect", true, s.handleIntrospect))
}

func (s *Server) handleMemoryBank(ctx context.Context, c *call, args map[string]any) (any, error) {
	switch op := getString(args, "operation"); op {
	case "init":
		root := getString(args, "clientProjectRoot")
		if root == "" {
			root = s.cfg.ClientProjectRoot
		}
		if root == "" {
			return nil, types.NewError(types.CodeInvalidArgs, "init requires clientProjectRoot")
		}
		md, err := s.svc.InitMemoryBank(ctx, root, c.repo, c.branch)
		if err != nil {
			return nil, err
		}
		s.sessions.Bind(c.sessionID, root, c.repo, c.branch)
		return map[string]any{"success": true, "metadata": md}, nil
	case "get-metadata":
		root := s.resolveRoot(c.sessionID, c.repo, c.branch)
		if root == "" {
			return nil, types.NewError(types.CodePreconditionRequired,
				"no initialized memory bank for %s:%s; call memory-bank init first", c.repo, c.branch)
		}
		return s.svc.GetMetadata(ctx, root, c.repo, c.branch)
	case "update-metadata":
		root := s.resolveRoot(c.sessionID, c.repo, c.branch)
		if root == "" {
			return nil, types.NewError(types.CodePreconditionRequired,
				"no initialized memory bank for %s:%s; call memory-bank init first", c.repo, c.branch)
		}
		md := &types.Metadata{Content: getMap(args, "metadata")}
		return s.svc.UpdateMetadata(ctx, root, c.repo, c.branch, md)
	default:
		return nil, types.NewError(types.CodeInvalidArgs, "unknown memory-bank operation %q", op)
	}
}

func (s *Server) handleEntity(ctx context.Context, c *call, args map[string]any) (any, error) {
	entityType := getString(args, "entityType")
	op := getString(args, "operation")
	id := getString(args, "id")
	data := getMap(args, "data")

	switch op {
	case "create", "update":
		if data == nil {
			return nil, types.NewError(types.CodeInvalidArgs, "%s requires data", op)
		}
		switch entityType {
		case "component":
			var comp types.Component
			if err := decodeInto(data, &comp); err != nil {
				return nil, err
			}
			return s.svc.UpsertComponent(ctx, c.root, c.repo, c.branch, &comp)
		case "decision":
			var dec types.Decision
			if err := decodeInto(data, &dec); err != nil {
				return nil, err
			}
			return s.svc.UpsertDecision(ctx, c.root, c.repo, c.branch, &dec)
		case "rule":
			var rule types.Rule
			if err := decodeInto(data, &rule); err != nil {
				return nil, err
			}
			return s.svc.UpsertRule(ctx, c.root, c.repo, c.branch, &rule)
		case "file":
			var file types.File
			if err := decodeInto(data, &file); err != nil {
				return nil, err
			}
			return s.svc.UpsertFile(ctx, c.root, c.repo, c.branch, &file)
		case "tag":
			var tag types.Tag
			if err := decodeInto(data, &tag); err != nil {
				return nil, err
			}
			return s.svc.UpsertTag(ctx, c.root, &tag)
		}
	case "get":
		if id == "" {
			return nil, types.NewError(types.CodeInvalidArgs, "get requires an id")
		}
		switch entityType {
		case "component":
			return s.svc.GetComponent(ctx, c.root, c.repo, c.branch, id)
		case "decision":
			return s.svc.GetDecision(ctx, c.root, c.repo, c.branch, id)
		case "rule":
			return s.svc.GetRule(ctx, c.root, c.repo, c.branch, id)
		case "file":
			return s.svc.GetFile(ctx, c.root, c.repo, c.branch, id)
		case "tag":
			return s.svc.GetTag(ctx, c.root, id)
		}
	case "delete":
		return s.svc.Delete(ctx, c.root, c.repo, c.branch, &repository.DeleteRequest{
			Operation:  "single",
			EntityType: entityType,
			ID:         id,
		})
	default:
		return nil, types.NewError(types.CodeInvalidArgs, "unknown entity operation %q", op)
	}
	return nil, types.NewError(types.CodeInvalidArgs, "unknown entity type %q", entityType)
}

func (s *Server) handleContext(ctx context.Context, c *call, args map[string]any) (any, error) {
	switch op := getString(args, "operation"); op {
	case "update":
		in := &types.Context{
			ID:           getString(args, "id"),
			Agent:        getString(args, "agent"),
			Summary:      getString(args, "summary"),
			RelatedIssue: getString(args, "relatedIssue"),
			Decisions:    getStringSlice(args, "decisions"),
			Observations: getStringSlice(args, "observations"),
		}
		return s.svc.UpdateContext(ctx, c.root, c.repo, c.branch, in)
	case "get":
		id := getString(args, "id")
		if id == "" {
			return nil, types.NewError(types.CodeInvalidArgs, "get requires an id")
		}
		return s.svc.GetContext(ctx, c.root, c.repo, c.branch, id)
	case "latest":
		return s.svc.LatestContexts(ctx, c.root, c.repo, c.branch, getInt(args, "limit", 10))
	case "attach":
		err := s.svc.AttachContext(ctx, c.root, c.repo, c.branch,
			getString(args, "id"), getString(args, "itemType"), getString(args, "itemId"))
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	default:
		return nil, types.NewError(types.CodeInvalidArgs, "unknown context operation %q", op)
	}
}

func (s *Server) handleQuery(ctx context.Context, c *call, args map[string]any) (any, error) {
	id := getString(args, "id")
	switch qt := getString(args, "type"); qt {
	case "dependencies":
		return s.svc.Dependencies(ctx, c.root, c.repo, c.branch, id)
	case "dependents":
		return s.svc.Dependents(ctx, c.root, c.repo, c.branch, id)
	case "related":
		dir := repository.Direction(getString(args, "direction"))
		if dir == "" {
			dir = repository.DirectionBoth
		}
		return s.svc.Related(ctx, c.root, c.repo, c.branch, id,
			getStringSlice(args, "relationshipTypes"), getInt(args, "depth", 1), dir)
	case "governance":
		return s.svc.GoverningDecisions(ctx, c.root, c.repo, c.branch, id)
	case "history":
		return s.svc.ContextualHistory(ctx, c.root, c.repo, c.branch, id, getString(args, "itemType"))
	case "files":
		return s.svc.FilesByComponent(ctx, c.root, c.repo, c.branch, id)
	case "components-by-file":
		return s.svc.ComponentsByFile(ctx, c.root, c.repo, c.branch, id)
	case "by-tag":
		return s.svc.ItemsByTag(ctx, c.root, c.repo, c.branch, getString(args, "tagId"), getString(args, "itemType"))
	case "list":
		switch et := getString(args, "entityType"); et {
		case "component":
			return s.svc.ListComponents(ctx, c.root, c.repo, c.branch)
		case "decision":
			return s.svc.DecisionsByDateRange(ctx, c.root, c.repo, c.branch,
				getString(args, "startDate"), getString(args, "endDate"))
		case "rule":
			return s.svc.ListRules(ctx, c.root, c.repo, c.branch)
		case "file":
			return s.svc.ListFiles(ctx, c.root, c.branch)
		case "tag":
			return s.svc.ListTags(ctx, c.root)
		case "context":
			return s.svc.ListContexts(ctx, c.root, c.repo, c.branch)
		default:
			return nil, types.NewError(types.CodeInvalidArgs, "cannot list entities of type %q", et)
		}
	default:
		return nil, types.NewError(types.CodeInvalidArgs, "unknown query type %q", qt)
	}
}

func (s *Server) handleAssociate(ctx context.Context, c *call, args map[string]any) (any, error) {
	var err error
	switch at := getString(args, "type"); at {
	case "tag-item":
		err = s.svc.AddItemTag(ctx, c.root, c.repo, c.branch,
			getString(args, "itemType"), getString(args, "itemId"), getString(args, "tagId"))
	case "file-component":
		err = s.svc.AddFileToComponent(ctx, c.root, c.repo, c.branch,
			getString(args, "componentId"), getString(args, "fileId"))
	case "decision-component":
		err = s.svc.AddDecisionAffects(ctx, c.root, c.repo, c.branch,
			getString(args, "decisionId"), getString(args, "componentId"))
	case "rule-component":
		err = s.svc.AddRuleGoverns(ctx, c.root, c.repo, c.branch,
			getString(args, "ruleId"), getString(args, "componentId"))
	default:
		return nil, types.NewError(types.CodeInvalidArgs, "unknown association type %q", at)
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

func (s *Server) handleAnalyze(ctx context.Context, c *call, args map[string]any) (any, error) {
	progress := c.progress(ctx)
	progress("in-progress", "running "+getString(args, "algorithm"), 0, false)
	defer progress("complete", "analysis finished", 100, true)

	switch alg := getString(args, "algorithm"); alg {
	case "pagerank":
		opts := &repository.PageRankOptions{}
		if v, ok := args["dampingFactor"].(float64); ok {
			opts.DampingFactor = &v
		}
		if v, ok := args["maxIterations"].(float64); ok {
			n := int(v)
			opts.MaxIterations = &n
		}
		if v, ok := args["tolerance"].(float64); ok {
			opts.Tolerance = &v
		}
		if v, ok := args["normalizeInitial"].(bool); ok {
			opts.NormalizeInitial = &v
		}
		return s.svc.PageRank(ctx, c.root, c.repo, c.branch, opts)
	case "k-core":
		return s.svc.KCore(ctx, c.root, c.repo, c.branch, getInt(args, "k", 1))
	case "louvain":
		return s.svc.Louvain(ctx, c.root, c.repo, c.branch)
	case "scc":
		return s.svc.StronglyConnectedComponents(ctx, c.root, c.repo, c.branch)
	case "wcc":
		return s.svc.WeaklyConnectedComponents(ctx, c.root, c.repo, c.branch)
	case "shortest-path":
		opts := &repository.PathOptions{
			RelTypes:  getStringSlice(args, "relationshipTypes"),
			Direction: repository.Direction(getString(args, "direction")),
			MaxHops:   getInt(args, "maxHops", 0),
		}
		return s.svc.ShortestPath(ctx, c.root, c.repo, c.branch,
			getString(args, "startId"), getString(args, "endId"), opts)
	default:
		return nil, types.NewError(types.CodeInvalidArgs, "unknown algorithm %q", alg)
	}
}

func (s *Server) handleDetect(ctx context.Context, c *call, args map[string]any) (any, error) {
	switch dt := getString(args, "type"); dt {
	case "cycles":
		cycles, err := s.svc.DetectCycles(ctx, c.root, c.repo, c.branch)
		if err != nil {
			return nil, err
		}
		return map[string]any{"cycles": cycles, "count": len(cycles)}, nil
	default:
		return nil, types.NewError(types.CodeInvalidArgs, "unknown detection type %q", dt)
	}
}

func (s *Server) handleBulkImport(ctx context.Context, c *call, args map[string]any) (any, error) {
	items, _ := args["items"].([]any)
	req := &memory.BulkImportRequest{Overwrite: getBool(args, "overwrite")}
	for _, raw := range items {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, types.NewError(types.CodeInvalidArgs, "items must be objects")
		}
		switch bt := getString(args, "type"); bt {
		case "components":
			var comp types.Component
			if err := decodeInto(obj, &comp); err != nil {
				return nil, err
			}
			req.Components = append(req.Components, &comp)
		case "decisions":
			var dec types.Decision
			if err := decodeInto(obj, &dec); err != nil {
				return nil, err
			}
			req.Decisions = append(req.Decisions, &dec)
		case "rules":
			var rule types.Rule
			if err := decodeInto(obj, &rule); err != nil {
				return nil, err
			}
			req.Rules = append(req.Rules, &rule)
		default:
			return nil, types.NewError(types.CodeInvalidArgs, "unknown bulk-import type %q", bt)
		}
	}
	return s.svc.BulkImport(ctx, c.root, c.repo, c.branch, req, memory.Progress(c.progress(ctx)))
}

func (s *Server) handleSearch(ctx context.Context, c *call, args map[string]any) (any, error) {
	query := getString(args, "query")
	switch mode := getString(args, "mode"); mode {
	case "keyword":
		return s.svc.SearchKeyword(ctx, c.root, c.repo, c.branch, query,
			getString(args, "entityType"), getInt(args, "limit", 0))
	case "semantic":
		return s.svc.SearchSemantic(ctx, c.root, query)
	default:
		return nil, types.NewError(types.CodeInvalidArgs, "unknown search mode %q", mode)
	}
}

func (s *Server) handleDelete(ctx context.Context, c *call, args map[string]any) (any, error) {
	return s.svc.Delete(ctx, c.root, c.repo, c.branch, &repository.DeleteRequest{
		Operation:  getString(args, "operation"),
		EntityType: getString(args, "entityType"),
		ID:         getString(args, "id"),
		TagID:      getString(args, "tagId"),
		Branch:     getString(args, "targetBranch"),
		Confirm:    getBool(args, "confirm"),
		DryRun:     getBool(args, "dryRun"),
	})
}

func (s *Server) handleIntrospect(ctx context.Context, c *call, _ map[string]any) (any, error) {
	schema, err := s.svc.Introspect(ctx, c.root)
	if err != nil {
		return nil, err
	}
	tools := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		tools = append(tools, name)
	}
	sort.Strings(tools)
	return map[string]any{
		"schema":   schema,
		"tools":    tools,
		"sessions": s.sessions.Stats(),
	}, nil
}
