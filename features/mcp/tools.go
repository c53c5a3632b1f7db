package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buildware/kbase/features/knowledge"
	"github.com/buildware/kbase/features/project"
)

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type SearchArgs struct {
	ProjectCode string   `json:"project_code"`
	Query       string   `json:"query"`
	TopK        *int     `json:"top_k,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type IngestArgs struct {
	ProjectCode string   `json:"project_code"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags,omitempty"`
}

type ProjectArgs struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	BasePath    string   `json:"base_path"`
	DomainTags  []string `json:"domain_tags,omitempty"`
	Description string   `json:"description,omitempty"`
	Visibility  string   `json:"visibility,omitempty"`
}

func toolCatalog() []Tool {
	projectProperties := map[string]interface{}{
		"code": map[string]string{
			"type":        "string",
			"description": "Unique project code",
		},
		"name": map[string]string{
			"type":        "string",
			"description": "Human readable project name",
		},
		"base_path": map[string]string{
			"type":        "string",
			"description": "Filesystem directory holding the project's documents",
		},
		"domain_tags": map[string]interface{}{
			"type":        "array",
			"items":       map[string]string{"type": "string"},
			"description": "Default tags describing the project's domain",
		},
		"description": map[string]string{
			"type":        "string",
			"description": "Free-form project description",
		},
		"visibility": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"public", "confidential"},
			"description": "Whether the project appears in default listings",
		},
	}

	return []Tool{
		{
			Name: "kbase_search",
			Description: `Retrieval tool. Performs a semantic search scoped to one project, optionally narrowed by tags. Use this to answer questions from a project's knowledge base.

ARGUMENT GUIDE:

[top_k: Result Count]
- Default: 5
- Max: 50

[tags: Tag Filtering]
- Results must carry at least one of the given tags.
- A tags-only call (empty query) lists tagged content instead of ranking by similarity.

USAGE EXAMPLES:
- Question: kbase_search(project_code="devops", query="how do we rotate credentials")
- Narrowed: kbase_search(project_code="devops", query="rollback steps", tags=["runbook"])
- Browse: kbase_search(project_code="devops", query="", tags=["onboarding"])`,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"project_code": map[string]string{
						"type":        "string",
						"description": "Code of the project to search",
					},
					"query": map[string]string{
						"type":        "string",
						"description": "The search query. May be empty when tags are given.",
					},
					"top_k": map[string]interface{}{
						"type":        "integer",
						"description": "Max results to return (default 5).",
						"minimum":     1,
						"maximum":     50,
					},
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]string{"type": "string"},
						"description": "Restrict results to content carrying any of these tags",
					},
				},
				"required": []string{"project_code"},
			},
		},
		{
			Name: "kbase_ingest",
			Description: `Loading tool. Chunks the given text and stores it in a project's knowledge base. Every call stores its content; identical text ingested twice is stored twice.

USAGE EXAMPLE:
kbase_ingest(project_code="devops", content="...", tags=["runbook"])`,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"project_code": map[string]string{
						"type":        "string",
						"description": "Code of the target project",
					},
					"content": map[string]string{
						"type":        "string",
						"description": "The text to ingest",
					},
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]string{"type": "string"},
						"description": "Tags stamped on every stored chunk",
					},
				},
				"required": []string{"project_code", "content"},
			},
		},
		{
			Name: "kbase_list_projects",
			Description: `Discovery tool. Lists the registered projects. Use this at the start of a session to learn which knowledge bases exist.

USAGE EXAMPLE:
kbase_list_projects()`,
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name: "kbase_create_project",
			Description: `Registry tool. Registers a new project. The code must be unique.

USAGE EXAMPLE:
kbase_create_project(code="devops", name="DevOps Handbook", base_path="/srv/kb/devops")`,
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": projectProperties,
				"required":   []string{"code", "name", "base_path"},
			},
		},
		{
			Name: "kbase_update_project",
			Description: `Registry tool. Replaces the writable fields of an existing project identified by code.

USAGE EXAMPLE:
kbase_update_project(code="devops", name="DevOps Handbook v2", base_path="/srv/kb/devops")`,
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": projectProperties,
				"required":   []string{"code", "name", "base_path"},
			},
		},
		{
			Name: "kbase_delete_project",
			Description: `Registry tool. Removes a project from the registry. Stored knowledge for the project is kept.

USAGE EXAMPLE:
kbase_delete_project(code="devops")`,
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"code": map[string]string{
						"type":        "string",
						"description": "Code of the project to delete",
					},
				},
				"required": []string{"code"},
			},
		},
	}
}

func (h *Handler) toolSearch(ctx context.Context, id interface{}, rawArgs json.RawMessage) *JSONRPCResponse {
	var args SearchArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		slog.Warn("invalid search arguments", "error", err)
		resp := makeErrorResponse(id, ErrInvalidParams, "Invalid search arguments")
		return &resp
	}

	if args.ProjectCode == "" {
		resp := makeErrorResponse(id, ErrInvalidParams, "project_code is required")
		return &resp
	}

	topK := 0
	if args.TopK != nil {
		topK = *args.TopK
	}

	hits, err := h.searcher.Query(ctx, args.ProjectCode, args.Query, topK, args.Tags)
	if err != nil {
		var invalid *knowledge.InvalidArgumentError
		if errors.As(err, &invalid) {
			resp := makeErrorResponse(id, ErrInvalidParams, err.Error())
			return &resp
		}
		if errors.Is(err, knowledge.ErrProjectNotFound) {
			return toolFailure(id, "Error: "+err.Error())
		}
		slog.Error("search failed", "error", err)
		resp := makeErrorResponse(id, ErrInternal, "Search failed: "+err.Error())
		return &resp
	}

	var sb strings.Builder
	if len(hits) == 0 {
		sb.WriteString("No results found.")
	} else {
		for i, hit := range hits {
			fmt.Fprintf(&sb, "Result %d (Score: %.2f):\n", i+1, hit.Score)
			if hit.Title != "" {
				fmt.Fprintf(&sb, "Title: %s\n", hit.Title)
			}
			if hit.DocPath != "" {
				fmt.Fprintf(&sb, "Document: %s\n", hit.DocPath)
			}
			fmt.Fprintf(&sb, "Content:\n%s\n", hit.Text)
			sb.WriteString("\n---\n")
		}
	}

	slog.Info("tool execution completed", "tool", "kbase_search", "result_count", len(hits))
	return toolSuccess(id, sb.String())
}

func (h *Handler) toolIngest(ctx context.Context, id interface{}, rawArgs json.RawMessage) *JSONRPCResponse {
	var args IngestArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		slog.Warn("invalid ingest arguments", "error", err)
		resp := makeErrorResponse(id, ErrInvalidParams, "Invalid ingest arguments")
		return &resp
	}

	result, err := h.ingestor.Ingest(ctx, knowledge.IngestRequest{
		ProjectCode: args.ProjectCode,
		Content:     args.Content,
		Tags:        args.Tags,
	})
	if err != nil {
		var invalid *knowledge.InvalidArgumentError
		if errors.As(err, &invalid) {
			resp := makeErrorResponse(id, ErrInvalidParams, err.Error())
			return &resp
		}
		if errors.Is(err, knowledge.ErrProjectNotFound) {
			return toolFailure(id, "Error: "+err.Error())
		}
		slog.Error("ingest failed", "error", err)
		resp := makeErrorResponse(id, ErrInternal, "Ingest failed: "+err.Error())
		return &resp
	}

	slog.Info("tool execution completed", "tool", "kbase_ingest", "chunks", result.IngestedChunks)
	return toolSuccess(id, fmt.Sprintf("Ingested %d records into project %q.", result.IngestedChunks, result.ProjectCode))
}

func (h *Handler) toolListProjects(ctx context.Context, id interface{}) *JSONRPCResponse {
	projects, err := h.projects.List(ctx, true)
	if err != nil {
		slog.Error("list_projects failed", "error", err)
		return toolFailure(id, "Error: "+err.Error())
	}

	if len(projects) == 0 {
		return toolSuccess(id, "No projects registered.")
	}

	type SimpleProject struct {
		Code        string   `json:"code"`
		Name        string   `json:"name"`
		DomainTags  []string `json:"domainTags,omitempty"`
		Description string   `json:"description,omitempty"`
	}

	simple := make([]SimpleProject, len(projects))
	for i, p := range projects {
		simple[i] = SimpleProject{
			Code:        p.Code,
			Name:        p.Name,
			DomainTags:  p.DomainTags,
			Description: p.Description,
		}
	}

	jsonBytes, err := json.MarshalIndent(simple, "", "  ")
	if err != nil {
		slog.Error("failed to marshal projects", "error", err)
		return toolFailure(id, "Error marshalling results")
	}
	return toolSuccess(id, string(jsonBytes))
}

func (h *Handler) toolCreateProject(ctx context.Context, id interface{}, rawArgs json.RawMessage) *JSONRPCResponse {
	var args ProjectArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		slog.Warn("invalid project arguments", "error", err)
		resp := makeErrorResponse(id, ErrInvalidParams, "Invalid arguments")
		return &resp
	}

	p, err := h.projects.Create(ctx, project.Upsert{
		Code:        args.Code,
		Name:        args.Name,
		BasePath:    args.BasePath,
		DomainTags:  args.DomainTags,
		Description: args.Description,
		Visibility:  args.Visibility,
	})
	if err != nil {
		var invalid *project.InvalidFieldError
		if errors.As(err, &invalid) {
			resp := makeErrorResponse(id, ErrInvalidParams, err.Error())
			return &resp
		}
		if errors.Is(err, project.ErrDuplicateCode) {
			return toolFailure(id, "Error: "+err.Error())
		}
		slog.Error("create_project failed", "error", err)
		resp := makeErrorResponse(id, ErrInternal, "Create failed: "+err.Error())
		return &resp
	}

	return toolSuccess(id, fmt.Sprintf("Created project %q (%s).", p.Code, p.Name))
}

func (h *Handler) toolUpdateProject(ctx context.Context, id interface{}, rawArgs json.RawMessage) *JSONRPCResponse {
	var args ProjectArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		slog.Warn("invalid project arguments", "error", err)
		resp := makeErrorResponse(id, ErrInvalidParams, "Invalid arguments")
		return &resp
	}

	if args.Code == "" {
		resp := makeErrorResponse(id, ErrInvalidParams, "code is required")
		return &resp
	}

	p, err := h.projects.Update(ctx, args.Code, project.Upsert{
		Name:        args.Name,
		BasePath:    args.BasePath,
		DomainTags:  args.DomainTags,
		Description: args.Description,
		Visibility:  args.Visibility,
	})
	if err != nil {
		var invalid *project.InvalidFieldError
		if errors.As(err, &invalid) {
			resp := makeErrorResponse(id, ErrInvalidParams, err.Error())
			return &resp
		}
		slog.Error("update_project failed", "error", err)
		resp := makeErrorResponse(id, ErrInternal, "Update failed: "+err.Error())
		return &resp
	}
	if p == nil {
		return toolFailure(id, fmt.Sprintf("Error: project %q not found", args.Code))
	}

	return toolSuccess(id, fmt.Sprintf("Updated project %q.", p.Code))
}

func (h *Handler) toolDeleteProject(ctx context.Context, id interface{}, rawArgs json.RawMessage) *JSONRPCResponse {
	var args ProjectArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		slog.Warn("invalid project arguments", "error", err)
		resp := makeErrorResponse(id, ErrInvalidParams, "Invalid arguments")
		return &resp
	}

	if args.Code == "" {
		resp := makeErrorResponse(id, ErrInvalidParams, "code is required")
		return &resp
	}

	if err := h.projects.Delete(ctx, args.Code); err != nil {
		slog.Error("delete_project failed", "error", err)
		return toolFailure(id, "Error: "+err.Error())
	}

	return toolSuccess(id, fmt.Sprintf("Deleted project %q.", args.Code))
}
