package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buildware/kbase/features/knowledge"
	"github.com/buildware/kbase/features/project"
	"github.com/buildware/kbase/internal/middleware"
)

// Searcher runs scoped retrieval queries against the knowledge base.
type Searcher interface {
	Query(ctx context.Context, projectCode, query string, topK int, tags []string) ([]knowledge.Hit, error)
}

// Ingestor loads text into a project's knowledge base.
type Ingestor interface {
	Ingest(ctx context.Context, req knowledge.IngestRequest) (*knowledge.IngestResult, error)
}

// ProjectManager exposes the registry operations the MCP tools need.
type ProjectManager interface {
	List(ctx context.Context, includeConfidential bool) ([]project.Project, error)
	Create(ctx context.Context, up project.Upsert) (*project.Project, error)
	Update(ctx context.Context, code string, up project.Upsert) (*project.Project, error)
	Delete(ctx context.Context, code string) error
}

type Handler struct {
	searcher     Searcher
	ingestor     Ingestor
	projects     ProjectManager
	sessions     map[string]chan string // sessionId -> serialized JSON-RPC responses
	sessionsLock sync.RWMutex
}

func NewHandler(searcher Searcher, ingestor Ingestor, projects ProjectManager) *Handler {
	return &Handler{
		searcher: searcher,
		ingestor: ingestor,
		projects: projects,
		sessions: make(map[string]chan string),
	}
}

// JSON-RPC Request types
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// JSON-RPC Response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	ErrParse          = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// processRequest processes the JSON-RPC request and returns a response.
// Returns nil if no response should be sent (e.g. for notifications).
func (h *Handler) processRequest(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]interface{}{
				"protocolVersion": "2024-11-05",
				"capabilities": map[string]interface{}{
					"tools": map[string]interface{}{},
				},
				"serverInfo": map[string]interface{}{
					"name":    "kbase-mcp",
					"version": "1.0.0",
				},
			},
		}

	case "notifications/initialized":
		// Notifications must not generate a response
		return nil

	case "tools/list":
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  ListToolsResult{Tools: toolCatalog()},
		}

	case "tools/call":
		var params CallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			slog.Warn("invalid params structure", "error", err)
			resp := makeErrorResponse(req.ID, ErrInvalidParams, "Invalid params")
			return &resp
		}
		return h.callTool(ctx, req.ID, params)
	}

	slog.Warn("unknown jsonrpc method", "method", req.Method)
	resp := makeErrorResponse(req.ID, ErrMethodNotFound, "Method not found")
	return &resp
}

func (h *Handler) callTool(ctx context.Context, id interface{}, params CallParams) *JSONRPCResponse {
	switch params.Name {
	case "kbase_search":
		return h.toolSearch(ctx, id, params.Arguments)
	case "kbase_ingest":
		return h.toolIngest(ctx, id, params.Arguments)
	case "kbase_list_projects":
		return h.toolListProjects(ctx, id)
	case "kbase_create_project":
		return h.toolCreateProject(ctx, id, params.Arguments)
	case "kbase_update_project":
		return h.toolUpdateProject(ctx, id, params.Arguments)
	case "kbase_delete_project":
		return h.toolDeleteProject(ctx, id, params.Arguments)
	}

	slog.Warn("method not found", "method", params.Name)
	resp := makeErrorResponse(id, ErrMethodNotFound, "Method not found: "+params.Name)
	return &resp
}

func makeErrorResponse(id interface{}, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
		},
		ID: id,
	}
}

func toolSuccess(id interface{}, text string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: ToolResult{
			Content: []ToolContent{{Type: "text", Text: text}},
		},
	}
}

func toolFailure(id interface{}, text string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: ToolResult{
			Content: []ToolContent{{Type: "text", Text: text}},
			IsError: true,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Info("mcp request received", "method", r.Method, "path", r.URL.Path)

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, nil, ErrParse, "Parse error")
		return
	}

	resp := h.processRequest(r.Context(), req)
	if resp != nil {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	} else {
		// Notification, just return OK
		w.WriteHeader(http.StatusOK)
	}
}

// HandleSSE establishes the SSE connection and manages the session
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sessionID := uuid.New().String()
	msgChan := make(chan string, 100)

	h.sessionsLock.Lock()
	h.sessions[sessionID] = msgChan
	h.sessionsLock.Unlock()

	defer func() {
		h.sessionsLock.Lock()
		delete(h.sessions, sessionID)
		h.sessionsLock.Unlock()
		close(msgChan)
		slog.Info("sse session ended", "session_id", sessionID)
	}()

	slog.Info("sse session started", "session_id", sessionID)

	// Construct absolute URL for client compatibility
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s/mcp/messages?sessionId=%s", scheme, r.Host, sessionID)
	safeEndpoint := html.EscapeString(endpoint)

	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", safeEndpoint)
	w.(http.Flusher).Flush()

	safeSessionID := html.EscapeString(sessionID)
	fmt.Fprintf(w, "event: id\ndata: %s\n\n", safeSessionID)
	w.(http.Flusher).Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			w.(http.Flusher).Flush()
		case <-ticker.C:
			// Keep-alive comment to prevent proxy timeouts
			fmt.Fprintf(w, ": keepalive\n\n")
			w.(http.Flusher).Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// HandleMessage accepts POST messages associated with a session
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	slog.Info("mcp message received",
		"method", r.Method,
		"path", r.URL.Path,
		"correlation_id", correlationID,
	)

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		slog.Warn("missing sessionId in message request", "correlation_id", correlationID)
		h.writeHttpError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing sessionId", correlationID)
		return
	}

	h.sessionsLock.RLock()
	msgChan, exists := h.sessions[sessionID]
	h.sessionsLock.RUnlock()

	if !exists {
		slog.Warn("session not found", "session_id", sessionID, "correlation_id", correlationID)
		h.writeHttpError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", correlationID)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid json in message request", "error", err, "correlation_id", correlationID)
		h.writeHttpError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON", correlationID)
		return
	}

	// MCP Spec: Return 202 Accepted immediately
	w.WriteHeader(http.StatusAccepted)

	// Detached context preserves values (correlationID) but ignores cancellation
	bgCtx := context.WithoutCancel(r.Context())

	go func() {
		resp := h.processRequest(bgCtx, req)
		if resp == nil {
			return
		}

		respBytes, err := json.Marshal(resp)
		if err != nil {
			slog.Error("failed to marshal response", "error", err, "correlation_id", correlationID)
			return
		}

		h.sessionsLock.RLock()
		defer h.sessionsLock.RUnlock()

		defer func() {
			if r := recover(); r != nil {
				slog.Warn("failed to send to sse channel (closed)", "session_id", sessionID, "error", r, "correlation_id", correlationID)
			}
		}()

		select {
		case msgChan <- string(respBytes):
		default:
			slog.Warn("session channel full, dropping message", "session_id", sessionID, "correlation_id", correlationID)
		}
	}()
}

func (h *Handler) writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	// JSON-RPC over HTTP reports errors in the body with 200 OK
	w.WriteHeader(http.StatusOK)

	resp := makeErrorResponse(id, code, message)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func (h *Handler) writeHttpError(w http.ResponseWriter, status int, code string, message string, correlationID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"status": "error",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"correlationId": correlationID,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
