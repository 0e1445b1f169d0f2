// Package mcp implements the Model Context Protocol server for Limbic
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/SynapseHQ/limbic/internal/memory"
)

// Version is stamped by the CLI before the server starts
var Version = "dev"

// Server implements the MCP protocol over stdio
type Server struct {
	store   *memory.Store
	scanner *bufio.Scanner
}

// MemoryStats contains operational statistics about the memory store
type MemoryStats struct {
	TotalMemories int    `json:"total_memories"`
	DatabaseSize  string `json:"database_size"`
	LastActivity  string `json:"last_activity"`
}

// NewServer creates a new MCP server
func NewServer() (*Server, error) {
	store, err := memory.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}
	return &Server{
		store:   store,
		scanner: bufio.NewScanner(os.Stdin),
	}, nil
}

// Store exposes the underlying memory store
func (s *Server) Store() *memory.Store {
	return s.store
}

// Start begins the MCP server loop
func (s *Server) Start() error {
	fmt.Fprintln(os.Stderr, "🧠 Limbic MCP server ready")

	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			continue
		}

		var request JSONRPCRequest
		if err := json.Unmarshal([]byte(line), &request); err != nil {
			s.sendError(nil, -32700, "Parse error", err.Error())
			continue
		}

		s.handleRequest(&request)
	}

	return s.scanner.Err()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() {
	if s.store != nil {
		s.store.Close()
	}
}

// GetMemoryStats returns operational statistics about the memory store
func (s *Server) GetMemoryStats() MemoryStats {
	count, _ := s.store.Count(context.Background())
	size, _ := s.store.Size()
	lastActivity, _ := s.store.LastActivity(context.Background())

	lastActivityStr := "never"
	if !lastActivity.IsZero() {
		lastActivityStr = lastActivity.Format(time.RFC3339)
	}

	return MemoryStats{
		TotalMemories: count,
		DatabaseSize:  size,
		LastActivity:  lastActivityStr,
	}
}

// handleRequest processes a JSON-RPC request
func (s *Server) handleRequest(req *JSONRPCRequest) {
	ctx := context.Background()

	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "notifications/initialized":
		// Notification, no reply expected
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolCall(ctx, req)
	case "resources/list":
		s.handleResourcesList(req)
	case "resources/read":
		s.handleResourceRead(ctx, req)
	case "prompts/list":
		s.handlePromptsList(req)
	default:
		s.sendError(req.ID, -32601, "Method not found", req.Method)
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *JSONRPCRequest) {
	result := map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{},
			"resources": map[string]interface{}{},
			"prompts":   map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "limbic",
			"version": Version,
		},
	}
	s.sendResult(req.ID, result)
}

// handleToolsList returns available tools
func (s *Server) handleToolsList(req *JSONRPCRequest) {
	tools := []map[string]interface{}{
		{
			"name":        "remember",
			"description": "Store a new memory. Memories carry a title, full content, optional tags for organization, and optional trigger phrases that surface the memory when matching topics come up.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Short, descriptive title (1-200 characters)",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Full content of the memory, markdown welcome",
					},
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Tags for categorization (e.g., 'project', 'preferences')",
					},
					"triggers": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Phrases that should surface this memory (e.g., 'resume work')",
					},
					"pinned": map[string]interface{}{
						"type":        "boolean",
						"description": "Pinned memories never decay in weight",
					},
					"emotional_flag": map[string]interface{}{
						"type":        "boolean",
						"description": "Mark as emotionally significant",
					},
					"type": map[string]interface{}{
						"type":        "string",
						"description": "Free-form kind of memory (default: 'memory')",
					},
					"weight": map[string]interface{}{
						"type":        "number",
						"description": "Initial importance weight between 0.1 and 1.0 (default: 0.8)",
					},
					"metadata": map[string]interface{}{
						"type":        "object",
						"description": "Arbitrary JSON metadata stored with the memory",
					},
				},
				"required": []string{"title", "content"},
			},
		},
		{
			"name":        "get_memory",
			"description": "Fetch a single memory by ID. Also records the access, bumping the access count and last-accessed timestamp.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Memory UUID",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			"name":        "update_memory",
			"description": "Update an existing memory. Only the provided fields change; tags and triggers are replaced entirely when present, never merged.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Memory UUID to update",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "New title (1-200 characters)",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "New content",
					},
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "New tags, replacing the existing set",
					},
					"triggers": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "New trigger phrases, replacing the existing set",
					},
					"weight": map[string]interface{}{
						"type":        "number",
						"description": "New weight between 0.1 and 1.0",
					},
					"pinned": map[string]interface{}{
						"type":        "boolean",
						"description": "Pin or unpin",
					},
					"emotional_flag": map[string]interface{}{
						"type":        "boolean",
						"description": "Set or clear the emotional flag",
					},
					"status": map[string]interface{}{
						"type":        "string",
						"description": "New status, e.g. 'active' or 'archived'",
					},
					"metadata": map[string]interface{}{
						"type":        "object",
						"description": "Replacement metadata document",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			"name":        "forget",
			"description": "Permanently delete a memory. This cannot be undone; consider archiving via update_memory instead.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Memory UUID to delete",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			"name":        "recall",
			"description": "Search memories with full-text search over title and content, tag filtering, or both. A memory must carry every requested tag. Without any filter, returns memories by weight.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Full-text query over title and content",
					},
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Filter by tags (must have ALL specified tags)",
					},
					"status": map[string]interface{}{
						"type":        "string",
						"description": "Status to search within (default: 'active')",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum results, 1-100 (default: 20)",
					},
					"offset": map[string]interface{}{
						"type":        "integer",
						"description": "Pagination offset",
					},
				},
			},
		},
		{
			"name":        "trigger_recall",
			"description": "Find active memories whose trigger phrases contain the given phrase. Useful for surfacing memories when a conversation touches their topics.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"phrase": map[string]interface{}{
						"type":        "string",
						"description": "Phrase to match against stored triggers",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum results (default: 10)",
					},
				},
				"required": []string{"phrase"},
			},
		},
		{
			"name":        "list_memories",
			"description": "Browse memories with filtering, sorting, and pagination. Prefer recall for content search.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"status": map[string]interface{}{
						"type":        "string",
						"description": "Filter by status: 'active', 'archived', or 'all' (default: 'active')",
					},
					"sort_by": map[string]interface{}{
						"type":        "string",
						"description": "Sort field: weight, created_at, updated_at, last_accessed_at, title (default: updated_at)",
					},
					"sort_order": map[string]interface{}{
						"type":        "string",
						"description": "'asc' or 'desc' (default: desc)",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum results, 1-100 (default: 20)",
					},
					"offset": map[string]interface{}{
						"type":        "integer",
						"description": "Pagination offset",
					},
				},
			},
		},
		{
			"name":        "pin_memory",
			"description": "Pin or unpin a memory. Pinned memories are exempt from weight decay.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Memory UUID",
					},
					"pinned": map[string]interface{}{
						"type":        "boolean",
						"description": "True to pin, false to unpin (default: true)",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			"name":        "export_memories",
			"description": "Export memories as a portable snapshot for backup or transfer. The result can be fed back to import_memories.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"include_archived": map[string]interface{}{
						"type":        "boolean",
						"description": "Include archived memories (default: false)",
					},
					"include_metadata": map[string]interface{}{
						"type":        "boolean",
						"description": "Include metadata documents (default: true)",
					},
				},
			},
		},
		{
			"name":        "import_memories",
			"description": "Import memories from a snapshot produced by export_memories. Bad records are reported and skipped without aborting the batch.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"data": map[string]interface{}{
						"type":        "object",
						"description": "Snapshot containing a 'memories' array",
					},
					"overwrite": map[string]interface{}{
						"type":        "boolean",
						"description": "Overwrite existing memories with matching IDs (default: false, skip them)",
					},
					"preserve_ids": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep snapshot IDs instead of generating fresh ones (default: true)",
					},
				},
				"required": []string{"data"},
			},
		},
		{
			"name":        "memory_stats",
			"description": "Get statistics about the memory store: counts by status, weight distribution, top tags, and database size.",
			"inputSchema": map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}

	s.sendResult(req.ID, map[string]interface{}{"tools": tools})
}

// handleToolCall executes a tool
func (s *Server) handleToolCall(ctx context.Context, req *JSONRPCRequest) {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params", err.Error())
		return
	}

	var result interface{}
	var err error

	switch params.Name {
	case "remember":
		result, err = s.toolRemember(ctx, params.Arguments)
	case "get_memory":
		result, err = s.toolGetMemory(ctx, params.Arguments)
	case "update_memory":
		result, err = s.toolUpdateMemory(ctx, params.Arguments)
	case "forget":
		result, err = s.toolForget(ctx, params.Arguments)
	case "recall":
		result, err = s.toolRecall(ctx, params.Arguments)
	case "trigger_recall":
		result, err = s.toolTriggerRecall(ctx, params.Arguments)
	case "list_memories":
		result, err = s.toolListMemories(ctx, params.Arguments)
	case "pin_memory":
		result, err = s.toolPinMemory(ctx, params.Arguments)
	case "export_memories":
		result, err = s.toolExportMemories(ctx, params.Arguments)
	case "import_memories":
		result, err = s.toolImportMemories(ctx, params.Arguments)
	case "memory_stats":
		result, err = s.toolMemoryStats(ctx)
	default:
		s.sendError(req.ID, -32602, "Unknown tool", params.Name)
		return
	}

	if err != nil {
		s.sendResult(req.ID, map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": fmt.Sprintf("Error: %v", err)},
			},
			"isError": true,
		})
		return
	}

	// Format result as MCP content
	text, _ := json.MarshalIndent(result, "", "  ")
	s.sendResult(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(text)},
		},
	})
}

// Tool implementations

func (s *Server) toolRemember(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	title, _ := args["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if len(title) > 200 {
		return nil, fmt.Errorf("title must be 200 characters or fewer")
	}

	content, _ := args["content"].(string)
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}

	p := memory.CreateParams{
		Title:    title,
		Content:  content,
		Tags:     stringSlice(args["tags"]),
		Triggers: stringSlice(args["triggers"]),
	}
	if pinned, ok := args["pinned"].(bool); ok {
		p.Pinned = pinned
	}
	if emotional, ok := args["emotional_flag"].(bool); ok {
		p.Emotional = emotional
	}
	if memType, ok := args["type"].(string); ok {
		p.Type = memType
	}
	if weight, ok := args["weight"].(float64); ok {
		if weight < memory.MinWeight || weight > memory.MaxWeight {
			return nil, fmt.Errorf("weight must be between %v and %v", memory.MinWeight, memory.MaxWeight)
		}
		p.Weight = weight
	}
	if metadata, ok := args["metadata"].(map[string]interface{}); ok {
		p.Metadata = metadata
	}

	return s.store.Create(ctx, p)
}

func (s *Server) toolGetMemory(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("id is required")
	}

	mem, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		return map[string]interface{}{"error": fmt.Sprintf("Memory not found: %s", id)}, nil
	}

	// The returned record is the state before this access was counted
	if _, err := s.store.RecordAccess(ctx, id); err != nil {
		return nil, err
	}

	return mem, nil
}

func (s *Server) toolUpdateMemory(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("id is required")
	}

	var p memory.UpdateParams

	if raw, ok := args["title"]; ok {
		title, _ := raw.(string)
		title = strings.TrimSpace(title)
		if title == "" {
			return nil, fmt.Errorf("title cannot be empty")
		}
		if len(title) > 200 {
			return nil, fmt.Errorf("title must be 200 characters or fewer")
		}
		p.Title = &title
	}
	if raw, ok := args["content"]; ok {
		content, _ := raw.(string)
		content = strings.TrimSpace(content)
		if content == "" {
			return nil, fmt.Errorf("content cannot be empty")
		}
		p.Content = &content
	}
	if raw, ok := args["weight"]; ok {
		weight, _ := raw.(float64)
		if weight < memory.MinWeight || weight > memory.MaxWeight {
			return nil, fmt.Errorf("weight must be between %v and %v", memory.MinWeight, memory.MaxWeight)
		}
		p.Weight = &weight
	}
	if raw, ok := args["pinned"]; ok {
		pinned, _ := raw.(bool)
		p.Pinned = &pinned
	}
	if raw, ok := args["emotional_flag"]; ok {
		emotional, _ := raw.(bool)
		p.Emotional = &emotional
	}
	if raw, ok := args["status"]; ok {
		status, _ := raw.(string)
		if status == "" {
			return nil, fmt.Errorf("status cannot be empty")
		}
		p.Status = &status
	}
	// Presence alone means replacement, an empty array clears the set
	if raw, ok := args["tags"]; ok {
		p.Tags = stringSlice(raw)
		if p.Tags == nil {
			p.Tags = []string{}
		}
	}
	if raw, ok := args["triggers"]; ok {
		p.Triggers = stringSlice(raw)
		if p.Triggers == nil {
			p.Triggers = []string{}
		}
	}
	if metadata, ok := args["metadata"].(map[string]interface{}); ok {
		p.Metadata = metadata
	}

	mem, err := s.store.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		return map[string]interface{}{"error": fmt.Sprintf("Memory not found: %s", id)}, nil
	}
	return mem, nil
}

func (s *Server) toolForget(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("id is required")
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return map[string]interface{}{"error": fmt.Sprintf("Memory not found: %s", id)}, nil
	}

	return map[string]interface{}{
		"success":    true,
		"deleted_id": id,
	}, nil
}

func (s *Server) toolRecall(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	opts := memory.SearchOptions{
		Tags: stringSlice(args["tags"]),
	}
	if query, ok := args["query"].(string); ok {
		opts.Query = query
	}
	if status, ok := args["status"].(string); ok {
		opts.Status = status
	}
	limit, offset, err := pageArgs(args)
	if err != nil {
		return nil, err
	}
	opts.Limit = limit
	opts.Offset = offset

	return s.store.Search(ctx, opts)
}

func (s *Server) toolTriggerRecall(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	phrase, ok := args["phrase"].(string)
	if !ok || strings.TrimSpace(phrase) == "" {
		return nil, fmt.Errorf("phrase is required")
	}

	limit := 10
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
		if limit < 1 || limit > memory.MaxLimit {
			return nil, fmt.Errorf("limit must be between 1 and %d", memory.MaxLimit)
		}
	}

	results, err := s.store.SearchByTrigger(ctx, phrase, limit)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"phrase":   phrase,
		"count":    len(results),
		"memories": results,
	}, nil
}

func (s *Server) toolListMemories(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	opts := memory.ListOptions{Status: "active"}

	if raw, ok := args["status"]; ok {
		switch v := raw.(type) {
		case nil:
			opts.Status = ""
		case string:
			if v == "all" {
				opts.Status = ""
			} else {
				opts.Status = v
			}
		}
	}
	if sortBy, ok := args["sort_by"].(string); ok {
		opts.SortBy = sortBy
	}
	if sortOrder, ok := args["sort_order"].(string); ok {
		opts.SortOrder = sortOrder
	}
	limit, offset, err := pageArgs(args)
	if err != nil {
		return nil, err
	}
	opts.Limit = limit
	opts.Offset = offset

	return s.store.List(ctx, opts)
}

func (s *Server) toolPinMemory(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("id is required")
	}

	pinned := true
	if p, ok := args["pinned"].(bool); ok {
		pinned = p
	}

	mem, err := s.store.Pin(ctx, id, pinned)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		return map[string]interface{}{"error": fmt.Sprintf("Memory not found: %s", id)}, nil
	}
	return mem, nil
}

func (s *Server) toolExportMemories(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	includeArchived := false
	if v, ok := args["include_archived"].(bool); ok {
		includeArchived = v
	}
	includeMetadata := true
	if v, ok := args["include_metadata"].(bool); ok {
		includeMetadata = v
	}

	return s.store.Export(ctx, includeArchived, includeMetadata)
}

func (s *Server) toolImportMemories(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	data, ok := args["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("data is required")
	}

	// Round-trip through JSON to get properly typed snapshot fields
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("invalid import data: %w", err)
	}
	var snap memory.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("invalid import data: %w", err)
	}

	overwrite := false
	if v, ok := args["overwrite"].(bool); ok {
		overwrite = v
	}
	preserveIDs := true
	if v, ok := args["preserve_ids"].(bool); ok {
		preserveIDs = v
	}

	return s.store.Import(ctx, &snap, overwrite, preserveIDs)
}

func (s *Server) toolMemoryStats(ctx context.Context) (interface{}, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	size, _ := s.store.Size()
	lastActivity, _ := s.store.LastActivity(ctx)
	lastActivityStr := "never"
	if !lastActivity.IsZero() {
		lastActivityStr = lastActivity.Format(time.RFC3339)
	}

	return struct {
		*memory.Stats
		DatabaseSize string `json:"database_size"`
		LastActivity string `json:"last_activity"`
	}{stats, size, lastActivityStr}, nil
}

// handleResourcesList returns available resources
func (s *Server) handleResourcesList(req *JSONRPCRequest) {
	resources := []map[string]interface{}{
		{
			"uri":         "limbic://memories/recent",
			"name":        "Recent Memories",
			"description": "Most recently updated memories",
			"mimeType":    "application/json",
		},
		{
			"uri":         "limbic://memories/stats",
			"name":        "Memory Statistics",
			"description": "Statistics about the memory store",
			"mimeType":    "application/json",
		},
	}

	s.sendResult(req.ID, map[string]interface{}{"resources": resources})
}

// handleResourceRead reads a resource
func (s *Server) handleResourceRead(ctx context.Context, req *JSONRPCRequest) {
	var params struct {
		URI string `json:"uri"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params", err.Error())
		return
	}

	var content interface{}
	var err error

	switch params.URI {
	case "limbic://memories/recent":
		content, err = s.toolListMemories(ctx, map[string]interface{}{"limit": float64(10)})
	case "limbic://memories/stats":
		content, err = s.toolMemoryStats(ctx)
	default:
		s.sendError(req.ID, -32602, "Unknown resource", params.URI)
		return
	}

	if err != nil {
		s.sendError(req.ID, -32603, "Internal error", err.Error())
		return
	}

	text, _ := json.MarshalIndent(content, "", "  ")
	s.sendResult(req.ID, map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"uri":      params.URI,
				"mimeType": "application/json",
				"text":     string(text),
			},
		},
	})
}

// handlePromptsList returns available prompts
func (s *Server) handlePromptsList(req *JSONRPCRequest) {
	s.sendResult(req.ID, map[string]interface{}{
		"prompts": []map[string]interface{}{},
	})
}

// JSON-RPC types and helpers

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (s *Server) sendResult(id interface{}, result interface{}) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	data, _ := json.Marshal(resp)
	fmt.Println(string(data))
}

func (s *Server) sendError(id interface{}, code int, message, data string) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
	respData, _ := json.Marshal(resp)
	fmt.Println(string(respData))
}

// stringSlice converts a JSON array argument to []string, dropping
// non-string elements. Returns nil when the argument is not an array.
func stringSlice(raw interface{}) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := []string{}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// pageArgs extracts and bounds the shared limit/offset arguments.
func pageArgs(args map[string]interface{}) (int, int, error) {
	limit := memory.DefaultLimit
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
		if limit < 1 || limit > memory.MaxLimit {
			return 0, 0, fmt.Errorf("limit must be between 1 and %d", memory.MaxLimit)
		}
	}
	offset := 0
	if o, ok := args["offset"].(float64); ok {
		offset = int(o)
		if offset < 0 {
			return 0, 0, fmt.Errorf("offset cannot be negative")
		}
	}
	return limit, offset, nil
}
