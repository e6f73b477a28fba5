package jsonrpc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/service"
	"github.com/brbranch/builder_profile/internal/store"
)

// === MCP initialize テスト ===

func TestHandle_Initialize_Success(t *testing.T) {
	h := newTestHandler()
	req := []byte(`{
		"jsonrpc": "2.0",
		"id": 1,
		"method": "initialize",
		"params": {
			"protocolVersion": "2024-11-05",
			"clientInfo": {"name": "test-client", "version": "1.0.0"},
			"capabilities": {}
		}
	}`)
	result := h.Handle(context.Background(), req)
	resp := parseResponse(t, result)

	if resp["error"] != nil {
		t.Fatalf("unexpected error: %v", resp["error"])
	}

	resultMap := resp["result"].(map[string]any)

	if resultMap["protocolVersion"] != "2024-11-05" {
		t.Errorf("expected protocolVersion '2024-11-05', got %v", resultMap["protocolVersion"])
	}

	serverInfo := resultMap["serverInfo"].(map[string]any)
	if serverInfo["name"] != "builder-profile" {
		t.Errorf("expected serverInfo.name 'builder-profile', got %v", serverInfo["name"])
	}
	if serverInfo["version"] == nil || serverInfo["version"] == "" {
		t.Error("expected serverInfo.version to be non-empty")
	}

	capabilities := resultMap["capabilities"].(map[string]any)
	if capabilities["tools"] == nil {
		t.Error("expected capabilities.tools to exist")
	}
}

// === MCP tools/list テスト ===

func TestHandle_ToolsList_Success(t *testing.T) {
	h := newTestHandler()
	result := h.Handle(context.Background(), makeRequest("tools/list", nil))
	resp := parseResponse(t, result)

	if resp["error"] != nil {
		t.Fatalf("unexpected error: %v", resp["error"])
	}

	tools := resp["result"].(map[string]any)["tools"].([]any)
	if len(tools) != len(toolNameToMethod) {
		t.Errorf("expected %d tools, got %d", len(toolNameToMethod), len(tools))
	}

	seen := make(map[string]bool)
	for _, raw := range tools {
		tool := raw.(map[string]any)
		name := tool["name"].(string)
		seen[name] = true
		if tool["inputSchema"] == nil {
			t.Errorf("expected inputSchema for tool: %s", name)
		}
		if _, ok := toolNameToMethod[name]; !ok {
			t.Errorf("tool %s has no internal method", name)
		}
	}
	for _, name := range []string{"getDrives", "addDrive", "getDocuments", "getDocument", "createDocument", "addActions"} {
		if !seen[name] {
			t.Errorf("expected tool %s to be listed", name)
		}
	}
}

// === MCP tools/call テスト ===

func TestHandle_ToolsCall_StructuredContent(t *testing.T) {
	h := newTestHandler()
	params := map[string]any{"name": "getDocuments", "arguments": map[string]any{"parentId": "drive-1"}}
	resp := parseResponse(t, h.Handle(context.Background(), makeRequest("tools/call", params)))

	if resp["error"] != nil {
		t.Fatalf("unexpected error: %v", resp["error"])
	}
	res := resp["result"].(map[string]any)
	if res["isError"] == true {
		t.Fatalf("unexpected tool error: %v", res["content"])
	}

	content := res["content"].([]any)
	if len(content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(content))
	}
	item := content[0].(map[string]any)
	if item["type"] != "text" {
		t.Errorf("expected type text, got %v", item["type"])
	}
	var fromText map[string]any
	if err := json.Unmarshal([]byte(item["text"].(string)), &fromText); err != nil {
		t.Fatalf("content text is not JSON: %v", err)
	}
	if len(fromText["documentIds"].([]any)) != 2 {
		t.Errorf("unexpected text result: %v", fromText)
	}

	structured := res["structuredContent"].(map[string]any)
	if len(structured["documentIds"].([]any)) != 2 {
		t.Errorf("unexpected structuredContent: %v", structured)
	}
}

func TestHandle_ToolsCall_NoArguments(t *testing.T) {
	h := newTestHandler()
	resp := parseResponse(t, h.Handle(context.Background(), makeRequest("tools/call", map[string]any{"name": "getDrives"})))
	res := resp["result"].(map[string]any)
	if res["isError"] == true {
		t.Fatalf("unexpected tool error: %v", res["content"])
	}
	structured := res["structuredContent"].(map[string]any)
	if len(structured["driveIds"].([]any)) != 1 {
		t.Errorf("unexpected structuredContent: %v", structured)
	}
}

func TestHandle_ToolsCall_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		h      *Handler
	}{
		{
			name:   "missing tool name",
			params: map[string]any{},
			h:      newTestHandler(),
		},
		{
			name:   "unknown tool",
			params: map[string]any{"name": "deleteEverything"},
			h:      newTestHandler(),
		},
		{
			name:   "service error",
			params: map[string]any{"name": "getDocument", "arguments": map[string]any{"id": "missing"}},
			h: New(&mockDriveService{}, &mockDocumentService{
				getDocumentFunc: func(ctx context.Context, id string) (*model.Document, error) {
					return nil, service.ErrDocumentNotFound
				},
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := parseResponse(t, tt.h.Handle(context.Background(), makeRequest("tools/call", tt.params)))
			if resp["error"] != nil {
				t.Fatalf("tool errors must be returned as content, got envelope error %v", resp["error"])
			}
			res := resp["result"].(map[string]any)
			if res["isError"] != true {
				t.Errorf("expected isError true, got %v", res)
			}
			if _, ok := res["structuredContent"]; ok {
				t.Error("expected no structuredContent on error")
			}
		})
	}
}

// === 実サービスを使ったフロー ===

func newReactorHandler(t *testing.T) *Handler {
	t.Helper()
	s := store.NewMemoryStore()
	if err := s.Initialize(context.Background(), "test"); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	drives := service.NewDriveService(s)
	documents := service.NewDocumentService(s, service.DefaultRegistry(), drives, nil, nil)
	return New(drives, documents)
}

func callTool(t *testing.T, h *Handler, name string, args map[string]any) map[string]any {
	t.Helper()
	resp := parseResponse(t, h.Handle(context.Background(), makeRequest("tools/call", map[string]any{"name": name, "arguments": args})))
	if resp["error"] != nil {
		t.Fatalf("%s: unexpected error: %v", name, resp["error"])
	}
	res := resp["result"].(map[string]any)
	if res["isError"] == true {
		t.Fatalf("%s: tool error: %v", name, res["content"])
	}
	return res["structuredContent"].(map[string]any)
}

func TestToolsCall_ReactorFlow(t *testing.T) {
	h := newReactorHandler(t)

	drive := callTool(t, h, "addDrive", map[string]any{
		"driveInput": map[string]any{
			"id":     "BuildersV2",
			"slug":   "BuildersV2",
			"global": map[string]any{"name": "BuildersV2", "icon": nil},
			"local":  map[string]any{"availableOffline": false, "sharingType": nil},
		},
	})
	if drive["id"] != "BuildersV2" {
		t.Fatalf("unexpected drive id: %v", drive["id"])
	}

	created := callTool(t, h, "createDocument", map[string]any{
		"documentType": "powerhouse/builder-profile",
		"name":         "Acme",
		"parentId":     "BuildersV2",
	})
	docID := created["documentId"].(string)
	if docID == "" {
		t.Fatal("expected document id")
	}

	docs := callTool(t, h, "getDocuments", map[string]any{"parentId": "BuildersV2"})
	ids := docs["documentIds"].([]any)
	if len(ids) != 1 || ids[0] != docID {
		t.Errorf("expected [%s], got %v", docID, ids)
	}

	applied := callTool(t, h, "addActions", map[string]any{
		"documentId": docID,
		"actions": []any{
			map[string]any{"type": "UPDATE_PROFILE", "input": map[string]any{"name": "Acme Builders", "slug": "acme"}, "scope": "global"},
			map[string]any{"type": "ADD_SKILL", "input": map[string]any{"skill": "FRONTEND_DEVELOPMENT"}, "scope": "global"},
		},
	})
	if applied["success"] != true {
		t.Fatalf("expected success, got %v", applied)
	}
	if len(applied["operations"].([]any)) != 2 {
		t.Errorf("expected 2 operations, got %v", applied["operations"])
	}

	got := callTool(t, h, "getDocument", map[string]any{"id": docID})
	doc := got["document"].(map[string]any)
	state := doc["state"].(map[string]any)["global"].(map[string]any)
	if state["name"] != "Acme Builders" {
		t.Errorf("expected name 'Acme Builders', got %v", state["name"])
	}
	skills := state["skills"].([]any)
	if len(skills) != 1 || skills[0] != "FRONTEND_DEVELOPMENT" {
		t.Errorf("unexpected skills: %v", skills)
	}
	header := doc["header"].(map[string]any)
	if header["name"] != "Acme" {
		t.Errorf("expected header name 'Acme', got %v", header["name"])
	}

	rejected := callTool(t, h, "addActions", map[string]any{
		"documentId": docID,
		"actions": []any{
			map[string]any{"type": "ADD_SKILL", "input": map[string]any{"skill": "NOT_A_SKILL"}},
		},
	})
	if rejected["success"] != false {
		t.Errorf("expected rejected batch, got %v", rejected)
	}
}

func TestToolsCall_AddDrive_Duplicate(t *testing.T) {
	h := newReactorHandler(t)
	args := map[string]any{"driveInput": map[string]any{"id": "d1", "global": map[string]any{"name": "d1"}}}
	callTool(t, h, "addDrive", args)

	resp := parseResponse(t, h.Handle(context.Background(), makeRequest("reactor.addDrive", args)))
	rpcErr, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error, got %v", resp)
	}
	if rpcErr["code"] != float64(model.ErrCodeConflict) {
		t.Errorf("expected conflict code, got %v", rpcErr["code"])
	}
}
