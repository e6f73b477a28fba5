//go:build e2e || store_e2e

package e2e

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/brbranch/builder_profile/internal/builderprofile"
	"github.com/brbranch/builder_profile/internal/jsonrpc"
	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/service"
	"github.com/brbranch/builder_profile/internal/store"
)

// RawResponse はJSON-RPCレスポンス（成功・エラー共通）
type RawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *model.RPCError `json:"error,omitempty"`
}

// ToolResult はtools/callの結果
type ToolResult struct {
	Content           []model.ContentItem `json:"content"`
	StructuredContent map[string]any      `json:"structuredContent"`
	IsError           bool                `json:"isError"`
}

// setupTestHandler はメモリストアを使ったHandlerを構築
func setupTestHandler(t *testing.T) *jsonrpc.Handler {
	t.Helper()

	st := store.NewMemoryStore()
	if err := st.Initialize(context.Background(), "e2e"); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	drives := service.NewDriveService(st)
	documents := service.NewDocumentService(st, service.DefaultRegistry(), drives, nil, nil)
	return jsonrpc.New(drives, documents)
}

// call はJSON-RPCメソッドを呼び出してRawResponseを返す
func call(t *testing.T, h *jsonrpc.Handler, method string, params any) *RawResponse {
	t.Helper()

	reqBytes, err := json.Marshal(model.Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	respBytes := h.Handle(context.Background(), reqBytes)
	var resp RawResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return &resp
}

// callTool はtools/callでツールを呼び出す
func callTool(t *testing.T, h *jsonrpc.Handler, name string, args map[string]any) *ToolResult {
	t.Helper()

	resp := call(t, h, "tools/call", map[string]any{"name": name, "arguments": args})
	if resp.Error != nil {
		t.Fatalf("tools/call %s failed: %v", name, resp.Error)
	}

	result := &ToolResult{}
	resultBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resultBytes, result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	return result
}

// mustTool はisErrorでないことを確認してstructuredContentを返す
func mustTool(t *testing.T, h *jsonrpc.Handler, name string, args map[string]any) map[string]any {
	t.Helper()

	result := callTool(t, h, name, args)
	if result.IsError {
		t.Fatalf("tool %s returned error: %v", name, result.Content)
	}
	return result.StructuredContent
}

// action はアクション生成のエラーをテスト失敗にする
func action(t *testing.T) func(model.Action, error) model.Action {
	return func(a model.Action, err error) model.Action {
		t.Helper()
		if err != nil {
			t.Fatalf("failed to build action: %v", err)
		}
		return a
	}
}

// decodeProfile はgetDocumentの結果からstateを取り出す
func decodeProfile(t *testing.T, structured map[string]any) builderprofile.State {
	t.Helper()

	raw, _ := json.Marshal(structured["document"])
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("failed to unmarshal document: %v", err)
	}
	state, err := builderprofile.DecodeState(&doc)
	if err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	return state
}

func ptr[T any](v T) *T {
	return &v
}
