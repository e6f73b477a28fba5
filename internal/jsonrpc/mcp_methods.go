package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brbranch/builder_profile/internal/model"
)

// ServerVersion はサーバーのバージョン（ビルド時に設定可能）
var ServerVersion = "0.1.0"

// ServerName はinitializeで返すサーバー名
const ServerName = "builder-profile"

// ProtocolVersion はサポートするMCPプロトコルバージョン
const ProtocolVersion = "2024-11-05"

// handleInitialize は initialize メソッドを処理
func (h *Handler) handleInitialize(ctx context.Context, params any) (any, error) {
	// パラメータをパース（検証は最小限）
	var p model.InitializeParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}

	return &model.InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo: model.ServerInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
		Capabilities: model.Capabilities{
			Tools: &model.ToolsCapability{},
		},
	}, nil
}

// handleToolsList は tools/list メソッドを処理
func (h *Handler) handleToolsList(ctx context.Context, params any) (any, error) {
	return &model.ToolsListResult{
		Tools: mcpTools,
	}, nil
}

// handleToolsCall は tools/call メソッドを処理
func (h *Handler) handleToolsCall(ctx context.Context, id any, params any) (any, error) {
	var p model.ToolsCallParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}

	// ツール名必須チェック
	if p.Name == "" {
		return model.NewToolError("Error: tool name is required"), nil
	}

	// ツール名から内部メソッド名を取得
	internalMethod, ok := toolNameToMethod[p.Name]
	if !ok {
		return model.NewToolError(fmt.Sprintf("Tool not found: %s", p.Name)), nil
	}

	// 内部メソッドを呼び出す
	result, err := h.dispatchInternal(ctx, internalMethod, p.Arguments)
	if err != nil {
		// エラーをcontentに含める（MCP仕様）
		return model.NewToolError(fmt.Sprintf("Error: %s", err.Error())), nil
	}

	// 結果をJSON文字列に変換してcontentに含める
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return model.NewToolError(fmt.Sprintf("Error serializing result: %s", err.Error())), nil
	}

	return &model.ToolsCallResult{
		Content: []model.ContentItem{
			model.NewTextContent(string(resultJSON)),
		},
		StructuredContent: result,
	}, nil
}

// dispatchInternal は reactor.* メソッドを呼び出す（tools/callと直接呼び出しで共用）
func (h *Handler) dispatchInternal(ctx context.Context, method string, params any) (any, error) {
	switch method {
	case "reactor.getDrives":
		return h.handleGetDrives(ctx)
	case "reactor.addDrive":
		return h.handleAddDrive(ctx, params)
	case "reactor.getDrive":
		return h.handleGetDrive(ctx, params)
	case "reactor.getDocuments":
		return h.handleGetDocuments(ctx, params)
	case "reactor.getDocument":
		return h.handleGetDocument(ctx, params)
	case "reactor.createDocument":
		return h.handleCreateDocument(ctx, params)
	case "reactor.addActions":
		return h.handleAddActions(ctx, params)
	case "reactor.getDocumentModels":
		return h.handleGetDocumentModels(ctx)
	default:
		return nil, &methodNotFoundError{method: method}
	}
}
