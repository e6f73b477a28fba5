// Package jsonrpc implements the JSON-RPC 2.0 / MCP handler for the builder-profile reactor.
package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/service"
)

// Handler はJSON-RPCリクエストを処理する
type Handler struct {
	drives    service.DriveService
	documents service.DocumentService
}

// New は新しいHandlerを生成
func New(drives service.DriveService, documents service.DocumentService) *Handler {
	return &Handler{
		drives:    drives,
		documents: documents,
	}
}

// Handle はJSON-RPCリクエストをパースしてディスパッチ
// 戻り値は *model.Response または *model.ErrorResponse のJSON bytes
// 通知（notifications/*）の場合はnilを返す
func (h *Handler) Handle(ctx context.Context, requestBytes []byte) []byte {
	// 1. パース
	var req model.Request
	if err := json.Unmarshal(requestBytes, &req); err != nil {
		return h.encodeError(model.NewParseError(err.Error()))
	}

	// 2. バージョン確認
	if req.JSONRPC != "2.0" {
		return h.encodeError(model.NewInvalidRequest(req.ID, "jsonrpc must be 2.0"))
	}

	// 3. method確認
	if req.Method == "" {
		return h.encodeError(model.NewInvalidRequest(req.ID, "method is required"))
	}
	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}

	// 4. ディスパッチ
	result, err := h.dispatch(ctx, req.ID, req.Method, req.Params)
	if err != nil {
		return h.encodeError(h.mapError(req.ID, err))
	}

	// 5. 成功レスポンス
	return h.encodeResponse(model.NewResponse(req.ID, result))
}

// dispatch はメソッドに応じて適切なハンドラーを呼び出す
func (h *Handler) dispatch(ctx context.Context, id any, method string, params any) (any, error) {
	switch method {
	case "initialize":
		return h.handleInitialize(ctx, params)
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return h.handleToolsList(ctx, params)
	case "tools/call":
		return h.handleToolsCall(ctx, id, params)
	default:
		return h.dispatchInternal(ctx, method, params)
	}
}

// mapError はサービスエラーをJSON-RPCエラーに変換
func (h *Handler) mapError(id any, err error) *model.ErrorResponse {
	// method not found
	var mnfErr *methodNotFoundError
	if errors.As(err, &mnfErr) {
		return model.NewMethodNotFound(id, mnfErr.method)
	}

	// invalid params
	if errors.Is(err, errInvalidParams) ||
		errors.Is(err, service.ErrIDRequired) ||
		errors.Is(err, service.ErrDriveIDRequired) ||
		errors.Is(err, service.ErrDocumentTypeRequired) ||
		errors.Is(err, service.ErrNameRequired) ||
		errors.Is(err, service.ErrInvalidDriveID) ||
		errors.Is(err, service.ErrInvalidInput) {
		return model.NewInvalidParams(id, err.Error())
	}

	// not found
	if errors.Is(err, service.ErrDocumentNotFound) {
		return model.NewErrorResponse(id, model.ErrCodeNotFound, "Document not found", nil)
	}
	if errors.Is(err, service.ErrDriveNotFound) {
		return model.NewErrorResponse(id, model.ErrCodeNotFound, "Drive not found", nil)
	}

	// conflict
	if errors.Is(err, service.ErrDriveExists) {
		return model.NewErrorResponse(id, model.ErrCodeConflict, err.Error(), nil)
	}

	// unknown document type
	if errors.Is(err, service.ErrUnknownDocumentType) {
		return model.NewErrorResponse(id, model.ErrCodeUnknownModel, err.Error(), nil)
	}

	// internal error
	return model.NewInternalError(id, err.Error())
}

func (h *Handler) encodeResponse(resp *model.Response) []byte {
	b, _ := json.Marshal(resp)
	return b
}

func (h *Handler) encodeError(resp *model.ErrorResponse) []byte {
	b, _ := json.Marshal(resp)
	return b
}

// methodNotFoundError はメソッド未検出エラー
type methodNotFoundError struct {
	method string
}

func (e *methodNotFoundError) Error() string {
	return "method not found: " + e.method
}

// errInvalidParams はパラメータのデコード失敗
var errInvalidParams = errors.New("invalid params")
