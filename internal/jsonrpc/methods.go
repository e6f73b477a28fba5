package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// handleGetDrives は reactor.getDrives を処理
func (h *Handler) handleGetDrives(ctx context.Context) (any, error) {
	ids, err := h.drives.GetDriveIDs(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return map[string]any{
		"driveIds": ids,
	}, nil
}

// handleAddDrive は reactor.addDrive を処理
func (h *Handler) handleAddDrive(ctx context.Context, params any) (any, error) {
	var p AddDriveParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}

	drive, err := h.drives.AddDrive(ctx, p.ToRequest())
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"id":    drive.ID,
		"drive": drive,
	}, nil
}

// handleGetDrive は reactor.getDrive を処理
func (h *Handler) handleGetDrive(ctx context.Context, params any) (any, error) {
	var p GetDriveParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}

	drive, err := h.drives.GetDrive(ctx, p.DriveID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"drive": drive,
	}, nil
}

// handleGetDocuments は reactor.getDocuments を処理
func (h *Handler) handleGetDocuments(ctx context.Context, params any) (any, error) {
	var p GetDocumentsParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}
	driveID := p.Drive()
	if driveID == "" {
		return nil, fmt.Errorf("%w: parentId is required", errInvalidParams)
	}

	ids, err := h.documents.GetDocumentIDs(ctx, driveID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return map[string]any{
		"documentIds": ids,
	}, nil
}

// handleGetDocument は reactor.getDocument を処理
func (h *Handler) handleGetDocument(ctx context.Context, params any) (any, error) {
	var p GetDocumentParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}

	doc, err := h.documents.GetDocument(ctx, p.Document())
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"document": doc,
	}, nil
}

// handleCreateDocument は reactor.createDocument を処理
func (h *Handler) handleCreateDocument(ctx context.Context, params any) (any, error) {
	var p CreateDocumentParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}

	doc, err := h.documents.CreateDocument(ctx, p.ToRequest())
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"documentId": doc.Header.ID,
		"id":         doc.Header.ID,
	}, nil
}

// handleAddActions は reactor.addActions を処理
// 拒否はエラーではなく success:false の結果として返す
func (h *Handler) handleAddActions(ctx context.Context, params any) (any, error) {
	var p AddActionsParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}
	if len(p.Actions) == 0 {
		return nil, fmt.Errorf("%w: actions must not be empty", errInvalidParams)
	}

	result, err := h.documents.AddActions(ctx, p.DocumentID, p.Actions)
	if err != nil {
		return nil, err
	}

	resp := map[string]any{
		"success":    result.Succeeded(),
		"status":     result.Status,
		"operations": result.Operations,
		"revision":   result.Revision,
	}
	if result.Error != nil {
		resp["error"] = *result.Error
	}
	return resp, nil
}

// handleGetDocumentModels は reactor.getDocumentModels を処理
func (h *Handler) handleGetDocumentModels(ctx context.Context) (any, error) {
	return map[string]any{
		"documentModels": h.documents.GetDocumentModels(ctx),
	}, nil
}

// mapParams はparams（any）を構造体にマッピング
func mapParams(params any, target any) error {
	if params == nil {
		return nil
	}

	// anyをJSONに変換してから構造体にアンマーシャル
	b, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	if err := json.Unmarshal(b, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}
