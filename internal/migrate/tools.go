package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brbranch/builder_profile/internal/model"
)

// Endpoint はマイグレーションで使うMCPツール呼び出し
type Endpoint interface {
	GetDrives(ctx context.Context) ([]string, error)
	AddDrive(ctx context.Context, name string) (string, error)
	GetDocumentIDs(ctx context.Context, driveID string) ([]string, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	CreateDocument(ctx context.Context, documentType string) (string, error)
	AddActions(ctx context.Context, documentID string, actions []model.Action) error
}

var _ Endpoint = (*Client)(nil)

// ErrActionsRejected はaddActionsがsuccess:falseを返した場合のエラー
var ErrActionsRejected = errors.New("actions rejected")

// GetDrives はドライブID一覧を返す
func (c *Client) GetDrives(ctx context.Context) ([]string, error) {
	var out struct {
		DriveIDs []string `json:"driveIds"`
	}
	if err := c.CallTool(ctx, "getDrives", nil, &out); err != nil {
		return nil, err
	}
	return out.DriveIDs, nil
}

// AddDrive はid・slug・名前がすべてnameのドライブを作成し、ドライブIDを返す
// レスポンスにIDが無い場合はnameをIDとみなす
func (c *Client) AddDrive(ctx context.Context, name string) (string, error) {
	args := map[string]any{
		"driveInput": map[string]any{
			"id":   name,
			"slug": name,
			"global": map[string]any{
				"name": name,
				"icon": nil,
			},
			"local": map[string]any{
				"availableOffline": false,
				"sharingType":      nil,
			},
		},
	}
	var out struct {
		ID    string `json:"id"`
		Drive *struct {
			ID string `json:"id"`
		} `json:"drive"`
	}
	if err := c.CallTool(ctx, "addDrive", args, &out); err != nil {
		return "", err
	}
	switch {
	case out.ID != "":
		return out.ID, nil
	case out.Drive != nil && out.Drive.ID != "":
		return out.Drive.ID, nil
	default:
		return name, nil
	}
}

// GetDocumentIDs はドライブ内のドキュメントID一覧を返す
func (c *Client) GetDocumentIDs(ctx context.Context, driveID string) ([]string, error) {
	var out struct {
		DocumentIDs []string `json:"documentIds"`
	}
	if err := c.CallTool(ctx, "getDocuments", map[string]any{"parentId": driveID}, &out); err != nil {
		return nil, err
	}
	return out.DocumentIDs, nil
}

// sourceDocument は移行に必要なヘッダーとglobal stateのみを読み取る
// 操作ログやrevisionは移行元の実装ごとに形が異なるため読まない
type sourceDocument struct {
	Header struct {
		ID           string `json:"id"`
		DocumentType string `json:"documentType"`
		Name         string `json:"name"`
	} `json:"header"`
	State struct {
		Global json.RawMessage `json:"global"`
	} `json:"state"`
}

// GetDocument はドキュメントのヘッダーとglobal stateを取得する
func (c *Client) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var out struct {
		Document *sourceDocument `json:"document"`
	}
	if err := c.CallTool(ctx, "getDocument", map[string]any{"id": id}, &out); err != nil {
		return nil, err
	}
	if out.Document == nil {
		return nil, fmt.Errorf("no document returned for id %s", id)
	}
	src := out.Document
	return &model.Document{
		Header: model.DocumentHeader{
			ID:           src.Header.ID,
			DocumentType: src.Header.DocumentType,
			Name:         src.Header.Name,
		},
		State: model.DocumentState{Global: src.State.Global},
	}, nil
}

// CreateDocument はドキュメントを作成し、そのIDを返す
// IDは id / documentId / document.id / header.id の順に探す
func (c *Client) CreateDocument(ctx context.Context, documentType string) (string, error) {
	var out map[string]any
	if err := c.CallTool(ctx, "createDocument", map[string]any{"documentType": documentType}, &out); err != nil {
		return "", err
	}
	if id := createdDocumentID(out); id != "" {
		return id, nil
	}
	return "", errors.New("no document id returned from createDocument")
}

func createdDocumentID(out map[string]any) string {
	if id, ok := out["id"].(string); ok && id != "" {
		return id
	}
	if id, ok := out["documentId"].(string); ok && id != "" {
		return id
	}
	for _, key := range []string{"document", "header"} {
		if nested, ok := out[key].(map[string]any); ok {
			if id, ok := nested["id"].(string); ok && id != "" {
				return id
			}
		}
	}
	return ""
}

// AddActions はドキュメント（またはドライブ）にアクションを送信する
func (c *Client) AddActions(ctx context.Context, documentID string, actions []model.Action) error {
	var out struct {
		Success *bool   `json:"success"`
		Error   *string `json:"error"`
	}
	args := map[string]any{"documentId": documentID, "actions": actions}
	if err := c.CallTool(ctx, "addActions", args, &out); err != nil {
		return err
	}
	if out.Success != nil && !*out.Success {
		if out.Error != nil && *out.Error != "" {
			return fmt.Errorf("%w: %s", ErrActionsRejected, *out.Error)
		}
		return ErrActionsRejected
	}
	return nil
}
