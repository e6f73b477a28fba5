package jsonrpc

import (
	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/service"
)

// AddDriveParams は reactor.addDrive のパラメータ
type AddDriveParams struct {
	DriveInput DriveInput `json:"driveInput"`
}

// DriveInput はドライブ作成入力（global/localに分かれる）
type DriveInput struct {
	ID     *string          `json:"id"`
	Slug   *string          `json:"slug"`
	Global DriveGlobalInput `json:"global"`
	Local  DriveLocalInput  `json:"local"`
}

// DriveGlobalInput は共有されるドライブ属性
type DriveGlobalInput struct {
	Name string  `json:"name"`
	Icon *string `json:"icon"`
}

// DriveLocalInput はローカル専用のドライブ属性
type DriveLocalInput struct {
	AvailableOffline bool    `json:"availableOffline"`
	SharingType      *string `json:"sharingType"`
}

// ToRequest はサービスリクエストに変換
func (p *AddDriveParams) ToRequest() *service.AddDriveRequest {
	req := &service.AddDriveRequest{
		Name:             p.DriveInput.Global.Name,
		Icon:             p.DriveInput.Global.Icon,
		AvailableOffline: p.DriveInput.Local.AvailableOffline,
		SharingType:      p.DriveInput.Local.SharingType,
	}
	if p.DriveInput.ID != nil {
		req.ID = *p.DriveInput.ID
	}
	if p.DriveInput.Slug != nil {
		req.Slug = *p.DriveInput.Slug
	}
	return req
}

// GetDriveParams は reactor.getDrive のパラメータ
type GetDriveParams struct {
	DriveID string `json:"driveId"`
}

// GetDocumentsParams は reactor.getDocuments のパラメータ
type GetDocumentsParams struct {
	ParentID string `json:"parentId"`
	DriveID  string `json:"driveId"` // parentIdの別名
}

// Drive はparentIdを優先してドライブIDを返す
func (p *GetDocumentsParams) Drive() string {
	if p.ParentID != "" {
		return p.ParentID
	}
	return p.DriveID
}

// GetDocumentParams は reactor.getDocument のパラメータ
type GetDocumentParams struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"` // idの別名
}

// Document はidを優先してドキュメントIDを返す
func (p *GetDocumentParams) Document() string {
	if p.ID != "" {
		return p.ID
	}
	return p.DocumentID
}

// CreateDocumentParams は reactor.createDocument のパラメータ
type CreateDocumentParams struct {
	DocumentType string  `json:"documentType"`
	Name         *string `json:"name"`
	ParentID     *string `json:"parentId"` // 追加先のドライブID
	ParentFolder *string `json:"parentFolder"`
}

// ToRequest はサービスリクエストに変換
func (p *CreateDocumentParams) ToRequest() *service.CreateDocumentRequest {
	req := &service.CreateDocumentRequest{
		DocumentType: p.DocumentType,
		ParentFolder: p.ParentFolder,
	}
	if p.Name != nil {
		req.Name = *p.Name
	}
	if p.ParentID != nil {
		req.DriveID = *p.ParentID
	}
	return req
}

// AddActionsParams は reactor.addActions のパラメータ
type AddActionsParams struct {
	DocumentID string         `json:"documentId"`
	Actions    []model.Action `json:"actions"`
}
