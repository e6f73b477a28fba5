package service

import "github.com/brbranch/builder_profile/internal/model"

// AddDriveRequest はドライブ作成リクエスト
type AddDriveRequest struct {
	ID               string  // 空ならUUIDを生成
	Slug             string  // 空ならIDと同じ
	Name             string  `validate:"required"`
	Icon             *string `validate:"omitempty,url"`
	AvailableOffline bool
	SharingType      *string `validate:"omitempty,oneof=PRIVATE SHARED PUBLIC"`
}

// CreateDocumentRequest はドキュメント作成リクエスト
type CreateDocumentRequest struct {
	DocumentType string
	Name         string // 空でなければSET_NAMEを適用
	DriveID      string // 空でなければADD_FILEでドライブに追加
	ParentFolder *string
}

// ActionResult はアクション適用結果
// 途中で拒否された場合、それまでに適用された操作はOperationsに含まれる
type ActionResult struct {
	Status     string            `json:"status"` // "SUCCESS" | "ERROR"
	Error      *string           `json:"error,omitempty"`
	Operations []model.Operation `json:"operations"`
	Revision   int               `json:"revision"`
}

// Succeeded はStatusがSUCCESSかを返す
func (r *ActionResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Drive action type定数
const (
	DriveActionAddFile      = "ADD_FILE"
	DriveActionAddFolder    = "ADD_FOLDER"
	DriveActionDeleteNode   = "DELETE_NODE"
	DriveActionSetDriveName = "SET_DRIVE_NAME"
)

// AddFileInput はADD_FILEの入力
type AddFileInput struct {
	ID           string  `json:"id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	DocumentType string  `json:"documentType" validate:"required"`
	ParentFolder *string `json:"parentFolder,omitempty"`
}

// AddFolderInput はADD_FOLDERの入力
type AddFolderInput struct {
	ID           string  `json:"id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	ParentFolder *string `json:"parentFolder,omitempty"`
}

// DeleteNodeInput はDELETE_NODEの入力
type DeleteNodeInput struct {
	ID string `json:"id" validate:"required"`
}

// SetDriveNameInput はSET_DRIVE_NAMEの入力
type SetDriveNameInput struct {
	Name string `json:"name" validate:"required"`
}
