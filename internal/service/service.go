// Package service implements the reactor: drives, documents and action processing.
package service

import (
	"context"
	"errors"

	"github.com/brbranch/builder_profile/internal/model"
)

// DriveService はドライブの一覧・作成・取得・ドライブ操作を提供
type DriveService interface {
	GetDriveIDs(ctx context.Context) ([]string, error)
	AddDrive(ctx context.Context, req *AddDriveRequest) (*model.Drive, error)
	GetDrive(ctx context.Context, id string) (*model.Drive, error)
	AddDriveActions(ctx context.Context, driveID string, actions []model.Action) (*ActionResult, error)
}

// DocumentService はドキュメントの作成・取得・アクション適用を提供
type DocumentService interface {
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*model.Document, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	GetDocumentIDs(ctx context.Context, driveID string) ([]string, error)
	AddActions(ctx context.Context, documentID string, actions []model.Action) (*ActionResult, error)
	GetDocumentModels(ctx context.Context) []model.DocumentModelInfo
}

// ActionResult のステータス
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// エラー定義
var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrDriveNotFound        = errors.New("drive not found")
	ErrDriveExists          = errors.New("drive already exists")
	ErrUnknownDocumentType  = errors.New("unknown document type")
	ErrIDRequired           = errors.New("id is required")
	ErrDriveIDRequired      = errors.New("driveId is required")
	ErrDocumentTypeRequired = errors.New("documentType is required")
	ErrNameRequired         = errors.New("name is required")
	ErrInvalidDriveID       = errors.New("drive id contains invalid characters")
	ErrInvalidInput         = errors.New("invalid input")
)
