// Package store provides persistence for drives and documents.
package store

import (
	"context"

	"github.com/brbranch/builder_profile/internal/model"
)

// Store はドライブとドキュメントの永続化インターフェース
type Store interface {
	// Drive操作
	AddDrive(ctx context.Context, drive *model.Drive) error
	GetDrive(ctx context.Context, id string) (*model.Drive, error)
	UpdateDrive(ctx context.Context, drive *model.Drive) error
	ListDriveIDs(ctx context.Context) ([]string, error)

	// Document操作
	AddDocument(ctx context.Context, doc *model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	UpdateDocument(ctx context.Context, doc *model.Document) error
	ListDocumentIDs(ctx context.Context, opts ListOptions) ([]string, error)

	// 初期化・終了
	Initialize(ctx context.Context, namespace string) error
	Close() error
}
