package store

import (
	"errors"
)

// ListOptions はListDocumentIDs操作のオプション
type ListOptions struct {
	DocumentType string // 空の場合は全type
}

// エラー定義
var (
	ErrNotFound         = errors.New("resource not found")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrNotInitialized   = errors.New("store not initialized")
	ErrConnectionFailed = errors.New("failed to connect to store")
)

// DefaultNamespace はnamespace未指定時に使用する値
const DefaultNamespace = "builder-profile"
