// Package events publishes operation events after actions are applied to documents.
package events

import (
	"context"

	"github.com/brbranch/builder_profile/internal/model"
)

// DefaultChannelPrefix はRedisチャンネル名のデフォルトprefix
const DefaultChannelPrefix = "builder-profile:operations:"

// OperationEvent はドキュメントに適用された操作の通知
type OperationEvent struct {
	DocumentID   string            `json:"documentId"`
	DocumentType string            `json:"documentType"`
	DriveID      string            `json:"driveId,omitempty"`
	Revision     int               `json:"revision"`
	Operations   []model.Operation `json:"operations"`
}

// Publisher は操作イベントの配信先
type Publisher interface {
	Publish(ctx context.Context, event OperationEvent) error
	Close() error
}

// NoopPublisher は何もしないPublisher
type NoopPublisher struct{}

// NewNoopPublisher はNoopPublisherを作成する
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// Publish は何もしない
func (NoopPublisher) Publish(ctx context.Context, event OperationEvent) error {
	return nil
}

// Close は何もしない
func (NoopPublisher) Close() error {
	return nil
}
