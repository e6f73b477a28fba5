package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/brbranch/builder_profile/internal/events"
	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/store"
	"go.uber.org/zap"
)

// setNameAction はヘッダー名を変更する基本アクション
const setNameAction = "SET_NAME"

// documentService はDocumentServiceの実装
type documentService struct {
	store     store.Store
	registry  *Registry
	drives    DriveService
	publisher events.Publisher
	logger    *zap.Logger
	mu        sync.Mutex // read-modify-writeの直列化
}

// NewDocumentService はDocumentServiceの新しいインスタンスを作成
func NewDocumentService(s store.Store, registry *Registry, drives DriveService, publisher events.Publisher, logger *zap.Logger) DocumentService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &documentService{
		store:     s,
		registry:  registry,
		drives:    drives,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateDocument はドキュメントを作成する
// Nameが指定されればSET_NAMEを適用し、DriveIDが指定されればADD_FILEでドライブに追加する
func (s *documentService) CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*model.Document, error) {
	if req.DocumentType == "" {
		return nil, ErrDocumentTypeRequired
	}
	dm, ok := s.registry.Get(req.DocumentType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocumentType, req.DocumentType)
	}
	if req.DriveID != "" {
		if _, err := s.drives.GetDrive(ctx, req.DriveID); err != nil {
			return nil, err
		}
	}

	doc, err := dm.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	if req.Name != "" {
		input, _ := json.Marshal(map[string]string{"name": req.Name})
		doc, err = dm.Reduce(doc, normalizeAction(model.Action{Type: setNameAction, Input: input}))
		if err != nil {
			return nil, fmt.Errorf("failed to set document name: %w", err)
		}
	}

	if err := s.store.AddDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to add document: %w", err)
	}
	s.logger.Debug("document created",
		zap.String("documentId", doc.Header.ID),
		zap.String("documentType", doc.Header.DocumentType))

	if req.DriveID != "" {
		name := req.Name
		if name == "" {
			name = doc.Header.ID
		}
		input, _ := json.Marshal(AddFileInput{
			ID:           doc.Header.ID,
			Name:         name,
			DocumentType: doc.Header.DocumentType,
			ParentFolder: req.ParentFolder,
		})
		result, err := s.drives.AddDriveActions(ctx, req.DriveID, []model.Action{{Type: DriveActionAddFile, Input: input}})
		if err != nil {
			return nil, err
		}
		if !result.Succeeded() {
			return nil, fmt.Errorf("failed to add document to drive %s: %s", req.DriveID, derefOr(result.Error, "unknown error"))
		}
	}

	if len(doc.Operations.Global) > 0 {
		s.publish(ctx, doc, req.DriveID, doc.Operations.Global)
	}
	return doc, nil
}

// GetDocument はIDでドキュメントを取得する
func (s *documentService) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetDocumentIDs はドライブ内のファイルノードのIDを返す
func (s *documentService) GetDocumentIDs(ctx context.Context, driveID string) ([]string, error) {
	drive, err := s.drives.GetDrive(ctx, driveID)
	if err != nil {
		return nil, err
	}
	return drive.FileIDs(), nil
}

// AddActions はアクションを順に適用する
// IDがドライブの場合はドライブ操作として処理する
func (s *documentService) AddActions(ctx context.Context, documentID string, actions []model.Action) (*ActionResult, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.GetDocument(ctx, documentID)
	if errors.Is(err, store.ErrNotFound) {
		if _, derr := s.store.GetDrive(ctx, documentID); derr == nil {
			return s.drives.AddDriveActions(ctx, documentID, actions)
		}
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	dm, ok := s.registry.Get(doc.Header.DocumentType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocumentType, doc.Header.DocumentType)
	}

	result := &ActionResult{Status: StatusSuccess, Operations: []model.Operation{}}
	before := len(doc.Operations.Global)
	for _, action := range actions {
		next, err := dm.Reduce(doc, normalizeAction(action))
		if err != nil {
			msg := err.Error()
			result.Status = StatusError
			result.Error = &msg
			s.logger.Info("action rejected",
				zap.String("documentId", documentID),
				zap.String("type", action.Type),
				zap.Error(err))
			break
		}
		doc = next
	}

	applied := doc.Operations.Global[before:]
	if len(applied) > 0 {
		if err := s.store.UpdateDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to update document: %w", err)
		}
		result.Operations = append(result.Operations, applied...)
		s.publish(ctx, doc, "", applied)
	}
	result.Revision = doc.GlobalRevision()
	return result, nil
}

// GetDocumentModels は登録済みドキュメントモデルを返す
func (s *documentService) GetDocumentModels(ctx context.Context) []model.DocumentModelInfo {
	return s.registry.Infos()
}

// publish は操作イベントを配信する（失敗はログのみ）
func (s *documentService) publish(ctx context.Context, doc *model.Document, driveID string, ops []model.Operation) {
	event := events.OperationEvent{
		DocumentID:   doc.Header.ID,
		DocumentType: doc.Header.DocumentType,
		DriveID:      driveID,
		Revision:     doc.GlobalRevision(),
		Operations:   ops,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish operation event",
			zap.String("documentId", doc.Header.ID),
			zap.Error(err))
	}
}

func derefOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
