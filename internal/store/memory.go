package store

import (
	"context"
	"sync"

	"github.com/brbranch/builder_profile/internal/model"
)

// MemoryStore はインメモリのStore実装（デフォルト・テスト用）
type MemoryStore struct {
	mu          sync.RWMutex
	drives      map[string]*model.Drive
	driveOrder  []string // 追加順
	documents   map[string]*model.Document
	docOrder    []string // 追加順
	initialized bool
	namespace   string
}

// NewMemoryStore はMemoryStoreを作成する
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drives:    make(map[string]*model.Drive),
		documents: make(map[string]*model.Document),
	}
}

// Initialize はストアを初期化する
func (s *MemoryStore) Initialize(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.namespace = namespace
	s.initialized = true
	return nil
}

// Close はストアをクローズする
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drives = make(map[string]*model.Drive)
	s.documents = make(map[string]*model.Document)
	s.driveOrder = nil
	s.docOrder = nil
	s.initialized = false
	return nil
}

// AddDrive はドライブを追加する
func (s *MemoryStore) AddDrive(ctx context.Context, drive *model.Drive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if _, ok := s.drives[drive.ID]; ok {
		return ErrAlreadyExists
	}

	s.drives[drive.ID] = drive.Clone()
	s.driveOrder = append(s.driveOrder, drive.ID)
	return nil
}

// GetDrive はIDでドライブを取得する
func (s *MemoryStore) GetDrive(ctx context.Context, id string) (*model.Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	d, ok := s.drives[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

// UpdateDrive はドライブを更新する
func (s *MemoryStore) UpdateDrive(ctx context.Context, drive *model.Drive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if _, ok := s.drives[drive.ID]; !ok {
		return ErrNotFound
	}

	s.drives[drive.ID] = drive.Clone()
	return nil
}

// ListDriveIDs は追加順にドライブIDを返す
func (s *MemoryStore) ListDriveIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	ids := make([]string, len(s.driveOrder))
	copy(ids, s.driveOrder)
	return ids, nil
}

// AddDocument はドキュメントを追加する
func (s *MemoryStore) AddDocument(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if _, ok := s.documents[doc.Header.ID]; ok {
		return ErrAlreadyExists
	}

	s.documents[doc.Header.ID] = doc.Clone()
	s.docOrder = append(s.docOrder, doc.Header.ID)
	return nil
}

// GetDocument はIDでドキュメントを取得する
func (s *MemoryStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

// UpdateDocument はドキュメントを更新する
func (s *MemoryStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if _, ok := s.documents[doc.Header.ID]; !ok {
		return ErrNotFound
	}

	s.documents[doc.Header.ID] = doc.Clone()
	return nil
}

// ListDocumentIDs は追加順にドキュメントIDを返す
func (s *MemoryStore) ListDocumentIDs(ctx context.Context, opts ListOptions) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	ids := make([]string, 0, len(s.docOrder))
	for _, id := range s.docOrder {
		if opts.DocumentType != "" && s.documents[id].Header.DocumentType != opts.DocumentType {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
