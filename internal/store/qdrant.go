package store

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brbranch/builder_profile/internal/model"
	"github.com/qdrant/go-client/qdrant"
)

const (
	pointTypeDrive    = "drive"
	pointTypeDocument = "document"

	// qdrantScrollLimit は一覧取得時に1回で読むポイント数
	qdrantScrollLimit = 10000
)

// sanitizeCollectionName はQdrantのコレクション名として使用できる文字列に変換する
// Qdrantは ":" などの特殊文字をコレクション名に使用できないため
func sanitizeCollectionName(name string) string {
	return strings.ReplaceAll(name, ":", "_")
}

// QdrantStore はQdrantを使用したStore実装
// ドライブ・ドキュメントはpayloadにJSONで保持し、ベクトルは1次元のダミーを使う
type QdrantStore struct {
	client      *qdrant.Client
	url         string
	namespace   string
	initialized bool
	mu          sync.RWMutex // initializedフラグの保護
	writeMu     sync.Mutex   // 存在確認と書き込みの直列化
}

// NewQdrantStore はQdrantStoreを作成する
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	host := parsedURL.Hostname()
	portStr := parsedURL.Port()
	// Qdrant gRPCポートはデフォルト6334（HTTPは6333）
	port := 6334
	if portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			if p == 6333 {
				port = 6334 // HTTPポート指定の場合はgRPCポートに変換
			} else {
				port = p
			}
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   host,
		Port:                   port,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, ErrConnectionFailed
	}

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.HealthCheck(ctx); err != nil {
		client.Close()
		return nil, ErrConnectionFailed
	}

	return &QdrantStore{
		client: client,
		url:    urlStr,
	}, nil
}

func (s *QdrantStore) driveCollection() string {
	return sanitizeCollectionName(s.namespace) + "_drives"
}

func (s *QdrantStore) documentCollection() string {
	return sanitizeCollectionName(s.namespace) + "_documents"
}

// Initialize はコレクションを作成してストアを初期化する
func (s *QdrantStore) Initialize(ctx context.Context, namespace string) error {
	if s.client == nil {
		return ErrConnectionFailed
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	base := sanitizeCollectionName(namespace)
	for _, name := range []string{base + "_drives", base + "_documents"} {
		exists, err := s.client.CollectionExists(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check collection existence: %w", err)
		}
		if exists {
			continue
		}
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     1, // ダミーベクトル（1次元）
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}

	s.mu.Lock()
	s.namespace = namespace
	s.initialized = true
	s.mu.Unlock()
	return nil
}

// Close はストアをクローズする
func (s *QdrantStore) Close() error {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

// isInitialized は初期化状態を安全に取得する
func (s *QdrantStore) isInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// AddDrive はドライブを追加する
func (s *QdrantStore) AddDrive(ctx context.Context, drive *model.Drive) error {
	if !s.isInitialized() {
		return ErrNotInitialized
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.getPayload(ctx, s.driveCollection(), drive.ID); err == nil {
		return ErrAlreadyExists
	} else if err != ErrNotFound {
		return err
	}
	return s.upsert(ctx, s.driveCollection(), pointTypeDrive, drive.ID, "", drive, time.Now().UnixNano())
}

// GetDrive はIDでドライブを取得する
func (s *QdrantStore) GetDrive(ctx context.Context, id string) (*model.Drive, error) {
	if !s.isInitialized() {
		return nil, ErrNotInitialized
	}

	payload, err := s.getPayload(ctx, s.driveCollection(), id)
	if err != nil {
		return nil, err
	}
	var drive model.Drive
	if err := decodePayloadData(payload, &drive); err != nil {
		return nil, err
	}
	return &drive, nil
}

// UpdateDrive はドライブを更新する
func (s *QdrantStore) UpdateDrive(ctx context.Context, drive *model.Drive) error {
	if !s.isInitialized() {
		return ErrNotInitialized
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	payload, err := s.getPayload(ctx, s.driveCollection(), drive.ID)
	if err != nil {
		return err
	}
	return s.upsert(ctx, s.driveCollection(), pointTypeDrive, drive.ID, "", drive, payloadCreatedAt(payload))
}

// ListDriveIDs は作成順にドライブIDを返す
func (s *QdrantStore) ListDriveIDs(ctx context.Context) ([]string, error) {
	if !s.isInitialized() {
		return nil, ErrNotInitialized
	}
	return s.listIDs(ctx, s.driveCollection(), &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("type", pointTypeDrive)},
	})
}

// AddDocument はドキュメントを追加する
func (s *QdrantStore) AddDocument(ctx context.Context, doc *model.Document) error {
	if !s.isInitialized() {
		return ErrNotInitialized
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.getPayload(ctx, s.documentCollection(), doc.Header.ID); err == nil {
		return ErrAlreadyExists
	} else if err != ErrNotFound {
		return err
	}
	return s.upsert(ctx, s.documentCollection(), pointTypeDocument, doc.Header.ID, doc.Header.DocumentType, doc, time.Now().UnixNano())
}

// GetDocument はIDでドキュメントを取得する
func (s *QdrantStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	if !s.isInitialized() {
		return nil, ErrNotInitialized
	}

	payload, err := s.getPayload(ctx, s.documentCollection(), id)
	if err != nil {
		return nil, err
	}
	var doc model.Document
	if err := decodePayloadData(payload, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument はドキュメントを更新する
func (s *QdrantStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	if !s.isInitialized() {
		return ErrNotInitialized
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	payload, err := s.getPayload(ctx, s.documentCollection(), doc.Header.ID)
	if err != nil {
		return err
	}
	return s.upsert(ctx, s.documentCollection(), pointTypeDocument, doc.Header.ID, doc.Header.DocumentType, doc, payloadCreatedAt(payload))
}

// ListDocumentIDs は作成順にドキュメントIDを返す
func (s *QdrantStore) ListDocumentIDs(ctx context.Context, opts ListOptions) ([]string, error) {
	if !s.isInitialized() {
		return nil, ErrNotInitialized
	}

	conditions := []*qdrant.Condition{qdrant.NewMatch("type", pointTypeDocument)}
	if opts.DocumentType != "" {
		conditions = append(conditions, qdrant.NewMatch("documentType", opts.DocumentType))
	}
	return s.listIDs(ctx, s.documentCollection(), &qdrant.Filter{Must: conditions})
}

// upsert はJSONをpayloadに格納したポイントを書き込む
func (s *QdrantStore) upsert(ctx context.Context, collection, pointType, id, documentType string, v any, createdAt int64) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", pointType, err)
	}

	payload := make(map[string]*qdrant.Value)
	payload["id"], _ = qdrant.NewValue(id)
	payload["type"], _ = qdrant.NewValue(pointType)
	payload["data"], _ = qdrant.NewValue(string(data))
	payload["createdAt"], _ = qdrant.NewValue(createdAt)
	if documentType != "" {
		payload["documentType"], _ = qdrant.NewValue(documentType)
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDNum(hashID(id)),
				Vectors: qdrant.NewVectors(1.0),
				Payload: payload,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", pointType, err)
	}
	return nil
}

// getPayload はIDのポイントのpayloadを取得する
func (s *QdrantStore) getPayload(ctx context.Context, collection, id string) (map[string]*qdrant.Value, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(hashID(id))},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get point: %w", err)
	}
	if len(points) == 0 {
		return nil, ErrNotFound
	}
	return points[0].Payload, nil
}

// listIDs はフィルタに一致するポイントのIDを作成順に返す
func (s *QdrantStore) listIDs(ctx context.Context, collection string, filter *qdrant.Filter) ([]string, error) {
	// Qdrant Scrollは順序保証がないため、取得後にcreatedAtでソートする
	scrollResp, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint32(qdrantScrollLimit)),
		WithPayload:    qdrant.NewWithPayloadInclude("id", "createdAt"),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll points: %w", err)
	}

	type entry struct {
		id        string
		createdAt int64
	}
	entries := make([]entry, 0, len(scrollResp))
	for _, point := range scrollResp {
		v, ok := point.Payload["id"]
		if !ok || v.GetStringValue() == "" {
			continue
		}
		entries = append(entries, entry{id: v.GetStringValue(), createdAt: payloadCreatedAt(point.Payload)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].createdAt != entries[j].createdAt {
			return entries[i].createdAt < entries[j].createdAt
		}
		return entries[i].id < entries[j].id
	})

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids, nil
}

func payloadCreatedAt(payload map[string]*qdrant.Value) int64 {
	if v, ok := payload["createdAt"]; ok {
		return v.GetIntegerValue()
	}
	return 0
}

func decodePayloadData(payload map[string]*qdrant.Value, dst any) error {
	v, ok := payload["data"]
	if !ok {
		return fmt.Errorf("payload has no data field")
	}
	if err := json.Unmarshal([]byte(v.GetStringValue()), dst); err != nil {
		return fmt.Errorf("failed to unmarshal payload data: %w", err)
	}
	return nil
}

// hashID は文字列IDを数値IDに変換する
func hashID(id string) uint64 {
	// SHA256ハッシュの先頭8バイトを使用して衝突耐性を向上
	h := sha256.Sum256([]byte(id))
	return binary.BigEndian.Uint64(h[:8])
}
