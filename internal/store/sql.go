package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brbranch/builder_profile/internal/model"
)

// dialect はSQLの方言差分（プレースホルダ形式）
type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// rebind は "?" プレースホルダを方言に合わせて変換する
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS drives (
		namespace TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (namespace, id)
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		namespace TEXT NOT NULL,
		id TEXT NOT NULL,
		document_type TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (namespace, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(namespace, document_type)`,
}

// SQLStore はdatabase/sqlを使用したStore実装（SQLite/PostgreSQL共通）
// ドライブとドキュメントはJSONとしてdata列に保存する
type SQLStore struct {
	mu          sync.RWMutex
	db          *sql.DB
	dialect     dialect
	namespace   string
	initialized bool
}

// Initialize はテーブルを作成してストアを初期化する
func (s *SQLStore) Initialize(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if namespace == "" {
		namespace = DefaultNamespace
	}
	s.namespace = namespace
	s.initialized = true
	return nil
}

// Close はストアをクローズする
func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = false
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB は内部の*sql.DBを返す
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

// AddDrive はドライブを追加する
func (s *SQLStore) AddDrive(ctx context.Context, drive *model.Drive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	data, err := json.Marshal(drive)
	if err != nil {
		return fmt.Errorf("failed to marshal drive: %w", err)
	}

	res, err := s.exec(ctx,
		`INSERT INTO drives (namespace, id, data, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, id) DO NOTHING`,
		s.namespace, drive.ID, string(data), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert drive: %w", err)
	}
	return requireAffected(res, ErrAlreadyExists)
}

// GetDrive はIDでドライブを取得する
func (s *SQLStore) GetDrive(ctx context.Context, id string) (*model.Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	var data string
	err := s.queryRow(ctx, `SELECT data FROM drives WHERE namespace = ? AND id = ?`, s.namespace, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query drive: %w", err)
	}

	var drive model.Drive
	if err := json.Unmarshal([]byte(data), &drive); err != nil {
		return nil, fmt.Errorf("failed to unmarshal drive: %w", err)
	}
	return &drive, nil
}

// UpdateDrive はドライブを更新する
func (s *SQLStore) UpdateDrive(ctx context.Context, drive *model.Drive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	data, err := json.Marshal(drive)
	if err != nil {
		return fmt.Errorf("failed to marshal drive: %w", err)
	}

	res, err := s.exec(ctx, `UPDATE drives SET data = ? WHERE namespace = ? AND id = ?`,
		string(data), s.namespace, drive.ID)
	if err != nil {
		return fmt.Errorf("failed to update drive: %w", err)
	}
	return requireAffected(res, ErrNotFound)
}

// ListDriveIDs は作成順にドライブIDを返す
func (s *SQLStore) ListDriveIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	rows, err := s.query(ctx, `SELECT id FROM drives WHERE namespace = ? ORDER BY created_at, id`, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query drives: %w", err)
	}
	return scanIDs(rows)
}

// AddDocument はドキュメントを追加する
func (s *SQLStore) AddDocument(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	now := time.Now().UnixNano()
	res, err := s.exec(ctx,
		`INSERT INTO documents (namespace, id, document_type, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace, id) DO NOTHING`,
		s.namespace, doc.Header.ID, doc.Header.DocumentType, string(data), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return requireAffected(res, ErrAlreadyExists)
}

// GetDocument はIDでドキュメントを取得する
func (s *SQLStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	var data string
	err := s.queryRow(ctx, `SELECT data FROM documents WHERE namespace = ? AND id = ?`, s.namespace, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	var doc model.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

// UpdateDocument はドキュメントを更新する
func (s *SQLStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := s.exec(ctx, `UPDATE documents SET data = ?, updated_at = ? WHERE namespace = ? AND id = ?`,
		string(data), time.Now().UnixNano(), s.namespace, doc.Header.ID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return requireAffected(res, ErrNotFound)
}

// ListDocumentIDs は作成順にドキュメントIDを返す
func (s *SQLStore) ListDocumentIDs(ctx context.Context, opts ListOptions) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	query := `SELECT id FROM documents WHERE namespace = ?`
	args := []any{s.namespace}
	if opts.DocumentType != "" {
		query += ` AND document_type = ?`
		args = append(args, opts.DocumentType)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return ids, nil
}

// requireAffected は影響行数が0の場合にerrを返す
func requireAffected(res sql.Result, err error) error {
	n, rerr := res.RowsAffected()
	if rerr != nil {
		return fmt.Errorf("failed to get rows affected: %w", rerr)
	}
	if n == 0 {
		return err
	}
	return nil
}
