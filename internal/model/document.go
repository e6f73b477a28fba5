package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScopeGlobal はグローバルスコープ（全ドキュメント共通で唯一使用するスコープ）
const ScopeGlobal = "global"

// Action はドキュメントに適用するアクション
type Action struct {
	ID             string          `json:"id"`             // UUID形式
	Type           string          `json:"type"`           // 例: "UPDATE_PROFILE"
	Scope          string          `json:"scope"`          // 常に "global"
	Input          json.RawMessage `json:"input"`          // 操作ごとの入力（JSON）
	TimestampUtcMs int64           `json:"timestampUtcMs"` // UTCエポックミリ秒
}

// Operation はドキュメントに適用済みのアクション（操作ログの1件）
type Operation struct {
	Index          int     `json:"index"`          // スコープ内の連番（0始まり）
	TimestampUtcMs int64   `json:"timestampUtcMs"` // 適用時刻
	Hash           string  `json:"hash"`           // 適用後stateのハッシュ
	Action         Action  `json:"action"`
	Error          *string `json:"error,omitempty"`
}

// DocumentHeader はドキュメントのメタ情報
type DocumentHeader struct {
	ID                   string         `json:"id"`
	DocumentType         string         `json:"documentType"`
	Name                 string         `json:"name"`
	Slug                 string         `json:"slug"`
	CreatedAtUtcIso      string         `json:"createdAtUtcIso"`
	LastModifiedAtUtcIso string         `json:"lastModifiedAtUtcIso"`
	Revision             map[string]int `json:"revision"` // scope -> 適用済み操作数
}

// DocumentState はスコープごとのstate
type DocumentState struct {
	Global json.RawMessage `json:"global"`
}

// DocumentOperations はスコープごとの操作ログ
type DocumentOperations struct {
	Global []Operation `json:"global"`
}

// Document はドキュメントモデルのインスタンス
// stateはドキュメント型ごとに形が異なるため json.RawMessage で保持する
type Document struct {
	Header       DocumentHeader     `json:"header"`
	State        DocumentState      `json:"state"`
	InitialState DocumentState      `json:"initialState"`
	Operations   DocumentOperations `json:"operations"`
}

// Clone はドキュメントのディープコピーを返す
func (d *Document) Clone() *Document {
	c := *d
	c.Header.Revision = make(map[string]int, len(d.Header.Revision))
	for k, v := range d.Header.Revision {
		c.Header.Revision[k] = v
	}
	c.State.Global = cloneRaw(d.State.Global)
	c.InitialState.Global = cloneRaw(d.InitialState.Global)
	c.Operations.Global = make([]Operation, len(d.Operations.Global))
	copy(c.Operations.Global, d.Operations.Global)
	return &c
}

// GlobalRevision はグローバルスコープのリビジョンを返す
func (d *Document) GlobalRevision() int {
	if d.Header.Revision == nil {
		return 0
	}
	return d.Header.Revision[ScopeGlobal]
}

// Validate はDocumentのバリデーションを実行する
func (d *Document) Validate() error {
	if d.Header.ID == "" {
		return fmt.Errorf("header.id must not be empty")
	}
	if d.Header.DocumentType == "" {
		return fmt.Errorf("header.documentType must not be empty")
	}
	if len(d.State.Global) == 0 {
		return fmt.Errorf("state.global must not be empty")
	}
	return nil
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	c := make(json.RawMessage, len(raw))
	copy(c, raw)
	return c
}

// FormatTimestamp はエポックミリ秒をISO8601 UTC（ミリ秒付き）に変換する
// 例: 2024-01-02T03:04:05.678Z
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

// NowMillis は現在時刻のエポックミリ秒を返す
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Author はドキュメントモデルの作者
type Author struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

// ModuleInfo はドキュメントモデルのモジュール（操作のまとまり）
type ModuleInfo struct {
	Name       string   `json:"name"`
	Operations []string `json:"operations"`
}

// DocumentModelInfo はドキュメントモデルのメタ情報
type DocumentModelInfo struct {
	ID          string       `json:"id"` // documentType
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Extension   string       `json:"extension"`
	Author      Author       `json:"author"`
	Modules     []ModuleInfo `json:"modules"`
}
