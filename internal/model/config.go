package model

// Config はサーバー全体の設定を表す
type Config struct {
	TransportDefaults TransportDefaults `json:"transportDefaults" yaml:"transportDefaults"`
	Store             StoreConfig       `json:"store" yaml:"store"`
	Events            EventsConfig      `json:"events" yaml:"events"`
	HTTP              HTTPConfig        `json:"http" yaml:"http"`
	Paths             PathsConfig       `json:"paths" yaml:"paths"`
	Log               LogConfig         `json:"log" yaml:"log"`
}

// TransportDefaults はtransportのデフォルト設定
type TransportDefaults struct {
	DefaultTransport string `json:"defaultTransport" yaml:"defaultTransport"` // "stdio" | "http"
}

// StoreConfig はドキュメントストア設定
type StoreConfig struct {
	Type string  `json:"type" yaml:"type"`                     // "memory" | "sqlite" | "postgres" | "qdrant"
	Path *string `json:"path,omitempty" yaml:"path,omitempty"` // nullable（SQLite用）
	URL  *string `json:"url,omitempty" yaml:"url,omitempty"`   // nullable（Postgres/Qdrant用）
	// Namespace は同一ストア内でデータを分離するキー（空ならデフォルト）
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// EventsConfig は操作イベント配信設定
type EventsConfig struct {
	Type          string  `json:"type" yaml:"type"`                   // "none" | "redis"
	URL           *string `json:"url,omitempty" yaml:"url,omitempty"` // redis://...
	ChannelPrefix string  `json:"channelPrefix,omitempty" yaml:"channelPrefix,omitempty"`
}

// HTTPConfig はHTTP transport設定
type HTTPConfig struct {
	CORSOrigins []string `json:"corsOrigins,omitempty" yaml:"corsOrigins,omitempty"` // 空ならCORS無効
}

// PathsConfig はファイルパス設定
type PathsConfig struct {
	ConfigPath string `json:"configPath" yaml:"configPath"` // 設定ファイルパス
	DataDir    string `json:"dataDir" yaml:"dataDir"`       // データディレクトリ
}

// LogConfig はログ設定
type LogConfig struct {
	Env string `json:"env" yaml:"env"` // "development" | "production"
}

// Transport定数
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Store Type定数
const (
	StoreTypeMemory   = "memory"
	StoreTypeSQLite   = "sqlite"
	StoreTypePostgres = "postgres"
	StoreTypeQdrant   = "qdrant"
)

// Events Type定数
const (
	EventsTypeNone  = "none"
	EventsTypeRedis = "redis"
)
