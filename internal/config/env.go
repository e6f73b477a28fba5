package config

import (
	"os"
	"strings"

	"github.com/brbranch/builder_profile/internal/model"
	"github.com/joho/godotenv"
)

// 環境変数名の定数
const (
	EnvStoreType = "BUILDER_PROFILE_STORE_TYPE"
	EnvStorePath = "BUILDER_PROFILE_STORE_PATH"
	EnvStoreURL  = "BUILDER_PROFILE_STORE_URL"
	EnvNamespace = "BUILDER_PROFILE_NAMESPACE"
	EnvRedisURL  = "BUILDER_PROFILE_REDIS_URL"
	EnvLogEnv    = "BUILDER_PROFILE_LOG_ENV"
	EnvCORS      = "BUILDER_PROFILE_CORS_ORIGINS"
)

// LoadDotEnv は.envファイルを環境変数に読み込む
// 既に設定済みの環境変数は上書きしない。ファイルが無い場合は何もしない
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnvOverrides は環境変数による設定上書きを適用する
// config を直接変更する
func ApplyEnvOverrides(config *model.Config) {
	if v := os.Getenv(EnvStoreType); v != "" {
		config.Store.Type = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		config.Store.Path = &v
	}
	if v := os.Getenv(EnvStoreURL); v != "" {
		config.Store.URL = &v
	}
	if v := os.Getenv(EnvNamespace); v != "" {
		config.Store.Namespace = v
	}

	// Redis URLが指定された場合はイベント配信を有効化
	if v := os.Getenv(EnvRedisURL); v != "" {
		config.Events.Type = model.EventsTypeRedis
		config.Events.URL = &v
	}

	if v := os.Getenv(EnvLogEnv); v != "" {
		config.Log.Env = v
	}

	if v := os.Getenv(EnvCORS); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		config.HTTP.CORSOrigins = origins
	}
}
