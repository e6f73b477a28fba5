package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/brbranch/builder_profile/internal/model"
)

// clearEnv はテスト中の環境変数上書きを無効化する
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvStoreType, EnvStorePath, EnvStoreURL, EnvNamespace, EnvRedisURL, EnvLogEnv, EnvCORS} {
		t.Setenv(key, "")
	}
}

// TestApplyEnvOverrides_Store はストア設定の環境変数上書きをテスト
func TestApplyEnvOverrides_Store(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStoreType, "postgres")
	t.Setenv(EnvStoreURL, "postgres://localhost:5432/reactor")
	t.Setenv(EnvNamespace, "staging")

	cfg := DefaultConfig("/tmp/config.json", "/tmp/data")
	ApplyEnvOverrides(cfg)

	if cfg.Store.Type != model.StoreTypePostgres {
		t.Errorf("expected store type %q, got %q", model.StoreTypePostgres, cfg.Store.Type)
	}
	if cfg.Store.URL == nil || *cfg.Store.URL != "postgres://localhost:5432/reactor" {
		t.Errorf("unexpected store url: %v", cfg.Store.URL)
	}
	if cfg.Store.Path != nil {
		t.Errorf("expected nil store path, got %q", *cfg.Store.Path)
	}
	if cfg.Store.Namespace != "staging" {
		t.Errorf("expected namespace 'staging', got %q", cfg.Store.Namespace)
	}
}

// TestApplyEnvOverrides_RedisEnablesEvents はRedis URL指定でイベント配信が有効になることをテスト
func TestApplyEnvOverrides_RedisEnablesEvents(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg := DefaultConfig("/tmp/config.json", "/tmp/data")
	ApplyEnvOverrides(cfg)

	if cfg.Events.Type != model.EventsTypeRedis {
		t.Errorf("expected events type %q, got %q", model.EventsTypeRedis, cfg.Events.Type)
	}
	if cfg.Events.URL == nil || *cfg.Events.URL != "redis://localhost:6379/0" {
		t.Errorf("unexpected events url: %v", cfg.Events.URL)
	}
}

// TestApplyEnvOverrides_LogAndCORS はログ環境とCORSの上書きをテスト
func TestApplyEnvOverrides_LogAndCORS(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogEnv, "production")
	t.Setenv(EnvCORS, "http://localhost:3000, https://connect.example ,")

	cfg := DefaultConfig("/tmp/config.json", "/tmp/data")
	ApplyEnvOverrides(cfg)

	if cfg.Log.Env != "production" {
		t.Errorf("expected log env 'production', got %q", cfg.Log.Env)
	}
	want := []string{"http://localhost:3000", "https://connect.example"}
	if !reflect.DeepEqual(cfg.HTTP.CORSOrigins, want) {
		t.Errorf("expected origins %v, got %v", want, cfg.HTTP.CORSOrigins)
	}
}

// TestApplyEnvOverrides_NoEnv は環境変数未設定時に設定が変わらないことをテスト
func TestApplyEnvOverrides_NoEnv(t *testing.T) {
	clearEnv(t)

	cfg := DefaultConfig("/tmp/config.json", "/tmp/data")
	before := *cfg
	ApplyEnvOverrides(cfg)

	if !reflect.DeepEqual(before, *cfg) {
		t.Errorf("expected config unchanged, got %+v", cfg)
	}
}

// TestLoadDotEnv は.envファイルが読み込まれ既存の環境変数を上書きしないことをテスト
func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogEnv, "production")

	path := filepath.Join(t.TempDir(), ".env")
	content := EnvStoreType + "=sqlite\n" + EnvLogEnv + "=development\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	// clearEnvで空文字が設定されているため、godotenvが上書きできるよう削除しておく
	os.Unsetenv(EnvStoreType)

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvStoreType) })

	if got := os.Getenv(EnvStoreType); got != "sqlite" {
		t.Errorf("expected %s=sqlite, got %q", EnvStoreType, got)
	}
	if got := os.Getenv(EnvLogEnv); got != "production" {
		t.Errorf("expected existing %s to be kept, got %q", EnvLogEnv, got)
	}
}

// TestLoadDotEnv_Missing はファイルが無い場合にエラーにならないことをテスト
func TestLoadDotEnv_Missing(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("expected nil error for missing file, got %v", err)
	}
}
