package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/brbranch/builder_profile/internal/bootstrap"
	"github.com/brbranch/builder_profile/internal/config"
	"github.com/brbranch/builder_profile/internal/model"
	"go.uber.org/zap/zaptest"
)

// captured はサブコマンドに渡されたオプションを記録する
type captured struct {
	serve   *ServeOptions
	migrate *MigrateOptions
}

func execute(t *testing.T, args ...string) (*captured, string, error) {
	t.Helper()
	c := &captured{}
	root := newRootCmd(commands{
		serve: func(ctx context.Context, opts *ServeOptions) error {
			c.serve = opts
			return nil
		},
		migrate: func(ctx context.Context, opts *MigrateOptions, out io.Writer) error {
			c.migrate = opts
			return nil
		},
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return c, out.String(), err
}

// TestServe_DefaultOptions はデフォルトオプション解析をテスト
func TestServe_DefaultOptions(t *testing.T) {
	c, _, err := execute(t, "serve")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.serve == nil {
		t.Fatal("serve was not called")
	}
	if c.serve.Transport != "" {
		t.Errorf("expected empty transport (config default), got %s", c.serve.Transport)
	}
	if c.serve.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", c.serve.Host)
	}
	if c.serve.Port != 8765 {
		t.Errorf("expected port 8765, got %d", c.serve.Port)
	}
}

// TestRoot_NoArgsRunsServe はサブコマンド無しでserveが実行されることをテスト
func TestRoot_NoArgsRunsServe(t *testing.T) {
	c, _, err := execute(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.serve == nil {
		t.Fatal("serve was not called")
	}
	if c.serve.Port != defaultPort {
		t.Errorf("expected port %d, got %d", defaultPort, c.serve.Port)
	}
}

// TestServe_ShortOptions は短縮オプションをテスト
func TestServe_ShortOptions(t *testing.T) {
	c, _, err := execute(t, "serve", "-t", "http", "-p", "9000", "-c", "/tmp/config.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.serve.Transport != "http" {
		t.Errorf("expected transport http, got %s", c.serve.Transport)
	}
	if c.serve.Port != 9000 {
		t.Errorf("expected port 9000, got %d", c.serve.Port)
	}
	if c.serve.ConfigPath != "/tmp/config.yaml" {
		t.Errorf("expected config path /tmp/config.yaml, got %s", c.serve.ConfigPath)
	}
}

// TestServe_Validation_TableDriven はserveオプションの検証をテスト
func TestServe_Validation_TableDriven(t *testing.T) {
	testCases := []struct {
		name        string
		args        []string
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid stdio",
			args: []string{"serve", "--transport", "stdio"},
		},
		{
			name: "valid http",
			args: []string{"serve", "--transport", "http", "--host", "0.0.0.0", "--port", "9999"},
		},
		{
			name:        "invalid transport",
			args:        []string{"serve", "--transport", "grpc"},
			expectError: true,
			errorMsg:    "invalid transport: grpc (must be stdio or http)",
		},
		{
			name:        "port too low",
			args:        []string{"serve", "--port", "0"},
			expectError: true,
			errorMsg:    "invalid port: 0 (must be 1-65535)",
		},
		{
			name:        "port too high",
			args:        []string{"serve", "--port", "99999"},
			expectError: true,
			errorMsg:    "invalid port: 99999 (must be 1-65535)",
		},
		{
			name:        "wrong subcommand",
			args:        []string{"start"},
			expectError: true,
		},
		{
			name:        "unexpected argument",
			args:        []string{"serve", "extra"},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, err := execute(t, tc.args...)
			if !tc.expectError {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tc.errorMsg != "" && err.Error() != tc.errorMsg {
				t.Errorf("expected error message '%s', got '%s'", tc.errorMsg, err.Error())
			}
			if c.serve != nil {
				t.Error("serve must not run on invalid options")
			}
		})
	}
}

// TestVersion はversionコマンドと--versionフラグをテスト
func TestVersion(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}} {
		_, out, err := execute(t, args...)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", args, err)
		}
		if out != "builder-profile version dev\n" {
			t.Errorf("%v: unexpected output %q", args, out)
		}
	}
}

func TestResolveTransport(t *testing.T) {
	testCases := []struct {
		name      string
		flag      string
		configDef string
		want      string
		wantErr   bool
	}{
		{"flag wins", "http", "stdio", "http", false},
		{"config default", "", "http", "http", false},
		{"build default", "", "", defaultTransport, false},
		{"unknown config value", "", "grpc", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &model.Config{TransportDefaults: model.TransportDefaults{DefaultTransport: tc.configDef}}
			got, err := resolveTransport(&ServeOptions{Transport: tc.flag}, cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

// TestLoadConfig_YAML は設定ファイルと環境変数の読み込みをテスト
func TestLoadConfig_YAML(t *testing.T) {
	t.Setenv(config.EnvStoreType, "")
	os.Unsetenv(config.EnvStoreType)
	t.Setenv(config.EnvCORS, "http://localhost:3000")

	path := t.TempDir() + "/config.yaml"
	content := "transportDefaults:\n  defaultTransport: http\nstore:\n  type: memory\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TransportDefaults.DefaultTransport != model.TransportHTTP {
		t.Errorf("expected http transport default, got %s", cfg.TransportDefaults.DefaultTransport)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected CORS origins: %v", cfg.HTTP.CORSOrigins)
	}
}

// TestGraphQLHandler は/graphqlハンドラー経由でドキュメントを作成できることをテスト
func TestGraphQLHandler(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig(t.TempDir()+"/config.json", t.TempDir())
	services, cleanup, err := bootstrap.InitializeWithConfig(ctx, cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("failed to initialize: %v", err)
	}
	defer cleanup()

	h, err := newGraphQLHandler(services, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	body := `{"query":"mutation { BuilderProfile_createDocument(name: \"Acme\") }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data   map[string]string `json:"data"`
		Errors []any             `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	id := resp.Data["BuilderProfile_createDocument"]
	if id == "" {
		t.Fatal("expected document id")
	}
	if _, err := services.Documents.GetDocument(ctx, id); err != nil {
		t.Errorf("created document not found: %v", err)
	}
}

// TestRunServe_InvalidConfig は壊れた設定ファイルでエラーになることをテスト
func TestRunServe_InvalidConfig(t *testing.T) {
	path := t.TempDir() + "/config.json"
	if err := os.WriteFile(path, []byte("{invalid"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	err := runServe(context.Background(), &ServeOptions{Transport: "http", Host: "127.0.0.1", Port: 8765, ConfigPath: path})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestSetupSignalHandler はシグナル受信でcontextがキャンセルされることをテスト
func TestSetupSignalHandler(t *testing.T) {
	tests := []struct {
		name   string
		signal os.Signal
	}{
		{"SIGINT", syscall.SIGINT},
		{"SIGTERM", syscall.SIGTERM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := setupSignalHandler()
			defer cancel()

			go func() {
				time.Sleep(10 * time.Millisecond)
				p, _ := os.FindProcess(os.Getpid())
				p.Signal(tt.signal)
			}()

			select {
			case <-ctx.Done():
				if !errors.Is(ctx.Err(), context.Canceled) {
					t.Errorf("unexpected context error: %v", ctx.Err())
				}
			case <-time.After(1 * time.Second):
				t.Fatalf("context was not cancelled after %s", tt.name)
			}
		})
	}
}
