// Package config loads and persists the builder-profile server configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/brbranch/builder_profile/internal/model"
	"gopkg.in/yaml.v3"
)

// Manager は設定の読み書きを管理する
type Manager struct {
	mu         sync.RWMutex
	config     *model.Config
	configPath string
}

// NewManager は新しいManagerを作成する
// configPathが空文字の場合、デフォルトパス（~/.builder-profile/config.json）を使用
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get default config path: %w", err)
		}
		configPath = defaultPath
	}

	dataDir, err := GetDefaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get default data dir: %w", err)
	}

	return &Manager{
		config:     DefaultConfig(configPath, dataDir),
		configPath: configPath,
	}, nil
}

// NewManagerWithConfig は指定した設定でManagerを作成する（テスト用）
func NewManagerWithConfig(cfg *model.Config) *Manager {
	return &Manager{
		config:     cfg,
		configPath: cfg.Paths.ConfigPath,
	}
}

// isYAML は拡張子でYAML形式かを判定する
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load は設定ファイルを読み込み、環境変数の上書きを適用する
// ファイルが存在しない場合はデフォルト設定を使用（エラーなし）
// 拡張子が .yaml / .yml の場合はYAML、それ以外はJSONとして解釈
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	switch {
	case os.IsNotExist(err):
		// デフォルト設定のまま
	case err != nil:
		return fmt.Errorf("failed to read config file: %w", err)
	default:
		// デフォルト値の上に重ねる
		config := *m.config
		if isYAML(m.configPath) {
			err = yaml.Unmarshal(data, &config)
		} else {
			err = json.Unmarshal(data, &config)
		}
		if err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		m.config = &config
	}

	// パスは常に実際の値を使う
	m.config.Paths.ConfigPath = m.configPath
	if m.config.Paths.DataDir == "" {
		dataDir, err := GetDefaultDataDir()
		if err != nil {
			return fmt.Errorf("failed to get default data dir: %w", err)
		}
		m.config.Paths.DataDir = dataDir
	}

	ApplyEnvOverrides(m.config)
	return nil
}

// Save は設定ファイルを保存する
func (m *Manager) Save() error {
	m.mu.RLock()
	config := m.config
	m.mu.RUnlock()

	if err := EnsureDir(filepath.Dir(m.configPath)); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(m.configPath) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 一時ファイルに書き込み（atomicな保存のため）
	tmpFile := m.configPath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}

	if err := os.Rename(tmpFile, m.configPath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	return nil
}

// GetConfig は現在の設定を返す
func (m *Manager) GetConfig() *model.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetConfigPath は設定ファイルパスを返す
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig(configPath, dataDir string) *model.Config {
	return &model.Config{
		TransportDefaults: model.TransportDefaults{
			DefaultTransport: model.TransportStdio,
		},
		Store: model.StoreConfig{
			Type: model.StoreTypeMemory,
		},
		Events: model.EventsConfig{
			Type: model.EventsTypeNone,
		},
		Paths: model.PathsConfig{
			ConfigPath: configPath,
			DataDir:    dataDir,
		},
		Log: model.LogConfig{
			Env: "development",
		},
	}
}
