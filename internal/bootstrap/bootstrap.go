// Package bootstrap wires configuration, storage, events and services for builder-profile.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/brbranch/builder_profile/internal/config"
	"github.com/brbranch/builder_profile/internal/events"
	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/service"
	"github.com/brbranch/builder_profile/internal/store"
	"go.uber.org/zap"
)

const (
	// DefaultQdrantURL はstore.url未設定時のQdrant接続先
	DefaultQdrantURL = "http://localhost:6334"
	// DefaultPostgresURL はstore.url未設定時のPostgreSQL接続先
	DefaultPostgresURL = "postgres://localhost:5432/builder_profile?sslmode=disable"
)

// Services は初期化されたサービス群を保持
type Services struct {
	Drives    service.DriveService
	Documents service.DocumentService
	Config    *model.Config
	Namespace string
}

// Initialize は設定を読み込み、必要なサービスを初期化する
// 戻り値のcleanupでストアとイベント配信をクローズする
func Initialize(ctx context.Context, configPath string, logger *zap.Logger) (*Services, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := config.LoadDotEnv(); err != nil {
		return nil, nil, fmt.Errorf("failed to load .env: %w", err)
	}

	configManager, err := config.NewManager(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if err := configManager.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	return InitializeWithConfig(ctx, configManager.GetConfig(), logger)
}

// InitializeWithConfig はロード済みの設定からサービスを初期化する
func InitializeWithConfig(ctx context.Context, cfg *model.Config, logger *zap.Logger) (*Services, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	namespace, err := config.ResolveNamespace(cfg)
	if err != nil {
		return nil, nil, err
	}

	// 1. Store初期化
	st, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Initialize(ctx, namespace); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	// 2. イベント配信
	publisher, err := newPublisher(cfg)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	// 3. Services初期化
	drives := service.NewDriveService(st)
	documents := service.NewDocumentService(st, service.DefaultRegistry(), drives, publisher, logger)

	logger.Info("services initialized",
		zap.String("store", cfg.Store.Type),
		zap.String("events", cfg.Events.Type),
		zap.String("namespace", namespace),
	)

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", zap.Error(err))
		}
		if err := st.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}

	return &Services{
		Drives:    drives,
		Documents: documents,
		Config:    cfg,
		Namespace: namespace,
	}, cleanup, nil
}

// newStore はstore.typeに応じたStoreを生成する
func newStore(cfg *model.Config) (store.Store, error) {
	switch cfg.Store.Type {
	case model.StoreTypeMemory, "":
		return store.NewMemoryStore(), nil
	case model.StoreTypeSQLite:
		dbPath, err := config.SQLitePath(cfg.Paths.DataDir, cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		// DBファイルの親ディレクトリを作成
		if err := config.EnsureDir(filepath.Dir(dbPath)); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		st, err := store.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
		return st, nil
	case model.StoreTypePostgres:
		st, err := store.NewPostgresStore(urlOr(cfg.Store.URL, DefaultPostgresURL))
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		return st, nil
	case model.StoreTypeQdrant:
		st, err := store.NewQdrantStore(urlOr(cfg.Store.URL, DefaultQdrantURL))
		if err != nil {
			return nil, fmt.Errorf("failed to create qdrant store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

// newPublisher はevents.typeに応じたPublisherを生成する
func newPublisher(cfg *model.Config) (events.Publisher, error) {
	switch cfg.Events.Type {
	case model.EventsTypeNone, "":
		return events.NewNoopPublisher(), nil
	case model.EventsTypeRedis:
		if cfg.Events.URL == nil || *cfg.Events.URL == "" {
			return nil, fmt.Errorf("events.url is required for redis events")
		}
		prefix := cfg.Events.ChannelPrefix
		if prefix == "" {
			prefix = events.DefaultChannelPrefix
		}
		p, err := events.NewRedisPublisher(*cfg.Events.URL, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown events type %q", cfg.Events.Type)
	}
}

func urlOr(url *string, def string) string {
	if url != nil && *url != "" {
		return *url
	}
	return def
}
