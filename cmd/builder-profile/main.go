package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/brbranch/builder_profile/internal/bootstrap"
	"github.com/brbranch/builder_profile/internal/config"
	"github.com/brbranch/builder_profile/internal/graphql"
	"github.com/brbranch/builder_profile/internal/jsonrpc"
	"github.com/brbranch/builder_profile/internal/logger"
	"github.com/brbranch/builder_profile/internal/model"
	httptransport "github.com/brbranch/builder_profile/internal/transport/http"
	"github.com/brbranch/builder_profile/internal/transport/stdio"
	gqlhandler "github.com/graphql-go/handler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ビルド時変数（-ldflags で変更可能）
var (
	defaultTransport = model.TransportStdio
	version          = "dev"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = 8765
)

// ServeOptions はserveコマンドのオプション
type ServeOptions struct {
	Transport  string // 空なら設定ファイルのtransportDefaults
	Host       string
	Port       int
	ConfigPath string
}

// commands は各サブコマンドの実処理（テストで差し替える）
type commands struct {
	serve   func(ctx context.Context, opts *ServeOptions) error
	migrate func(ctx context.Context, opts *MigrateOptions, out io.Writer) error
}

func main() {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	root := newRootCmd(commands{serve: runServe, migrate: runMigrate})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd はCLIのルートコマンドを作成する
// サブコマンド無しで起動した場合はserveを実行する
func newRootCmd(c commands) *cobra.Command {
	root := &cobra.Command{
		Use:           "builder-profile",
		Short:         "Builder Profile document server",
		Long:          "builder-profile serves Builder Profile documents over MCP (stdio or HTTP) and GraphQL,\nand migrates documents between MCP endpoints.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context(), &ServeOptions{Host: defaultHost, Port: defaultPort})
		},
	}
	root.SetVersionTemplate("builder-profile version {{.Version}}\n")

	root.AddCommand(newServeCmd(c.serve))
	root.AddCommand(newMigrateCmd(c.migrate))
	root.AddCommand(newVersionCmd())
	return root
}

func newServeCmd(run func(ctx context.Context, opts *ServeOptions) error) *cobra.Command {
	opts := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio or HTTP)",
		Example: `  builder-profile serve
  builder-profile serve -t http -p 8080
  builder-profile serve -c ~/.builder-profile/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateServeOptions(opts); err != nil {
				return err
			}
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Transport, "transport", "t", "", "Transport type: stdio, http (default from config, else "+defaultTransport+")")
	flags.StringVar(&opts.Host, "host", defaultHost, "HTTP host")
	flags.IntVarP(&opts.Port, "port", "p", defaultPort, "HTTP port")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Config file path")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "builder-profile version %s\n", version)
		},
	}
}

// validateServeOptions はserveオプションを検証する
func validateServeOptions(opts *ServeOptions) error {
	if opts.Transport != "" && opts.Transport != model.TransportStdio && opts.Transport != model.TransportHTTP {
		return fmt.Errorf("invalid transport: %s (must be stdio or http)", opts.Transport)
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", opts.Port)
	}
	return nil
}

// resolveTransport はフラグ・設定ファイル・ビルド時デフォルトの順にtransportを決める
func resolveTransport(opts *ServeOptions, cfg *model.Config) (string, error) {
	transport := opts.Transport
	if transport == "" {
		transport = cfg.TransportDefaults.DefaultTransport
	}
	if transport == "" {
		transport = defaultTransport
	}
	switch transport {
	case model.TransportStdio, model.TransportHTTP:
		return transport, nil
	default:
		return "", fmt.Errorf("unknown transport: %s", transport)
	}
}

// setupSignalHandler はSIGINT/SIGTERMを受けてcontextをキャンセルする
func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

// loadConfig は.envと設定ファイルを読み込む
func loadConfig(configPath string) (*model.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	manager, err := config.NewManager(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if err := manager.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return manager.GetConfig(), nil
}

// runServe はserveコマンドを実行
func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	transport, err := resolveTransport(opts, cfg)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Log.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	services, cleanup, err := bootstrap.InitializeWithConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := jsonrpc.New(services.Drives, services.Documents)
	log.Info("starting builder-profile",
		zap.String("version", version),
		zap.String("transport", transport),
		zap.String("store", cfg.Store.Type),
		zap.String("namespace", services.Namespace))

	switch transport {
	case model.TransportStdio:
		return stdio.New(handler, stdio.WithLogger(log)).Run(ctx)
	default:
		gql, err := newGraphQLHandler(services, log)
		if err != nil {
			return err
		}
		server := httptransport.New(handler, httptransport.Config{
			Addr:        net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
			CORSOrigins: cfg.HTTP.CORSOrigins,
		}, httptransport.WithGraphQL(gql), httptransport.WithLogger(log))
		return server.Run(ctx)
	}
}

// newGraphQLHandler は /graphql 用のハンドラーを作成する
func newGraphQLHandler(services *bootstrap.Services, log *zap.Logger) (http.Handler, error) {
	schema, err := graphql.NewSchema(services.Documents, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL schema: %w", err)
	}
	gqlSchema := schema.GetSchema()
	return gqlhandler.New(&gqlhandler.Config{
		Schema:     &gqlSchema,
		Pretty:     true,
		GraphiQL:   false,
		Playground: true,
	}), nil
}
