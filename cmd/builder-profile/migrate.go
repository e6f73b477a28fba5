package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/brbranch/builder_profile/internal/config"
	"github.com/brbranch/builder_profile/internal/logger"
	"github.com/brbranch/builder_profile/internal/migrate"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// MigrateOptions はmigrateコマンドのオプション
type MigrateOptions struct {
	SourceURL     string
	SourceDriveID string
	TargetURL     string
	TargetDrive   string
	BatchSize     int
	DryRun        bool
	Timeout       time.Duration
	JSON          bool
	NoColor       bool
}

func newMigrateCmd(run func(ctx context.Context, opts *MigrateOptions, out io.Writer) error) *cobra.Command {
	opts := &MigrateOptions{}
	cmd := &cobra.Command{
		Use:   "migrate <source-mcp-url> <source-drive-id> <target-mcp-url>",
		Short: "Copy builder profiles from one MCP endpoint to another",
		Long: `Copy every builder profile document in a source drive to a drive on the
target MCP endpoint. The target drive is created when it does not exist.`,
		Example: `  builder-profile migrate http://localhost:4001/mcp builders http://localhost:8765/mcp
  builder-profile migrate --dry-run http://old/mcp builders http://new/mcp`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SourceURL = args[0]
			opts.SourceDriveID = args[1]
			opts.TargetURL = args[2]
			if err := validateMigrateOptions(opts); err != nil {
				return err
			}
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.TargetDrive, "target-drive", migrate.DefaultTargetDrive, "Target drive name (also used as its id)")
	flags.IntVar(&opts.BatchSize, "batch-size", migrate.DefaultBatchSize, "Actions per addActions call")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "Fetch and plan only, write nothing to the target")
	flags.DurationVar(&opts.Timeout, "timeout", migrate.DefaultTimeout, "Per-request timeout")
	flags.BoolVar(&opts.JSON, "json", false, "Print the summary as JSON")
	flags.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	return cmd
}

// validateMigrateOptions はmigrateオプションを検証する
func validateMigrateOptions(opts *MigrateOptions) error {
	for _, raw := range []string{opts.SourceURL, opts.TargetURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid MCP url: %q (must be http or https)", raw)
		}
	}
	if opts.SourceDriveID == "" {
		return errors.New("source drive id is required")
	}
	if opts.TargetDrive == "" {
		return errors.New("target drive must not be empty")
	}
	if opts.BatchSize < 1 {
		return fmt.Errorf("invalid batch size: %d (must be positive)", opts.BatchSize)
	}
	if opts.Timeout <= 0 {
		return fmt.Errorf("invalid timeout: %s", opts.Timeout)
	}
	return nil
}

// runMigrate はmigrateコマンドを実行
// 個々のドキュメントの失敗はサマリーに出力するのみで、エラーにはしない
func runMigrate(ctx context.Context, opts *MigrateOptions, out io.Writer) error {
	if err := logger.Init(os.Getenv(config.EnvLogEnv)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	return migrateWith(ctx, opts, out, logger.Get())
}

func migrateWith(ctx context.Context, opts *MigrateOptions, out io.Writer, log *zap.Logger) error {
	reporterOut := out
	if opts.JSON {
		reporterOut = io.Discard
	}
	// color.NoColorはstdoutが端末でない場合やNO_COLOR設定時にtrue
	reporter := migrate.NewReporter(reporterOut, !opts.NoColor && !color.NoColor && out == os.Stdout)
	reporter.Banner(opts.SourceURL, opts.SourceDriveID, opts.TargetURL, opts.TargetDrive, opts.DryRun)

	source := migrate.NewClient(opts.SourceURL, opts.Timeout)
	target := migrate.NewClient(opts.TargetURL, opts.Timeout)
	m := migrate.New(source, target, migrate.Options{
		SourceDriveID: opts.SourceDriveID,
		TargetDrive:   opts.TargetDrive,
		BatchSize:     opts.BatchSize,
		DryRun:        opts.DryRun,
	}, log, reporter)

	summary, err := m.Run(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if summary.HasErrors() {
		log.Warn("migration finished with errors", zap.Int("errors", len(summary.Failures)))
	}
	if opts.JSON {
		return migrate.WriteJSON(out, summary)
	}
	return nil
}
