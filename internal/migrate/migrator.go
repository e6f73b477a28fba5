// Package migrate copies builder profile documents from one MCP endpoint to another.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/brbranch/builder_profile/internal/builderprofile"
	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/service"
	"go.uber.org/zap"
)

const (
	// DefaultTargetDrive は移行先ドライブの名前（= ID）
	DefaultTargetDrive = "BuildersV2"
	// DefaultBatchSize はaddActions 1回あたりのアクション数
	DefaultBatchSize = 20
	// UntitledName は名前の無いプロフィールのファイル名
	UntitledName = "Untitled Builder"
)

// Options はマイグレーション設定
type Options struct {
	SourceDriveID string
	TargetDrive   string
	BatchSize     int
	DryRun        bool
}

// Failure は移行に失敗したドキュメント
type Failure struct {
	SourceID string `json:"sourceId"`
	Name     string `json:"name"`
	Error    string `json:"error"`
}

// Skipped は取得できずにスキップしたドキュメント
type Skipped struct {
	SourceID string `json:"sourceId"`
	Reason   string `json:"reason"`
}

// Planned はdry-runで計画したドキュメント
type Planned struct {
	SourceID string `json:"sourceId"`
	Name     string `json:"name"`
	Actions  int    `json:"actions"`
}

// Migrated は移行に成功したドキュメント
type Migrated struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	Name     string `json:"name"`
	Actions  int    `json:"actions"`
}

// Summary はマイグレーション結果
type Summary struct {
	SourceDriveID  string     `json:"sourceDriveId"`
	TargetDrive    string     `json:"targetDrive"`
	TargetDriveID  string     `json:"targetDriveId"`
	DryRun         bool       `json:"dryRun"`
	DocumentsFound int        `json:"documentsFound"`
	ProfilesFound  int        `json:"profilesFound"`
	Migrated       int        `json:"migrated"`
	Documents      []Migrated `json:"documents,omitempty"`
	Planned        []Planned  `json:"planned,omitempty"`
	Skipped        []Skipped  `json:"skipped,omitempty"`
	Failures       []Failure  `json:"failures,omitempty"`
}

// HasErrors は1件でも移行に失敗したかを返す
func (s *Summary) HasErrors() bool {
	return len(s.Failures) > 0
}

// Migrator は移行元エンドポイントのプロフィールを移行先ドライブへ複製する
type Migrator struct {
	source   Endpoint
	target   Endpoint
	opts     Options
	logger   *zap.Logger
	reporter *Reporter
}

// New は新しいMigratorを作成する
func New(source, target Endpoint, opts Options, logger *zap.Logger, reporter *Reporter) *Migrator {
	if opts.TargetDrive == "" {
		opts.TargetDrive = DefaultTargetDrive
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = Discard()
	}
	return &Migrator{
		source:   source,
		target:   target,
		opts:     opts,
		logger:   logger,
		reporter: reporter,
	}
}

type sourceProfile struct {
	id    string
	state builderprofile.State
}

// Run はマイグレーションを実行する
// ドライブ一覧・作成、移行元一覧の取得に失敗した場合はエラーを返す
// 個々のドキュメントの失敗はSummary.Failuresに記録して続行する
func (m *Migrator) Run(ctx context.Context) (*Summary, error) {
	if m.opts.SourceDriveID == "" {
		return nil, errors.New("source drive id is required")
	}
	summary := &Summary{
		SourceDriveID: m.opts.SourceDriveID,
		TargetDrive:   m.opts.TargetDrive,
		DryRun:        m.opts.DryRun,
	}

	// 1. 移行先ドライブの確認・作成
	targetDriveID, err := m.ensureTargetDrive(ctx)
	if err != nil {
		return nil, err
	}
	summary.TargetDriveID = targetDriveID

	// 2. 移行元ドキュメント一覧
	m.reporter.Step("\nFetching documents from source drive %q...", m.opts.SourceDriveID)
	ids, err := m.source.GetDocumentIDs(ctx, m.opts.SourceDriveID)
	if err != nil {
		return nil, fmt.Errorf("failed to get source documents: %w", err)
	}
	summary.DocumentsFound = len(ids)
	m.reporter.OK("Found %d documents in source drive", len(ids))
	if len(ids) == 0 {
		m.reporter.Warn("No documents found in source drive")
		return summary, nil
	}

	// 3. 取得とbuilder-profileの抽出
	profiles := m.fetchProfiles(ctx, ids, summary)
	summary.ProfilesFound = len(profiles)
	m.reporter.OK("Found %d builder profile documents", len(profiles))
	if len(profiles) == 0 {
		m.reporter.Warn("No builder profile documents found to migrate")
		return summary, nil
	}

	// 4. 1件ずつ移行
	m.reporter.Section("Starting migration...")
	for i, p := range profiles {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		m.reporter.Step("\n[%d/%d] Migrating: %s", i+1, len(profiles), displayName(p))
		m.describe(p.state)

		if m.opts.DryRun {
			m.plan(p, summary)
			continue
		}

		migrated, err := m.migrateOne(ctx, targetDriveID, p)
		if err != nil {
			m.reporter.Fail("Error migrating document: %v", err)
			m.logger.Warn("migration failed", zap.String("sourceId", p.id), zap.Error(err))
			summary.Failures = append(summary.Failures, Failure{SourceID: p.id, Name: profileName(p.state), Error: err.Error()})
			continue
		}
		summary.Migrated++
		summary.Documents = append(summary.Documents, *migrated)
		m.reporter.OK("Migration complete for %q", displayName(p))
	}

	m.reporter.Summary(summary)
	return summary, nil
}

// ensureTargetDrive は移行先ドライブのIDを返す（無ければ作成）
func (m *Migrator) ensureTargetDrive(ctx context.Context) (string, error) {
	m.reporter.Step("Checking for existing drives on target MCP...")
	driveIDs, err := m.target.GetDrives(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get target drives: %w", err)
	}
	m.reporter.OK("Found %d drives on target", len(driveIDs))

	if slices.Contains(driveIDs, m.opts.TargetDrive) {
		m.reporter.OK("Drive %q already exists", m.opts.TargetDrive)
		return m.opts.TargetDrive, nil
	}

	if m.opts.DryRun {
		m.reporter.Warn("Drive %q does not exist and would be created", m.opts.TargetDrive)
		return m.opts.TargetDrive, nil
	}

	m.reporter.Step("Creating new drive %q on target MCP...", m.opts.TargetDrive)
	driveID, err := m.target.AddDrive(ctx, m.opts.TargetDrive)
	if err != nil {
		return "", fmt.Errorf("failed to create target drive: %w", err)
	}
	m.reporter.OK("Created drive %q (ID: %s)", m.opts.TargetDrive, driveID)
	m.logger.Info("target drive created", zap.String("driveId", driveID))
	return driveID, nil
}

// fetchProfiles は移行元ドキュメントを取得してbuilder-profileのみを返す
// 取得失敗はスキップとして記録する
func (m *Migrator) fetchProfiles(ctx context.Context, ids []string, summary *Summary) []sourceProfile {
	m.reporter.Step("\nFetching document details and filtering builder profiles...")
	var profiles []sourceProfile
	for _, id := range ids {
		doc, err := m.source.GetDocument(ctx, id)
		if err != nil {
			m.reporter.Detail("Skipping %s: %v", id, err)
			summary.Skipped = append(summary.Skipped, Skipped{SourceID: id, Reason: err.Error()})
			continue
		}
		if doc.Header.DocumentType != builderprofile.DocumentType {
			continue
		}
		state, err := builderprofile.DecodeState(doc)
		if err != nil {
			m.reporter.Detail("Skipping %s: %v", id, err)
			summary.Skipped = append(summary.Skipped, Skipped{SourceID: id, Reason: err.Error()})
			continue
		}
		profiles = append(profiles, sourceProfile{id: id, state: state})
	}
	return profiles
}

func (m *Migrator) describe(s builderprofile.State) {
	m.reporter.Detail("Name: %s", orDefault(s.Name, "(unnamed)"))
	m.reporter.Detail("Type: %s", s.Type)
	status := "(no status)"
	if s.Status != nil && *s.Status != "" {
		status = string(*s.Status)
	}
	m.reporter.Detail("Status: %s", status)
	m.reporter.Detail("Is Operator: %t", s.IsOperator)
	m.reporter.Detail("Skills: %d", len(s.Skills))
	m.reporter.Detail("Scopes: %d", len(s.Scopes))
	m.reporter.Detail("Links: %d", len(s.Links))
	m.reporter.Detail("Contributors: %d", len(s.Contributors))
}

// plan はdry-run時に生成されるアクション数を記録する
func (m *Migrator) plan(p sourceProfile, summary *Summary) {
	actions, err := GenerateMigrationActions(p.state)
	if err != nil {
		m.reporter.Fail("Error planning document: %v", err)
		summary.Failures = append(summary.Failures, Failure{SourceID: p.id, Name: profileName(p.state), Error: err.Error()})
		return
	}
	m.reporter.Detail("Would apply %d actions in %d batch(es)", len(actions), len(Batch(actions, m.opts.BatchSize)))
	summary.Planned = append(summary.Planned, Planned{SourceID: p.id, Name: profileName(p.state), Actions: len(actions)})
}

// migrateOne は1件のプロフィールを移行先に作成する
func (m *Migrator) migrateOne(ctx context.Context, targetDriveID string, p sourceProfile) (*Migrated, error) {
	newID, err := m.target.CreateDocument(ctx, builderprofile.DocumentType)
	if err != nil {
		return nil, err
	}
	m.reporter.OK("Created new document on target: %s", newID)

	name := profileName(p.state)
	addFile, err := builderprofile.BuildAction(service.DriveActionAddFile, service.AddFileInput{
		ID:           newID,
		Name:         name,
		DocumentType: builderprofile.DocumentType,
	})
	if err != nil {
		return nil, err
	}
	if err := m.target.AddActions(ctx, targetDriveID, []model.Action{addFile}); err != nil {
		return nil, err
	}
	m.reporter.OK("Added to drive %q", m.opts.TargetDrive)

	actions, err := GenerateMigrationActions(p.state)
	if err != nil {
		return nil, err
	}
	m.reporter.Detail("Generated %d actions", len(actions))

	for _, batch := range Batch(actions, m.opts.BatchSize) {
		if err := m.target.AddActions(ctx, newID, batch); err != nil {
			return nil, err
		}
	}
	m.reporter.OK("Applied all migration actions")
	m.logger.Debug("document migrated",
		zap.String("sourceId", p.id),
		zap.String("targetId", newID),
		zap.Int("actions", len(actions)))

	return &Migrated{SourceID: p.id, TargetID: newID, Name: name, Actions: len(actions)}, nil
}

func profileName(s builderprofile.State) string {
	return orDefault(s.Name, UntitledName)
}

func displayName(p sourceProfile) string {
	return orDefault(p.state.Name, p.id)
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
