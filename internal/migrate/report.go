package migrate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const ruleWidth = 70

// Reporter はマイグレーションの進捗を人間向けに出力する
type Reporter struct {
	out        io.Writer
	titleColor *color.Color
	okColor    *color.Color
	warnColor  *color.Color
	errorColor *color.Color
	infoColor  *color.Color
}

// NewReporter は新しいReporterを作成する
// useColorがfalseの場合はエスケープシーケンスを出力しない
func NewReporter(out io.Writer, useColor bool) *Reporter {
	r := &Reporter{
		out:        out,
		titleColor: color.New(color.FgCyan, color.Bold),
		okColor:    color.New(color.FgGreen),
		warnColor:  color.New(color.FgYellow),
		errorColor: color.New(color.FgRed),
		infoColor:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.titleColor, r.okColor, r.warnColor, r.errorColor, r.infoColor} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Discard は何も出力しないReporterを返す
func Discard() *Reporter {
	return NewReporter(io.Discard, false)
}

func (r *Reporter) rule(ch string) {
	fmt.Fprintln(r.out, strings.Repeat(ch, ruleWidth))
}

// Banner は開始時の設定を出力する
func (r *Reporter) Banner(sourceURL, sourceDrive, targetURL, targetDrive string, dryRun bool) {
	r.rule("=")
	r.titleColor.Fprintln(r.out, "Builder Profile Migration")
	r.rule("=")
	fmt.Fprintln(r.out, "\nConfiguration:")
	fmt.Fprintf(r.out, "  Source MCP URL: %s\n", sourceURL)
	fmt.Fprintf(r.out, "  Source Drive ID: %s\n", sourceDrive)
	fmt.Fprintf(r.out, "  Target MCP URL: %s\n", targetURL)
	fmt.Fprintf(r.out, "  Target Drive Name: %s\n", targetDrive)
	if dryRun {
		r.warnColor.Fprintln(r.out, "  Dry run: no changes will be written to the target")
	}
	fmt.Fprintln(r.out)
}

// Step は処理ステップの見出しを出力する
func (r *Reporter) Step(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// OK は成功メッセージを出力する
func (r *Reporter) OK(format string, args ...any) {
	r.okColor.Fprintf(r.out, "✓ "+format+"\n", args...)
}

// Warn は警告メッセージを出力する
func (r *Reporter) Warn(format string, args ...any) {
	r.warnColor.Fprintf(r.out, "⚠ "+format+"\n", args...)
}

// Fail はエラーメッセージを出力する
func (r *Reporter) Fail(format string, args ...any) {
	r.errorColor.Fprintf(r.out, "✗ "+format+"\n", args...)
}

// Detail はインデント付きの詳細行を出力する
func (r *Reporter) Detail(format string, args ...any) {
	r.infoColor.Fprintf(r.out, "  - "+format+"\n", args...)
}

// Section は区切り線付きの見出しを出力する
func (r *Reporter) Section(title string) {
	fmt.Fprintln(r.out)
	r.rule("-")
	r.titleColor.Fprintln(r.out, title)
	r.rule("-")
}

// Summary は最終結果を出力する
func (r *Reporter) Summary(s *Summary) {
	fmt.Fprintln(r.out)
	r.rule("=")
	r.titleColor.Fprintln(r.out, "Migration Summary")
	r.rule("=")
	fmt.Fprintf(r.out, "  Total documents found: %d\n", s.ProfilesFound)
	if s.DryRun {
		fmt.Fprintf(r.out, "  Planned migrations: %d\n", len(s.Planned))
	} else {
		fmt.Fprintf(r.out, "  Successfully migrated: %d\n", s.Migrated)
	}
	fmt.Fprintf(r.out, "  Errors: %d\n", len(s.Failures))
	fmt.Fprintf(r.out, "  Target drive: %s (%s)\n", s.TargetDrive, s.TargetDriveID)
	r.rule("=")

	switch {
	case s.DryRun:
		r.OK("Dry run completed, nothing was written")
	case len(s.Failures) == 0:
		r.OK("Migration completed successfully!")
	default:
		r.Warn("Migration completed with %d error(s)", len(s.Failures))
	}
}

// WriteJSON はサマリーをJSONで出力する
func WriteJSON(w io.Writer, s *Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}
