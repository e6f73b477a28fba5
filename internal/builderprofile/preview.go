package builderprofile

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// AboutPreviewLength はaboutプレビューのデフォルト最大文字数
const AboutPreviewLength = 300

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace   = regexp.MustCompile(`\s+`)
	slugDashes       = regexp.MustCompile(`-+`)
)

// GenerateSlug は名前からURL用のslugを生成する
// 例: "My Builder Team!" -> "my-builder-team"
func GenerateSlug(name string) string {
	s := strings.ToLower(name)
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// RenderAbout はaboutのMarkdownをHTMLプレビューに変換する
// maxLenを超える場合は切り詰めて "..." を付与する（0以下はAboutPreviewLength）
func RenderAbout(about string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = AboutPreviewLength
	}
	runes := []rune(about)
	if len(runes) > maxLen {
		about = strings.TrimRight(string(runes[:maxLen]), " \t\n") + "..."
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(about), &buf); err != nil {
		return "", fmt.Errorf("failed to render about: %w", err)
	}
	return buf.String(), nil
}
