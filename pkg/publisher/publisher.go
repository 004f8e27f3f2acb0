package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string // Markdown と JSON の出力先
	ImageDir  string // render で保存した画像のディレクトリ
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	MarkdownPath string   // 生成された storyboard.md のパス
	JSONPath     string   // 生成された storyboard.json のパス
	ImagePaths   []string // Markdown から参照した画像のパス
}

const (
	defaultMarkdownName = "storyboard.md"
	placeholder         = "(未生成)"
)

var errNoStoryboard = fmt.Errorf("%w: 書き出すストーリーボードがありません", domain.ErrInvalidRequest)

// StoryboardPublisher はワークスペースのストーリーボードを Markdown と JSON に書き出します。
type StoryboardPublisher struct {
	fs afero.Fs
}

// NewStoryboardPublisher は fsys に書き出す StoryboardPublisher を生成します。
func NewStoryboardPublisher(fsys afero.Fs) *StoryboardPublisher {
	return &StoryboardPublisher{fs: fsys}
}

// Publish は Markdown と JSON を書き出し、生成されたファイル情報を返却するのだ！
// ImageDir に保存済みの画像があれば、Markdown から相対パスで参照します。
func (p *StoryboardPublisher) Publish(ctx context.Context, ws domain.Workspace, opts Options) (PublishResult, error) {
	result := PublishResult{}
	if ws.Result == nil {
		return result, errNoStoryboard
	}
	if opts.ImageDir == "" {
		opts.ImageDir = asset.DefaultImageDir
	}

	if err := p.fs.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}

	// 1. JSON の書き出し
	jsonPath := filepath.Join(opts.OutputDir, asset.DefaultStoryboardJSON)
	data, err := json.MarshalIndent(ws.Result, "", "  ")
	if err != nil {
		return result, fmt.Errorf("ストーリーボードのエンコードに失敗しました: %w", err)
	}
	if err := afero.WriteFile(p.fs, jsonPath, data, 0o644); err != nil {
		return result, fmt.Errorf("JSONファイルの書き込みに失敗しました: %w", err)
	}
	result.JSONPath = jsonPath

	// 2. 画像の参照解決
	links := ImageLinks{Scenes: make([]string, len(ws.Result.Body))}
	if cover, err := asset.CoverPath(opts.ImageDir); err == nil && p.exists(cover) {
		links.Cover = p.relative(opts.OutputDir, cover)
		result.ImagePaths = append(result.ImagePaths, cover)
	}
	for i := range ws.Result.Body {
		scene, err := asset.ScenePath(opts.ImageDir, i)
		if err != nil || !p.exists(scene) {
			continue
		}
		links.Scenes[i] = p.relative(opts.OutputDir, scene)
		result.ImagePaths = append(result.ImagePaths, scene)
	}

	// 3. Markdown の書き出し
	mdPath := filepath.Join(opts.OutputDir, defaultMarkdownName)
	if err := afero.WriteFile(p.fs, mdPath, []byte(BuildMarkdown(ws, links)), 0o644); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = mdPath

	slog.InfoContext(ctx, "ストーリーボードを書き出したのだ", "markdown", mdPath, "json", jsonPath, "images", len(result.ImagePaths))
	return result, nil
}

func (p *StoryboardPublisher) exists(path string) bool {
	ok, err := afero.Exists(p.fs, path)
	return err == nil && ok
}

func (p *StoryboardPublisher) relative(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

// ImageLinks は Markdown から参照する画像のパスです。空文字は未生成を表します。
type ImageLinks struct {
	Cover  string
	Scenes []string
}

// BuildMarkdown はナレーション原稿として読める Markdown を組み立てます。
func BuildMarkdown(ws domain.Workspace, links ImageLinks) string {
	sb := ws.Result
	var b strings.Builder
	if sb == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "# %s\n\n", ws.ResolveTitle())
	fmt.Fprintf(&b, "- aspect: %s\n- mode: %s\n\n", sb.AspectRatio, ws.Mode)
	if links.Cover != "" {
		fmt.Fprintf(&b, "![cover](%s)\n\n", links.Cover)
	}

	for i, scene := range sb.Body {
		fmt.Fprintf(&b, "## Scene %d `%s`\n\n", i+1, scene.Timestamp)
		if i < len(links.Scenes) && links.Scenes[i] != "" {
			fmt.Fprintf(&b, "![scene %d](%s)\n\n", i+1, links.Scenes[i])
		} else {
			fmt.Fprintf(&b, "_image: %s_\n\n", placeholder)
		}
		fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(scene.OriginalText, "\n", "\n> "))
		fmt.Fprintf(&b, "- visual: %s\n", scene.Visual)
		if scene.BubbleText != "" {
			fmt.Fprintf(&b, "- bubble: %s (%s)\n", scene.BubbleText, scene.EmotionColor)
		}
		if scene.MangaExpression != "" {
			fmt.Fprintf(&b, "- expression: %s\n", scene.MangaExpression)
		}
		if scene.Transition != "" {
			fmt.Fprintf(&b, "- transition: %s\n", scene.Transition)
		}
		b.WriteString("\n")
	}

	if a := sb.Analysis; a != nil {
		fmt.Fprintf(&b, "## Viral Analysis\n\n- score: %d/100\n- hook: %s\n- emotion: %s\n- retention: %s\n", a.Score, a.HookStrength, a.EmotionalAppeal, a.RetentionPrediction)
		for _, tip := range a.ImprovementTips {
			fmt.Fprintf(&b, "  - %s\n", tip)
		}
	}
	return b.String()
}
