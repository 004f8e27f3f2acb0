package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/shouni/go-storyboard-kit/examples"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// StdinPath は標準入力から台本を読むための指定なのだ。
const StdinPath = "-"

// ScriptRunner は CLI の入力から構造化リクエストを組み立てるのだ。
type ScriptRunner struct {
	fs    afero.Fs
	stdin io.Reader
	opts  config.GenerateOptions
}

// NewScriptRunner は ScriptRunner を生成するのだ。
func NewScriptRunner(fsys afero.Fs, stdin io.Reader, opts config.GenerateOptions) *ScriptRunner {
	return &ScriptRunner{fs: fsys, stdin: stdin, opts: opts}
}

// BuildRequest は台本ファイルとキャラクター画像を読み込み、ScriptRequest を返すのだ。
func (r *ScriptRunner) BuildRequest(ctx context.Context) (domain.ScriptRequest, error) {
	script, err := r.readScript()
	if err != nil {
		return domain.ScriptRequest{}, err
	}

	mode := domain.ModeStrict
	if r.opts.Viral {
		mode = domain.ModeViral
	}
	ratio := r.opts.AspectRatio
	if ratio == "" {
		ratio = domain.DefaultAspectRatio
	}

	req := domain.ScriptRequest{
		ScriptContent:     script,
		CoverTitle:        strings.TrimSpace(r.opts.CoverTitle),
		IncludeBubbleText: !r.opts.NoBubble,
		AspectRatio:       ratio,
		OptimizationMode:  mode,
	}

	if r.opts.Character != "" {
		uri, err := r.readCharacter(r.opts.Character)
		if err != nil {
			return domain.ScriptRequest{}, err
		}
		req.CharacterImage = uri
	}

	slog.InfoContext(ctx, "台本を読み込んだのだ", "source", r.opts.ScriptFile, "chars", len([]rune(script)), "mode", mode, "aspect", ratio)
	return req, nil
}

func (r *ScriptRunner) readScript() (string, error) {
	path := r.opts.ScriptFile
	if path == "" {
		return "", fmt.Errorf("%w: 台本ファイルが指定されていません", domain.ErrInvalidRequest)
	}

	var (
		data []byte
		err  error
	)
	switch path {
	case StdinPath:
		data, err = io.ReadAll(r.stdin)
	case examples.SampleScriptName:
		data = []byte(examples.SampleScript)
	default:
		data, err = afero.ReadFile(r.fs, path)
	}
	if err != nil {
		return "", fmt.Errorf("台本 '%s' の読み込みに失敗しました: %w", path, err)
	}
	return string(data), nil
}

// readCharacter は参照画像を読み込み、拡張子から MIME タイプを推定して data URI にするのだ。
func (r *ScriptRunner) readCharacter(path string) (string, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return "", fmt.Errorf("キャラクター画像 '%s' の読み込みに失敗しました: %w", path, err)
	}
	return asset.EncodeDataURI(mimeFromPath(path), data), nil
}

func mimeFromPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return asset.DefaultMIMEType
	}
}
