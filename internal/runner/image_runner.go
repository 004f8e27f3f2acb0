package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

// ImageRunner は Workflow で画像を生成し、outputDir に PNG として書き出すのだ。
type ImageRunner struct {
	wf        workflow.Workflow
	fs        afero.Fs
	outputDir string
}

// NewImageRunner は ImageRunner を生成するのだ。
func NewImageRunner(wf workflow.Workflow, fsys afero.Fs, outputDir string) *ImageRunner {
	if outputDir == "" {
		outputDir = asset.DefaultImageDir
	}
	return &ImageRunner{wf: wf, fs: fsys, outputDir: outputDir}
}

// RunCover はカバー画像を生成して保存し、保存先のパスを返すのだ。
func (r *ImageRunner) RunCover(ctx context.Context) (string, error) {
	uri, err := r.wf.RenderCover(ctx)
	if err != nil {
		return "", fmt.Errorf("カバー画像の生成に失敗しました: %w", err)
	}
	path, err := asset.CoverPath(r.outputDir)
	if err != nil {
		return "", err
	}
	return path, r.write(path, uri)
}

// RunScene は index 番目のシーン画像を生成して保存するのだ。
func (r *ImageRunner) RunScene(ctx context.Context, index int) (string, error) {
	uri, err := r.wf.RenderScene(ctx, index)
	if err != nil {
		return "", fmt.Errorf("シーン %d の画像生成に失敗しました: %w", index+1, err)
	}
	path, err := asset.ScenePath(r.outputDir, index)
	if err != nil {
		return "", err
	}
	return path, r.write(path, uri)
}

// RunAll は全シーンの画像を並列生成し、成功した分だけ保存するのだ。
// 一部のシーンが失敗しても、成功した画像は保存してからエラーを返すのだ。
func (r *ImageRunner) RunAll(ctx context.Context) ([]string, error) {
	uris, renderErr := r.wf.RenderAllScenes(ctx)
	if uris == nil && renderErr != nil {
		return nil, fmt.Errorf("シーン画像の生成に失敗しました: %w", renderErr)
	}

	var (
		paths []string
		errs  []error
	)
	for i, uri := range uris {
		if uri == "" {
			continue
		}
		path, err := asset.ScenePath(r.outputDir, i)
		if err == nil {
			err = r.write(path, uri)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}

	slog.InfoContext(ctx, "シーン画像を保存したのだ", "saved", len(paths), "total", len(uris))
	if renderErr != nil {
		errs = append(errs, renderErr)
	}
	return paths, errors.Join(errs...)
}

func (r *ImageRunner) write(path, uri string) error {
	_, data, err := asset.DecodeDataURI(uri)
	if err != nil {
		return fmt.Errorf("画像データの復元に失敗しました: %w", err)
	}
	if err := r.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	if err := afero.WriteFile(r.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("画像 '%s' の保存に失敗しました: %w", path, err)
	}
	slog.Info("画像を保存したのだ", "path", path, "bytes", len(data))
	return nil
}
