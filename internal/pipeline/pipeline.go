package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/shouni/go-storyboard-kit/internal/auth"
	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/runner"
	"github.com/shouni/go-storyboard-kit/internal/server"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

// KeyPrompter は API キーを対話的に入力させます。rejected は直前のキーが拒否されたかどうかです。
type KeyPrompter func(storePath string, rejected bool) (string, error)

// WorkflowFactory は API キーから Workflow を構築します。
type WorkflowFactory func(ctx context.Context, appCtx *builder.AppContext, apiKey string) (workflow.Workflow, error)

// Session は API キーの解決と、拒否時の再入力を含めて Workflow を実行するのだ。
type Session struct {
	appCtx      *builder.AppContext
	prompt      KeyPrompter
	newWorkflow WorkflowFactory
}

// NewSession は Session を生成します。factory が nil の場合は Gemini バックエンドを使うのだ。
func NewSession(appCtx *builder.AppContext, prompt KeyPrompter, factory WorkflowFactory) *Session {
	if factory == nil {
		factory = func(ctx context.Context, appCtx *builder.AppContext, apiKey string) (workflow.Workflow, error) {
			return builder.BuildWorkflow(ctx, appCtx, apiKey)
		}
	}
	return &Session{appCtx: appCtx, prompt: prompt, newWorkflow: factory}
}

// Run は fn を実行するのだ。保存済みのキーが拒否された場合は、キーを破棄して再入力させ、一度だけやり直すのだ。
func (s *Session) Run(ctx context.Context, fn func(ctx context.Context, wf workflow.Workflow) error) error {
	key, src, err := builder.ResolveAPIKey(s.appCtx)
	if err != nil {
		return err
	}
	if key == "" {
		if key, err = s.enterKey(false); err != nil {
			return err
		}
		src = auth.SourceFile
	}

	err = s.runWith(ctx, key, fn)
	if !errors.Is(err, generator.ErrCredentialRejected) {
		return err
	}

	if src != auth.SourceFile {
		return fmt.Errorf("%s で指定された API キーが拒否されました: %w", src, err)
	}

	slog.WarnContext(ctx, "保存済みの API キーが拒否されたので破棄するのだ", "path", s.appCtx.Keys.Path())
	if ferr := s.appCtx.Keys.Forget(); ferr != nil {
		return errors.Join(err, ferr)
	}
	if key, err = s.enterKey(true); err != nil {
		return err
	}
	return s.runWith(ctx, key, fn)
}

func (s *Session) runWith(ctx context.Context, key string, fn func(ctx context.Context, wf workflow.Workflow) error) error {
	wf, err := s.newWorkflow(ctx, s.appCtx, key)
	if err != nil {
		return err
	}
	return fn(ctx, wf)
}

func (s *Session) enterKey(rejected bool) (string, error) {
	if s.prompt == nil {
		return "", generator.ErrMissingCredential
	}
	key, err := s.prompt(s.appCtx.Keys.Path(), rejected)
	if err != nil {
		return "", err
	}
	if err := s.appCtx.Keys.Save(key); err != nil {
		return "", err
	}
	slog.Info("API キーを保存したのだ", "path", s.appCtx.Keys.Path())
	return key, nil
}

// ExecuteStructure は台本を読み込んで構造化し、ワークスペースに保存するのだ。
func ExecuteStructure(ctx context.Context, s *Session, fsys afero.Fs, stdin io.Reader) (domain.Workspace, error) {
	req, err := runner.NewScriptRunner(fsys, stdin, s.appCtx.Options).BuildRequest(ctx)
	if err != nil {
		return domain.Workspace{}, err
	}

	var ws domain.Workspace
	err = s.Run(ctx, func(ctx context.Context, wf workflow.Workflow) error {
		slog.InfoContext(ctx, "台本の構造化を開始するのだ...", "mode", req.OptimizationMode)
		var err error
		if ws, err = wf.Structure(ctx, req); err != nil {
			return err
		}
		// --static はワークスペースのトグルとして保存するのだ
		if cinematic := !s.appCtx.Options.Static; ws.Cinematic != cinematic {
			ws.Cinematic = cinematic
			return wf.SaveWorkspace(ctx, ws)
		}
		return nil
	})
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("台本の構造化に失敗しました: %w", err)
	}
	return ws, nil
}

// ExecuteOptimize は現在のワークスペースを viral モードで構造化し直すのだ。
func ExecuteOptimize(ctx context.Context, s *Session) (domain.Workspace, error) {
	var ws domain.Workspace
	err := s.Run(ctx, func(ctx context.Context, wf workflow.Workflow) error {
		var err error
		ws, err = wf.Optimize(ctx)
		return err
	})
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("再最適化に失敗しました: %w", err)
	}
	return ws, nil
}

// RenderTargets は render コマンドで生成する対象なのだ。
type RenderTargets struct {
	Cover  bool
	Scenes []int
	All    bool
}

// ExecuteRender は指定された画像を生成し、outputDir に保存したパスを返すのだ。
func ExecuteRender(ctx context.Context, s *Session, fsys afero.Fs, outputDir string, targets RenderTargets) ([]string, error) {
	if !targets.Cover && !targets.All && len(targets.Scenes) == 0 {
		return nil, fmt.Errorf("%w: 生成対象（--cover / --scene / --all）を指定してほしいのだ", domain.ErrInvalidRequest)
	}

	var paths []string
	err := s.Run(ctx, func(ctx context.Context, wf workflow.Workflow) error {
		paths = paths[:0]
		ir := runner.NewImageRunner(wf, fsys, outputDir)

		if targets.Cover {
			p, err := ir.RunCover(ctx)
			if err != nil {
				return err
			}
			paths = append(paths, p)
		}
		if targets.All {
			ps, err := ir.RunAll(ctx)
			paths = append(paths, ps...)
			return err
		}
		for _, idx := range targets.Scenes {
			p, err := ir.RunScene(ctx, idx)
			if err != nil {
				return err
			}
			paths = append(paths, p)
		}
		return nil
	})
	return paths, err
}

// ExecuteServe は HTTP API を起動し、ctx が終了するまで待つのだ。
func ExecuteServe(ctx context.Context, s *Session, addr string) error {
	return s.Run(ctx, func(ctx context.Context, wf workflow.Workflow) error {
		return server.New(wf).Run(ctx, addr)
	})
}
