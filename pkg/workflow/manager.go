package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/project"
)

var (
	// ErrNoStoryboard はワークスペースに構造化済みの結果が無い場合のエラーです。
	ErrNoStoryboard = errors.New("ストーリーボードがまだ生成されていません")
	// ErrOptimizeNotOffered はスコアが閾値以上で再最適化を提示しない場合のエラーです。
	ErrOptimizeNotOffered = errors.New("スコアが十分に高いため再最適化は不要です")
)

// Manager は、Orchestrator と Project Store を束ね、ワークスペースの状態遷移を担います。
type Manager struct {
	cfg          Config
	orchestrator *generator.Orchestrator
	projects     *project.Store
}

var _ Workflow = (*Manager)(nil)

// New は、設定と依存関係を基に新しい Manager を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	if args.Store == nil {
		return nil, fmt.Errorf("Store は必須です")
	}

	backend, err := initializeBackend(ctx, args.Backend, args.Config)
	if err != nil {
		return nil, err
	}

	sPrompt, err := initializeScriptPrompt(args.ScriptPrompt)
	if err != nil {
		return nil, err
	}
	iPrompt := initializeImagePrompt(args.ImagePrompt, args.Config.StyleSuffix)

	orchestrator, err := buildOrchestrator(args.Config, backend, sPrompt, iPrompt)
	if err != nil {
		return nil, fmt.Errorf("オーケストレーターの初期化に失敗しました: %w", err)
	}

	return &Manager{
		cfg:          args.Config,
		orchestrator: orchestrator,
		projects:     project.NewStore(args.Store, args.Config.MaxHistory),
	}, nil
}

// Orchestrator は内部の Orchestrator を返します。
func (m *Manager) Orchestrator() *generator.Orchestrator {
	return m.orchestrator
}

// Projects は内部の Project Store を返します。
func (m *Manager) Projects() *project.Store {
	return m.projects
}

// Structure は台本を構造化し、結果でワークスペースを置き換えます。
func (m *Manager) Structure(ctx context.Context, req domain.ScriptRequest) (domain.Workspace, error) {
	var ws domain.Workspace
	_, err := m.orchestrator.StructureScriptAndCommit(ctx, req, func(ctx context.Context, sb *domain.Storyboard) error {
		committed, err := m.projects.CommitStoryboard(ctx, req, sb)
		if err != nil {
			return fmt.Errorf("ワークスペースの保存に失敗しました: %w", err)
		}
		ws = committed
		return nil
	})
	if err != nil {
		return domain.Workspace{}, err
	}
	slog.InfoContext(ctx, "ワークスペースを更新しました", "phase", ws.Phase(), "title", ws.ResolveTitle())
	return ws, nil
}

// Optimize は現在のワークスペースを viral モードで構造化し直します。
// 直前の分析スコアが閾値以上の場合は ErrOptimizeNotOffered を返します。
func (m *Manager) Optimize(ctx context.Context) (domain.Workspace, error) {
	ws, err := m.projects.Workspace(ctx)
	if err != nil {
		return domain.Workspace{}, err
	}
	if ws.Result != nil && !ws.Result.CanReoptimize(m.cfg.ReoptimizeThreshold) {
		return domain.Workspace{}, fmt.Errorf("%w (score=%d, threshold=%d)", ErrOptimizeNotOffered, ws.Result.Analysis.Score, m.cfg.ReoptimizeThreshold)
	}
	return m.Structure(ctx, ws.Request(domain.ModeViral))
}

// currentStoryboard は現在の Storyboard を読み込みます。
// 世代番号は読み込みの前に取得するので、途中で再構造化されても古いプロンプトの画像は採用されません。
func (m *Manager) currentStoryboard(ctx context.Context) (*domain.Storyboard, generator.RenderOptions, error) {
	epoch := m.orchestrator.Epoch()
	ws, err := m.projects.Workspace(ctx)
	if err != nil {
		return nil, generator.RenderOptions{}, err
	}
	if ws.Result == nil {
		return nil, generator.RenderOptions{}, ErrNoStoryboard
	}
	return ws.Result, generator.RenderOptions{
		Cinematic:      ws.Cinematic,
		IncludeBubbles: ws.IncludeBubble,
		ReferenceImage: ws.CharacterImage,
		Epoch:          epoch,
	}, nil
}

// RenderCover は現在のストーリーボードのカバー画像を生成します。
func (m *Manager) RenderCover(ctx context.Context) (string, error) {
	sb, opts, err := m.currentStoryboard(ctx)
	if err != nil {
		return "", err
	}
	return m.orchestrator.RenderCover(ctx, sb, opts)
}

// RenderScene は現在のストーリーボードの index 番目のシーン画像を生成します。
func (m *Manager) RenderScene(ctx context.Context, index int) (string, error) {
	sb, opts, err := m.currentStoryboard(ctx)
	if err != nil {
		return "", err
	}
	return m.orchestrator.RenderScene(ctx, sb, index, opts)
}

// RenderAllScenes は未生成のシーン画像をまとめて生成します。
func (m *Manager) RenderAllScenes(ctx context.Context) ([]string, error) {
	sb, opts, err := m.currentStoryboard(ctx)
	if err != nil {
		return nil, err
	}
	return m.orchestrator.RenderAllScenes(ctx, sb, opts)
}

// ImageStatuses はターゲット文字列（"cover" / "scene:<n>"）ごとの生成状態を返します。
func (m *Manager) ImageStatuses() map[string]domain.GenerationStatus {
	statuses := m.orchestrator.Statuses()
	out := make(map[string]domain.GenerationStatus, len(statuses))
	for target, s := range statuses {
		out[target.String()] = s
	}
	return out
}

// ImageAsset は生成済みの画像を返します。
func (m *Manager) ImageAsset(target domain.Target) (domain.GeneratedAsset, bool) {
	return m.orchestrator.Asset(target)
}

// Workspace は現在のワークスペースを返します。
func (m *Manager) Workspace(ctx context.Context) (domain.Workspace, error) {
	return m.projects.Workspace(ctx)
}

// SaveWorkspace は入力欄とトグルの変更を保存します。
// 生成結果は構造化とプロジェクト読み込みでしか置き換わらないため、ws.Result は無視します。
func (m *Manager) SaveWorkspace(ctx context.Context, ws domain.Workspace) error {
	current, err := m.projects.Workspace(ctx)
	if err != nil {
		return err
	}
	ws.Result = current.Result
	return m.projects.SaveWorkspace(ctx, ws)
}

// NewProject は現在の作業を履歴に退避し、空のワークスペースで始め直します。
func (m *Manager) NewProject(ctx context.Context) (*domain.SavedProject, error) {
	saved, err := m.projects.NewProject(ctx)
	if err != nil {
		return nil, err
	}
	m.orchestrator.Reset()
	return saved, nil
}

// ListProjects は保存済みプロジェクトを新しい順に返します。
func (m *Manager) ListProjects(ctx context.Context) ([]domain.SavedProject, error) {
	return m.projects.ListSnapshots(ctx)
}

// LoadProject は保存済みプロジェクトをワークスペースに読み込みます。以前の生成画像は破棄されます。
func (m *Manager) LoadProject(ctx context.Context, id string) (domain.Workspace, error) {
	ws, err := m.projects.LoadSnapshot(ctx, id)
	if err != nil {
		return domain.Workspace{}, err
	}
	m.orchestrator.Reset()
	return ws, nil
}

// DeleteProject は保存済みプロジェクトを削除します。
func (m *Manager) DeleteProject(ctx context.Context, id string) error {
	return m.projects.DeleteSnapshot(ctx, id)
}

// ClearProjects は確認が取れた場合に履歴をすべて削除します。
func (m *Manager) ClearProjects(ctx context.Context, c project.Confirmer) error {
	return m.projects.ClearAll(ctx, c)
}
