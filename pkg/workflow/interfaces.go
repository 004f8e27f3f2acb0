package workflow

import (
	"context"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/project"
)

// Workflow は、台本の構造化・画像生成・プロジェクト管理をまとめた操作を定義します。
// CLI と HTTP API はこのインターフェースを通して Manager を利用します。
type Workflow interface {
	Structure(ctx context.Context, req domain.ScriptRequest) (domain.Workspace, error)
	Optimize(ctx context.Context) (domain.Workspace, error)

	RenderCover(ctx context.Context) (string, error)
	RenderScene(ctx context.Context, index int) (string, error)
	RenderAllScenes(ctx context.Context) ([]string, error)
	ImageStatuses() map[string]domain.GenerationStatus
	ImageAsset(target domain.Target) (domain.GeneratedAsset, bool)

	Workspace(ctx context.Context) (domain.Workspace, error)
	SaveWorkspace(ctx context.Context, ws domain.Workspace) error
	NewProject(ctx context.Context) (*domain.SavedProject, error)
	ListProjects(ctx context.Context) ([]domain.SavedProject, error)
	LoadProject(ctx context.Context, id string) (domain.Workspace, error)
	DeleteProject(ctx context.Context, id string) error
	ClearProjects(ctx context.Context, c project.Confirmer) error
}
