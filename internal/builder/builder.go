package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/auth"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/storage"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

// BuildAppContext は設定からストアと鍵ストアを準備します。API キーはまだ解決しません。
func BuildAppContext(cfg *config.Config) (*AppContext, error) {
	keyPath, err := auth.DefaultKeyPath()
	if err != nil {
		return nil, err
	}

	kv, err := InitializeStore(cfg)
	if err != nil {
		return nil, err
	}
	return NewAppContext(cfg, auth.NewKeyStore(keyPath), kv, kv.Close), nil
}

// InitializeStore は --db / STORYBOARD_DB のパス、無ければ既定パスの SQLite を開きます。
func InitializeStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	path := cfg.ResolveDBPath()
	if path == "" {
		p, err := storage.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	kv, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("ストアの初期化に失敗しました (%s): %w", path, err)
	}
	slog.Debug("ストアを開きました", "path", path)
	return kv, nil
}

// ResolveAPIKey はフラグ → 環境変数 → 保存済みファイルの順で API キーを探します。
func ResolveAPIKey(appCtx *AppContext) (string, auth.Source, error) {
	key, src, err := appCtx.Keys.Resolve(appCtx.Options.APIKey, appCtx.Config.GeminiAPIKey)
	if err != nil {
		return "", auth.SourceNone, fmt.Errorf("API キーの解決に失敗しました: %w", err)
	}
	return key, src, nil
}

// BuildWorkflow は API キーを使って Gemini バックエンドの Manager を構築します。
func BuildWorkflow(ctx context.Context, appCtx *AppContext, apiKey string) (*workflow.Manager, error) {
	wcfg := appCtx.Config.WorkflowConfig(apiKey)
	m, err := workflow.New(ctx, workflow.ManagerArgs{
		Config: wcfg,
		Store:  appCtx.Store,
	})
	if err != nil {
		return nil, fmt.Errorf("ワークフローの初期化に失敗しました: %w", err)
	}
	slog.Debug("ワークフローを初期化しました", "text_model", wcfg.GeminiModel, "image_model", wcfg.ImageModel)
	return m, nil
}
