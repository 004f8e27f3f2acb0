package builder

import (
	"github.com/shouni/go-storyboard-kit/internal/auth"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/project"
	"github.com/shouni/go-storyboard-kit/pkg/storage"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config   *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options  config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Keys     *auth.KeyStore         // Keysは、保存済み API キーの読み書きに使います。
	Store    storage.KV             // Storeは、ワークスペースと履歴の永続化先です。
	Projects *project.Store         // Projectsは、APIキー無しで使えるプロジェクト操作です。

	closer func() error
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, keys *auth.KeyStore, kv storage.KV, closer func() error) *AppContext {
	return &AppContext{
		Config:   cfg,
		Options:  cfg.Options,
		Keys:     keys,
		Store:    kv,
		Projects: project.NewStore(kv, project.DefaultMaxHistory),
		closer:   closer,
	}
}

// Close は保持しているストアを閉じます。
func (a *AppContext) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}
