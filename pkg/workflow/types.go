package workflow

import (
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/storage"
)

// ManagerArgs は Manager の初期化に必要な依存関係です。
type ManagerArgs struct {
	Config Config
	// Store はワークスペースと履歴の保存先です（必須）。
	Store storage.KV
	// Backend が nil の場合は Config の API キーで GeminiBackend を生成します。
	Backend      generator.Backend
	ScriptPrompt prompts.ScriptPrompt
	ImagePrompt  prompts.ImagePrompt
}
