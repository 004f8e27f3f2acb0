package workflow

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
)

// initializeBackend は Backend を初期化します。
// 引数として既存のバックエンドが渡された場合はそれを返し、nil の場合は Gemini を使います。
func initializeBackend(ctx context.Context, backend generator.Backend, cfg Config) (generator.Backend, error) {
	if backend != nil {
		return backend, nil
	}
	gb, err := generator.NewGeminiBackend(ctx, generator.GeminiConfig{
		APIKey:     cfg.GeminiAPIKey,
		TextModel:  cfg.GeminiModel,
		ImageModel: cfg.ImageModel,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return gb, nil
}

// initializeScriptPrompt は ScriptPrompt ビルダーを初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializeScriptPrompt(scriptPrompt prompts.ScriptPrompt) (prompts.ScriptPrompt, error) {
	if scriptPrompt != nil {
		return scriptPrompt, nil
	}

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}

	return pb, nil
}

// initializeImagePrompt は ImagePromptBuilder を初期化します。
func initializeImagePrompt(imagePrompt prompts.ImagePrompt, styleSuffix string) prompts.ImagePrompt {
	if imagePrompt != nil {
		return imagePrompt
	}
	return prompts.NewImagePromptBuilder(styleSuffix)
}

// buildOrchestrator は設定に従って Orchestrator を組み立てます。
func buildOrchestrator(cfg Config, backend generator.Backend, sp prompts.ScriptPrompt, ip prompts.ImagePrompt) (*generator.Orchestrator, error) {
	limit := rate.Inf
	if cfg.RateInterval > 0 {
		limit = rate.Every(cfg.RateInterval)
	}

	return generator.NewOrchestrator(backend, sp, ip, generator.Options{
		Executor:            retry.NewExecutor(cfg.MaxRetries, cfg.RetryInitialDelay),
		Limiter:             rate.NewLimiter(limit, 2),
		MaxConcurrentImages: cfg.MaxConcurrentImages,
		VerifyVerbatim:      cfg.StrictVerify,
	})
}
