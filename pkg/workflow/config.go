package workflow

import (
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/project"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
)

// デフォルト値の定義なのだ
const (
	DefaultGeminiModel         = "gemini-3-flash-preview"
	DefaultImageModel          = "gemini-3-pro-image-preview"
	DefaultRateInterval        = 2 * time.Second
	DefaultReoptimizeThreshold = 95
	DefaultStyleSuffix         = "anime style, dramatic cinematic composition, vertical short-form video frame"
)

// Config は Storyboard Kit の Manager を動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiAPIKey string
	GeminiModel  string
	ImageModel   string

	// --- Generation Settings ---
	StyleSuffix         string
	RateInterval        time.Duration
	MaxConcurrentImages int
	ReoptimizeThreshold int
	StrictVerify        bool

	// --- Project Settings ---
	MaxHistory int

	// --- Retries ---
	MaxRetries        int
	RetryInitialDelay time.Duration
}

// NewConfig はデフォルト値で初期化された Config に API キーをセットして返します。
func NewConfig(apiKey string) Config {
	cfg := DefaultConfig()
	cfg.GeminiAPIKey = apiKey
	return cfg
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数なのだ。
func DefaultConfig() Config {
	return Config{
		GeminiModel:         DefaultGeminiModel,
		ImageModel:          DefaultImageModel,
		StyleSuffix:         DefaultStyleSuffix,
		RateInterval:        DefaultRateInterval,
		MaxConcurrentImages: generator.DefaultMaxConcurrentImages,
		ReoptimizeThreshold: DefaultReoptimizeThreshold,
		StrictVerify:        true,
		MaxHistory:          project.DefaultMaxHistory,
		MaxRetries:          retry.DefaultMaxRetries,
		RetryInitialDelay:   retry.DefaultInitialDelay,
	}
}
