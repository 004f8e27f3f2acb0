package config

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

// デフォルト値の定義なのだ
const (
	DefaultModel             = workflow.DefaultGeminiModel
	DefaultImageModel        = workflow.DefaultImageModel
	DefaultRateInterval      = workflow.DefaultRateInterval
	DefaultLocalImageDir     = asset.DefaultImageDir
	DefaultListenAddr        = "127.0.0.1:8080"
	DefaultImagePromptSuffix = workflow.DefaultStyleSuffix
)

// Config はアプリケーション全体の環境設定（APIキーやモデル、保存先）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey      string
	GeminiModel       string
	GeminiImageModel  string
	ImagePromptSuffix string
	DBPath            string
	RateInterval      time.Duration

	Options GenerateOptions
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	// .env が無いのは普通のことなので無視するのだ
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env を読み込みませんでした", "reason", err)
	}

	return &Config{
		GeminiAPIKey:      envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:       envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel:  envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		ImagePromptSuffix: envutil.GetEnv("IMAGE_PROMPT_SUFFIX", DefaultImagePromptSuffix),
		DBPath:            envutil.GetEnv("STORYBOARD_DB", ""),
		RateInterval:      parseDuration(envutil.GetEnv("STORYBOARD_RATE_INTERVAL", ""), DefaultRateInterval),
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	// 単位なしは秒として扱うのだ
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	slog.Warn("STORYBOARD_RATE_INTERVAL を解釈できないためデフォルト値を使います", "value", s)
	return def
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	ScriptFile string // --script-file（'-' で標準入力）
	CoverTitle string // --title
	Character  string // --character: 参照画像のパス

	// 生成設定
	AspectRatio string // --aspect
	Viral       bool   // --viral
	NoBubble    bool   // --no-bubble
	Static      bool   // --static

	// 画像生成関連
	OutputImageDir string // --output-image-dir

	// AI挙動設定
	APIKey     string // --api-key
	AIModel    string // --model
	ImageModel string // --image-model

	// 保存先・サーバー
	DBPath     string // --db
	ListenAddr string // --addr
	Verbose    bool   // --verbose
}

// WorkflowConfig は環境設定と CLI フラグを合成して workflow.Config を作るのだ。フラグが優先されるのだ。
func (c *Config) WorkflowConfig(apiKey string) workflow.Config {
	cfg := workflow.NewConfig(apiKey)
	cfg.GeminiModel = firstNonEmpty(c.Options.AIModel, c.GeminiModel, DefaultModel)
	cfg.ImageModel = firstNonEmpty(c.Options.ImageModel, c.GeminiImageModel, DefaultImageModel)
	if c.ImagePromptSuffix != "" {
		cfg.StyleSuffix = c.ImagePromptSuffix
	}
	if c.RateInterval > 0 {
		cfg.RateInterval = c.RateInterval
	}
	return cfg
}

// ResolveDBPath は --db → STORYBOARD_DB の順で保存先を決めるのだ。どちらも無ければ空文字なのだ。
func (c *Config) ResolveDBPath() string {
	return firstNonEmpty(c.Options.DBPath, c.DBPath)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
