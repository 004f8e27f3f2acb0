package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("GEMINI_MODEL", "env-model")
	t.Setenv("IMAGE_GEMINI_MODEL", "custom-image")
	t.Setenv("STORYBOARD_RATE_INTERVAL", "5")

	cfg := LoadConfig()
	if cfg.GeminiAPIKey != "env-key" {
		t.Errorf("API キーが読み込まれていません: %q", cfg.GeminiAPIKey)
	}
	if cfg.GeminiModel != "env-model" {
		t.Errorf("テキストモデルが読み込まれていません: %q", cfg.GeminiModel)
	}
	if cfg.GeminiImageModel != "custom-image" {
		t.Errorf("画像モデルが読み込まれていません: %q", cfg.GeminiImageModel)
	}
	if cfg.RateInterval != 5*time.Second {
		t.Errorf("単位なしの間隔は秒として扱うはずです: %v", cfg.RateInterval)
	}
}

func TestWorkflowConfig_FlagsOverride(t *testing.T) {
	cfg := &Config{
		GeminiModel:      "env-model",
		GeminiImageModel: "env-image",
		DBPath:           "/env/db",
		RateInterval:     3 * time.Second,
		Options: GenerateOptions{
			AIModel: "flag-model",
			DBPath:  "/flag/db",
		},
	}
	wc := cfg.WorkflowConfig("key")
	if wc.GeminiAPIKey != "key" || wc.GeminiModel != "flag-model" || wc.ImageModel != "env-image" {
		t.Errorf("フラグが優先されていません: %+v", wc)
	}
	if wc.RateInterval != 3*time.Second {
		t.Errorf("間隔が反映されていません: %v", wc.RateInterval)
	}
	if got := cfg.ResolveDBPath(); got != "/flag/db" {
		t.Errorf("DB パス: 期待値 /flag/db, 実際の値 %s", got)
	}
}

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"":       time.Minute,
		"1500ms": 1500 * time.Millisecond,
		"7":      7 * time.Second,
		"abc":    time.Minute,
	}
	for in, want := range tests {
		if got := parseDuration(in, time.Minute); got != want {
			t.Errorf("parseDuration(%q) = %v, 期待値 %v", in, got, want)
		}
	}
}
