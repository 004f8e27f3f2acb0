package prompts

import (
	_ "embed"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// SystemInstruction はストーリーボード構成時のペルソナです。
	SystemInstruction = "You are a Cinematic Visual Director. You maintain strict character consistency based on provided reference images."
)

// TemplateData は構成プロンプトのテンプレートに渡すデータ構造です。
type TemplateData struct {
	ScriptContent string
	CoverTitle    string
	AspectRatio   string
	IncludeBubble bool
	HasCharacter  bool
}

var (
	//go:embed common.md
	CommonPrompt string
	//go:embed strict.md
	StrictPrompt string
	//go:embed viral.md
	ViralPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var allTemplates = map[domain.OptimizationMode]string{
	domain.ModeStrict: StrictPrompt,
	domain.ModeViral:  ViralPrompt,
}
