package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ImagePromptBuilder は、品質・モーション・内容の3層で画像プロンプトを構築します。
type ImagePromptBuilder struct {
	styleSuffix string // 例: "anime style, high quality"
}

// NewImagePromptBuilder は新しい ImagePromptBuilder を生成します。
func NewImagePromptBuilder(styleSuffix string) *ImagePromptBuilder {
	return &ImagePromptBuilder{
		styleSuffix: strings.TrimSpace(styleSuffix),
	}
}

// BuildImagePrompt は画像生成用のプロンプトを組み立てます。副作用はありません。
func (pb *ImagePromptBuilder) BuildImagePrompt(content string, mode domain.ImageMode, opts ImageOptions) string {
	sections := make([]string, 0, 7)

	// 1. 品質・画風のプリアンブル
	preamble := "### QUALITY & STYLE ###\n" + QualityPreamble
	if pb.styleSuffix != "" {
		preamble += ", " + pb.styleSuffix
	}
	sections = append(sections, preamble)

	// 2. モーション
	if opts.Cinematic {
		sections = append(sections, CinematicMotion)
	} else {
		sections = append(sections, StaticMotion)
	}

	// 3. シーン・カバー固有の内容
	sections = append(sections, "### CONTENT ###\n"+strings.TrimSpace(content))

	if opts.HasReference {
		sections = append(sections, ReferenceConsistency)
	}

	if opts.Bubble != nil && strings.TrimSpace(opts.Bubble.Text) != "" {
		sections = append(sections, BuildBubbleBlock(*opts.Bubble))
	}

	if mode == domain.ImageModeCover {
		sections = append(sections, CoverCompositionRules)
	} else {
		sections = append(sections, SceneCompositionRules)
	}

	ratio := opts.AspectRatio
	if ratio == "" {
		ratio = domain.DefaultAspectRatio
	}
	sections = append(sections, fmt.Sprintf("ASPECT RATIO: The output must be optimized for %s.", ratio))

	return strings.Join(sections, "\n\n")
}
