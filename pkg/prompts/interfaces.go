package prompts

import "github.com/shouni/go-storyboard-kit/pkg/domain"

// ScriptPrompt は、台本の構成プロンプトを構築する契約です。
type ScriptPrompt interface {
	// BuildStructuringPrompt は、リクエストからバックエンドに渡す指示文と添付画像を組み立てます。
	BuildStructuringPrompt(req domain.ScriptRequest) (StructuringPrompt, error)
}

// ImagePrompt は、画像生成プロンプトを構築する契約です。
type ImagePrompt interface {
	// BuildImagePrompt は、品質プリアンブル・モーション指定・内容の3層に構図ルールを加えたプロンプトを返します。
	BuildImagePrompt(content string, mode domain.ImageMode, opts ImageOptions) string
}

// Attachment はプロンプトに添付するインライン画像です。
type Attachment struct {
	MIMEType string
	Data     []byte
}

// StructuringPrompt は構成生成リクエストの本体です。
type StructuringPrompt struct {
	SystemInstruction string
	Instruction       string
	Attachments       []Attachment
	Mode              domain.OptimizationMode
}

// Bubble は画像に描き込む吹き出しの指定です。
type Bubble struct {
	Text  string
	Color string
}

// ImageOptions は画像プロンプトの構築オプションです。
type ImageOptions struct {
	AspectRatio  string
	Cinematic    bool
	HasReference bool
	Bubble       *Bubble
}
