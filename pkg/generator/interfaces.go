package generator

import (
	"context"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

// Backend は生成 AI バックエンド（テキストと画像）への呼び出しを抽象化します。
type Backend interface {
	// GenerateText は構造化プロンプトを送信し、モデルの生テキスト（JSON を含む）を返します。
	GenerateText(ctx context.Context, in TextInput) (string, error)
	// GenerateImage は画像プロンプトを送信し、応答に含まれるインライン画像をすべて返します。
	GenerateImage(ctx context.Context, in ImageInput) ([]InlineImage, error)
}

// TextInput はテキスト生成呼び出しのペイロードです。
type TextInput struct {
	SystemInstruction string
	Prompt            string
	Attachments       []prompts.Attachment
	Mode              domain.OptimizationMode
}

// ImageInput は画像生成呼び出しのペイロードです。
type ImageInput struct {
	Prompt      string
	AspectRatio string
	Reference   *prompts.Attachment
}

// InlineImage は応答に含まれる画像のバイナリです。
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// ImageRequest は RenderImage への入力です。
type ImageRequest struct {
	Prompt         string
	AspectRatio    string
	Mode           domain.ImageMode
	ReferenceImage string // データURI。空なら参照画像なし
	Cinematic      bool
	Bubble         *prompts.Bubble

	// Epoch はプロンプトの元になった Storyboard の世代番号です。0 なら検証しません。
	Epoch uint64
}

// RenderOptions は Storyboard からまとめて画像を生成する際の共通オプションです。
type RenderOptions struct {
	Cinematic      bool
	IncludeBubbles bool
	ReferenceImage string

	// Epoch は Storyboard を読み込んだ時点の世代番号です。Orchestrator.Epoch で取得します。
	Epoch uint64
}
