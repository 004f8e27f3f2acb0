package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

const jsonMIMEType = "application/json"

// GeminiConfig は GeminiBackend の設定です。
type GeminiConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
}

// GeminiBackend は google.golang.org/genai を使った Backend の実装です。
type GeminiBackend struct {
	models     *genai.Models
	textModel  string
	imageModel string
}

// NewGeminiBackend は Gemini API クライアントを初期化します。
// API キーが空の場合はネットワークに触れる前に ErrMissingCredential を返します。
func NewGeminiBackend(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingCredential
	}
	if cfg.TextModel == "" || cfg.ImageModel == "" {
		return nil, errors.New("テキストモデルと画像モデルの指定は必須です")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
	}

	return &GeminiBackend{
		models:     client.Models,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
	}, nil
}

// GenerateText は JSON 応答スキーマ付きで構成生成を呼び出します。
func (g *GeminiBackend) GenerateText(ctx context.Context, in TextInput) (string, error) {
	parts := make([]*genai.Part, 0, len(in.Attachments)+1)
	for _, a := range in.Attachments {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(in.Prompt))

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: jsonMIMEType,
		ResponseSchema:   StoryboardSchema(in.Mode),
	}
	if in.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(in.SystemInstruction, genai.RoleUser)
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.textModel, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return "", fmt.Errorf("テキスト生成に失敗しました: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("テキスト生成の応答が空です")
	}
	slog.DebugContext(ctx, "テキスト生成が完了しました",
		"model", g.textModel,
		"mode", in.Mode,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return text, nil
}

// GenerateImage は画像モダリティを要求し、応答中のインライン画像を返します。
func (g *GeminiBackend) GenerateImage(ctx context.Context, in ImageInput) ([]InlineImage, error) {
	parts := make([]*genai.Part, 0, 2)
	if in.Reference != nil && len(in.Reference.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(in.Reference.Data, in.Reference.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(in.Prompt))

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
	}
	if in.AspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: in.AspectRatio}
	}

	resp, err := g.models.GenerateContent(ctx, g.imageModel, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return nil, fmt.Errorf("画像生成に失敗しました: %w", err)
	}

	var images []InlineImage
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
				continue
			}
			images = append(images, InlineImage{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data})
		}
	}
	return images, nil
}
