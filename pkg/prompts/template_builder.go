package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// TextPromptBuilder は構成プロンプトのテンプレート群を管理し、モード選択のロジックを内包します。
type TextPromptBuilder struct {
	templates map[domain.OptimizationMode]*template.Template
}

// NewTextPromptBuilder は TextPromptBuilder を初期化します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	if CommonPrompt == "" {
		return nil, fmt.Errorf("共通プロンプト (go:embed) の読み込みに失敗しました: 内容が空です")
	}
	base, err := template.New("common").Parse(CommonPrompt)
	if err != nil {
		return nil, fmt.Errorf("共通プロンプトの解析に失敗: %w", err)
	}

	parsedTemplates := make(map[domain.OptimizationMode]*template.Template)
	for mode, content := range allTemplates {
		if content == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' (go:embed) の読み込みに失敗しました: 内容が空です", mode)
		}

		tmpl, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の複製に失敗: %w", mode, err)
		}
		if _, err := tmpl.New(string(mode)).Parse(content); err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
		}
		parsedTemplates[mode] = tmpl
	}

	return &TextPromptBuilder{
		templates: parsedTemplates,
	}, nil
}

// BuildStructuringPrompt は、要求されたモードに応じてテンプレートを実行し、参照画像を添付します。
func (b *TextPromptBuilder) BuildStructuringPrompt(req domain.ScriptRequest) (StructuringPrompt, error) {
	if err := req.Validate(); err != nil {
		return StructuringPrompt{}, err
	}

	tmpl, ok := b.templates[req.OptimizationMode]
	if !ok {
		return StructuringPrompt{}, fmt.Errorf("不明なモードです: '%s'", req.OptimizationMode)
	}

	var attachments []Attachment
	if req.CharacterImage != "" {
		mimeType, data, err := asset.DecodeDataURI(req.CharacterImage)
		if err != nil {
			return StructuringPrompt{}, fmt.Errorf("%w: キャラクター参照画像: %v", domain.ErrInvalidRequest, err)
		}
		attachments = append(attachments, Attachment{MIMEType: mimeType, Data: data})
	}

	data := TemplateData{
		ScriptContent: req.ScriptContent,
		CoverTitle:    strings.TrimSpace(req.CoverTitle),
		AspectRatio:   req.AspectRatio,
		IncludeBubble: req.IncludeBubbleText,
		HasCharacter:  len(attachments) > 0,
	}

	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, string(req.OptimizationMode), data); err != nil {
		return StructuringPrompt{}, fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}

	return StructuringPrompt{
		SystemInstruction: SystemInstruction,
		Instruction:       strings.TrimSpace(sb.String()),
		Attachments:       attachments,
		Mode:              req.OptimizationMode,
	}, nil
}
