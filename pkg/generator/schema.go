package generator

import (
	"google.golang.org/genai"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func stringSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

// StoryboardSchema は構成生成に渡す応答スキーマを返します。
// 必須フィールドは正規化時の必須チェックと揃えています。
func StoryboardSchema(mode domain.OptimizationMode) *genai.Schema {
	scene := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"timestamp":    stringSchema("Time range, e.g. 0:00-0:03"),
			"originalText": stringSchema("Narration text for this scene"),
			"visual":       stringSchema("Visual direction for the scene"),
			"imagePrompt":  stringSchema("English prompt for the image model"),
			"bubbleText":   stringSchema("2-4 keywords for a speech bubble, or empty"),
			"emotionColor": stringSchema("Plain color name for the emotion, e.g. Bright Red"),
		},
		Required: []string{"timestamp", "originalText", "visual", "imagePrompt", "bubbleText", "emotionColor"},
	}

	root := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       stringSchema("Title of the video"),
			"body":        {Type: genai.TypeArray, Items: scene},
			"imagePrompt": stringSchema("Prompt for the cover image"),
		},
		Required: []string{"title", "body", "imagePrompt"},
	}

	if mode == domain.ModeViral {
		scene.Properties["mangaExpression"] = stringSchema("Facial expression and body action")
		scene.Properties["transition"] = stringSchema("Cut into the next scene")
		root.Properties["analysis"] = &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score":               {Type: genai.TypeInteger, Description: "Viral score 0-100"},
				"hookStrength":        stringSchema("Strength of the first 3 seconds"),
				"emotionalAppeal":     stringSchema("Emotional appeal"),
				"retentionPrediction": stringSchema("Predicted retention"),
				"improvementTips":     {Type: genai.TypeArray, Items: stringSchema("Tip")},
			},
			Required: []string{"score", "hookStrength", "emotionalAppeal", "retentionPrediction", "improvementTips"},
		}
		root.Required = append(root.Required, "analysis")
	}
	return root
}
