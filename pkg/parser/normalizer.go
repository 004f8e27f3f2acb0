package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// NeutralEmotionColor は吹き出しが無効、または色が返されなかった場合の感情色です。
const NeutralEmotionColor = "White"

// rawStoryboard はモデル応答をそのまま受け止める境界用の構造体です。
// 必須フィールドの欠落を検出するためにポインタで受けます。
type rawStoryboard struct {
	Title       *string      `json:"title"`
	Body        *[]rawScene  `json:"body"`
	ImagePrompt *string      `json:"imagePrompt"`
	Analysis    *rawAnalysis `json:"analysis"`
}

type rawScene struct {
	Timestamp       *string    `json:"timestamp"`
	OriginalText    *string    `json:"originalText"`
	Visual          *string    `json:"visual"`
	ImagePrompt     *string    `json:"imagePrompt"`
	BubbleText      FlexString `json:"bubbleText"`
	EmotionColor    FlexString `json:"emotionColor"`
	MangaExpression FlexString `json:"mangaExpression"`
	Transition      FlexString `json:"transition"`
}

type rawAnalysis struct {
	Score               FlexString   `json:"score"`
	HookStrength        FlexString   `json:"hookStrength"`
	EmotionalAppeal     FlexString   `json:"emotionalAppeal"`
	RetentionPrediction FlexString   `json:"retentionPrediction"`
	ImprovementTips     []FlexString `json:"improvementTips"`
}

// ExtractJSON は最初の '{' から最後の '}' までを JSON ペイロードとして切り出します。
// 前後の説明文やコードフェンスは捨てます。
func ExtractJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// Normalize はモデルの生テキストを検証・修復し、正規の Storyboard に変換します。
// 同じ入力に対して何度適用しても結果は変わりません。
func Normalize(raw string, req domain.ScriptRequest) (*domain.Storyboard, error) {
	payload, ok := ExtractJSON(raw)
	if !ok {
		return nil, malformed("storyboard", "JSON オブジェクトが見つかりません")
	}

	var rs rawStoryboard
	if err := json.Unmarshal([]byte(payload), &rs); err != nil {
		return nil, &MalformedResponseError{Record: "storyboard", Reason: "JSON の解析に失敗しました", Err: err}
	}

	switch {
	case rs.Title == nil:
		return nil, malformed("storyboard", "必須フィールド 'title' がありません")
	case rs.Body == nil:
		return nil, malformed("storyboard", "必須フィールド 'body' がありません")
	case rs.ImagePrompt == nil:
		return nil, malformed("storyboard", "必須フィールド 'imagePrompt' がありません")
	}

	sb := &domain.Storyboard{
		Title:       strings.TrimSpace(*rs.Title),
		Body:        make([]domain.Scene, 0, len(*rs.Body)),
		ImagePrompt: strings.TrimSpace(*rs.ImagePrompt),
		AspectRatio: req.AspectRatio,
	}

	for i, s := range *rs.Body {
		scene, err := normalizeScene(i, s, req.IncludeBubbleText)
		if err != nil {
			return nil, err
		}
		sb.Body = append(sb.Body, scene)
	}

	if rs.Analysis != nil {
		sb.Analysis = normalizeAnalysis(rs.Analysis)
	}

	return sb, nil
}

func normalizeScene(i int, s rawScene, includeBubble bool) (domain.Scene, error) {
	record := fmt.Sprintf("body[%d]", i)
	required := []struct {
		name  string
		value *string
	}{
		{"timestamp", s.Timestamp},
		{"originalText", s.OriginalText},
		{"visual", s.Visual},
		{"imagePrompt", s.ImagePrompt},
	}
	for _, f := range required {
		if f.value == nil {
			return domain.Scene{}, malformed(record, fmt.Sprintf("必須フィールド '%s' がありません", f.name))
		}
	}

	scene := domain.Scene{
		Timestamp:       strings.TrimSpace(*s.Timestamp),
		OriginalText:    strings.TrimSpace(*s.OriginalText),
		Visual:          strings.TrimSpace(*s.Visual),
		ImagePrompt:     strings.TrimSpace(*s.ImagePrompt),
		MangaExpression: strings.TrimSpace(s.MangaExpression.String()),
		Transition:      strings.TrimSpace(s.Transition.String()),
		EmotionColor:    NeutralEmotionColor,
	}

	if !includeBubble {
		return scene, nil
	}
	scene.BubbleText = strings.TrimSpace(s.BubbleText.String())
	if c := strings.TrimSpace(s.EmotionColor.String()); c != "" {
		scene.EmotionColor = c
	}
	return scene, nil
}

func normalizeAnalysis(ra *rawAnalysis) *domain.Analysis {
	// スコアは文字列で返されることもある
	v, err := strconv.ParseFloat(strings.TrimSpace(ra.Score.String()), 64)
	if err != nil || math.IsNaN(v) {
		slog.Warn("分析スコアを数値として解釈できませんでした", "score", ra.Score.String())
		v = 0
	}
	score := int(math.Round(math.Max(0, math.Min(100, v))))

	a := &domain.Analysis{
		Score:               score,
		HookStrength:        strings.TrimSpace(ra.HookStrength.String()),
		EmotionalAppeal:     strings.TrimSpace(ra.EmotionalAppeal.String()),
		RetentionPrediction: strings.TrimSpace(ra.RetentionPrediction.String()),
	}
	for _, tip := range ra.ImprovementTips {
		if t := strings.TrimSpace(tip.String()); t != "" {
			a.ImprovementTips = append(a.ImprovementTips, t)
		}
	}
	return a
}
