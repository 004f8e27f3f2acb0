package domain

// Scene はストーリーボードの1シーン（1カット）の構成を保持します。
type Scene struct {
	Timestamp       string `json:"timestamp"`
	OriginalText    string `json:"originalText"`
	Visual          string `json:"visual"`
	ImagePrompt     string `json:"imagePrompt"`
	BubbleText      string `json:"bubbleText"`
	EmotionColor    string `json:"emotionColor"`
	MangaExpression string `json:"mangaExpression,omitempty"`
	Transition      string `json:"transition,omitempty"`
}

// HasBubble は吹き出しテキストが設定されているかを返します。
func (s Scene) HasBubble() bool {
	return s.BubbleText != ""
}

// Analysis は viral モードでのみ返されるバズ予測の分析結果です。
type Analysis struct {
	Score               int      `json:"score"`
	HookStrength        string   `json:"hookStrength"`
	EmotionalAppeal     string   `json:"emotionalAppeal"`
	RetentionPrediction string   `json:"retentionPrediction"`
	ImprovementTips     []string `json:"improvementTips"`
}

// Storyboard は AI モデルから返される絵コンテ全体の構造です。
// Body の並び順は物語の順序そのものであり、意味を持ちます。
type Storyboard struct {
	Title       string    `json:"title"`
	Body        []Scene   `json:"body"`
	ImagePrompt string    `json:"imagePrompt"`
	AspectRatio string    `json:"aspectRatio"`
	Analysis    *Analysis `json:"analysis,omitempty"`
}

// CanReoptimize は「もう一度最適化」アクションを提示するかどうかを判定します。
// 分析結果が無い（strict で生成された）場合は常に提示し、
// ある場合はスコアが閾値を厳密に下回るときのみ提示します。
func (sb *Storyboard) CanReoptimize(threshold int) bool {
	if sb == nil {
		return false
	}
	if sb.Analysis == nil {
		return true
	}
	return sb.Analysis.Score < threshold
}

// Clone は Storyboard のディープコピーを返します。
func (sb *Storyboard) Clone() *Storyboard {
	if sb == nil {
		return nil
	}
	c := *sb
	if sb.Body != nil {
		c.Body = make([]Scene, len(sb.Body))
		copy(c.Body, sb.Body)
	}
	if sb.Analysis != nil {
		a := *sb.Analysis
		if sb.Analysis.ImprovementTips != nil {
			a.ImprovementTips = append([]string(nil), sb.Analysis.ImprovementTips...)
		}
		c.Analysis = &a
	}
	return &c
}
