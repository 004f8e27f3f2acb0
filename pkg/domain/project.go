package domain

import "strings"

// UntitledProject はタイトルが推定できない場合のプレースホルダーです。
const UntitledProject = "Untitled Project"

// Workspace は現在編集中（未アーカイブ）の唯一のセッションです。
type Workspace struct {
	ScriptContent  string           `json:"scriptContent"`
	CoverTitle     string           `json:"coverTitle"`
	IncludeBubble  bool             `json:"includeBubble"`
	Cinematic      bool             `json:"cinematic"`
	CharacterImage string           `json:"characterImage,omitempty"`
	AspectRatio    string           `json:"aspectRatio"`
	Mode           OptimizationMode `json:"mode,omitempty"`
	Result         *Storyboard      `json:"result"`
}

// NewWorkspace はデフォルトのトグル状態を持つ空のワークスペースを返します。
func NewWorkspace() Workspace {
	return Workspace{
		IncludeBubble: true,
		Cinematic:     true,
		AspectRatio:   DefaultAspectRatio,
		Mode:          ModeStrict,
	}
}

// IsEmpty は台本も生成結果も無い状態かを返します。
func (w Workspace) IsEmpty() bool {
	return strings.TrimSpace(w.ScriptContent) == "" && w.Result == nil
}

// Request は現在の入力から指定モードの ScriptRequest を組み立てます。
func (w Workspace) Request(mode OptimizationMode) ScriptRequest {
	ratio := w.AspectRatio
	if ratio == "" {
		ratio = DefaultAspectRatio
	}
	return ScriptRequest{
		ScriptContent:     w.ScriptContent,
		CoverTitle:        w.CoverTitle,
		IncludeBubbleText: w.IncludeBubble,
		CharacterImage:    w.CharacterImage,
		AspectRatio:       ratio,
		OptimizationMode:  mode,
	}
}

// Phase はワークスペースの状態遷移上の位置です。
type Phase string

const (
	PhaseDraft     Phase = "draft"
	PhaseGenerated Phase = "generated"
	PhaseOptimized Phase = "optimized"
	PhaseArchived  Phase = "archived"
)

// Phase は現在のワークスペースがどの段階にあるかを返します。
func (w Workspace) Phase() Phase {
	switch {
	case w.Result == nil:
		return PhaseDraft
	case w.Result.Analysis != nil:
		return PhaseOptimized
	default:
		return PhaseGenerated
	}
}

// SavedProject はワークスペースのアーカイブ済みスナップショットです。保存後は削除以外で変更しません。
type SavedProject struct {
	ID        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Title     string    `json:"title"`
	Data      Workspace `json:"data"`
}

// ResolveTitle はユーザー指定タイトル → 推定タイトル → プレースホルダーの順でタイトルを決めます。
func (w Workspace) ResolveTitle() string {
	if t := strings.TrimSpace(w.CoverTitle); t != "" {
		return t
	}
	if w.Result != nil {
		if t := strings.TrimSpace(w.Result.Title); t != "" {
			return t
		}
	}
	return UntitledProject
}
