package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TargetKind は画像生成対象の種類です。
type TargetKind string

const (
	TargetCover TargetKind = "cover"
	TargetScene TargetKind = "scene"
)

// Target は画像生成の対象（カバー、または特定のシーン番号）を識別します。
type Target struct {
	Kind  TargetKind
	Index int
}

// CoverTarget はカバー画像のターゲットを返します。
func CoverTarget() Target {
	return Target{Kind: TargetCover}
}

// SceneTarget は index 番目のシーンのターゲットを返します。
func SceneTarget(index int) Target {
	return Target{Kind: TargetScene, Index: index}
}

// String は "cover" または "scene:<n>" を返します。キャッシュのキーとしても使います。
func (t Target) String() string {
	if t.Kind == TargetCover {
		return string(TargetCover)
	}
	return fmt.Sprintf("%s:%d", TargetScene, t.Index)
}

// ParseTarget は String の逆変換です。
func ParseTarget(s string) (Target, error) {
	if s == string(TargetCover) {
		return CoverTarget(), nil
	}
	rest, ok := strings.CutPrefix(s, string(TargetScene)+":")
	if !ok {
		return Target{}, fmt.Errorf("不明なターゲットです: %q", s)
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return Target{}, fmt.Errorf("シーン番号が不正です: %q", s)
	}
	return SceneTarget(idx), nil
}

// GenerationStatus は各ターゲットの生成状態です。
type GenerationStatus string

const (
	StatusIdle    GenerationStatus = "idle"
	StatusPending GenerationStatus = "pending"
	StatusReady   GenerationStatus = "ready"
	StatusFailed  GenerationStatus = "failed"
)

// ImageMode は画像の構図ルール（カバー用かシーン用か）を選びます。
type ImageMode string

const (
	ImageModeCover ImageMode = "cover"
	ImageModeScene ImageMode = "scene"
)

// GeneratedAsset は遅延生成された画像です。Storyboard には含まれません。
type GeneratedAsset struct {
	Target    Target    `json:"-"`
	DataURI   string    `json:"dataUri"`
	MIMEType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}
