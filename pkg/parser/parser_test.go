package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func bubbleRequest() domain.ScriptRequest {
	return domain.ScriptRequest{
		ScriptContent:     "x",
		AspectRatio:       domain.AspectLandscape,
		OptimizationMode:  domain.ModeStrict,
		IncludeBubbleText: true,
	}
}

func TestNormalize_Extraction(t *testing.T) {
	t.Run("コードフェンスと前置きを捨てて JSON を取り出すのだ", func(t *testing.T) {
		raw := "Sure! ```json\n{\"title\":\"X\",\"body\":[],\"imagePrompt\":\"p\"}\n```"
		sb, err := Normalize(raw, bubbleRequest())
		if err != nil {
			t.Fatalf("Normalize でエラー: %v", err)
		}
		if sb.Title != "X" || sb.ImagePrompt != "p" || len(sb.Body) != 0 {
			t.Errorf("抽出結果が違います: %+v", sb)
		}
	})

	t.Run("アスペクト比はリクエストの値で上書きする", func(t *testing.T) {
		raw := `{"title":"X","body":[],"imagePrompt":"p","aspectRatio":"1:1"}`
		sb, err := Normalize(raw, bubbleRequest())
		if err != nil {
			t.Fatalf("Normalize でエラー: %v", err)
		}
		if sb.AspectRatio != domain.AspectLandscape {
			t.Errorf("期待値 %s, 実際の値 %s", domain.AspectLandscape, sb.AspectRatio)
		}
	})

	tests := []struct {
		name   string
		raw    string
		record string
	}{
		{"オブジェクトが無い", "I cannot help with that.", "storyboard"},
		{"壊れた JSON", `{"title": "X", "body": [}`, "storyboard"},
		{"title が無い", `{"body":[],"imagePrompt":"p"}`, "storyboard"},
		{"body が無い", `{"title":"X","imagePrompt":"p"}`, "storyboard"},
		{"シーンの visual が無い", `{"title":"X","imagePrompt":"p","body":[{"timestamp":"0:00","originalText":"a","imagePrompt":"q"}]}`, "body[0]"},
		{"2番目のシーンの originalText が null", `{"title":"X","imagePrompt":"p","body":[
			{"timestamp":"0:00","originalText":"a","visual":"v","imagePrompt":"q"},
			{"timestamp":"0:03","originalText":null,"visual":"v","imagePrompt":"q"}]}`, "body[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, bubbleRequest())
			var me *MalformedResponseError
			if !errors.As(err, &me) {
				t.Fatalf("MalformedResponseError を期待しましたが %v でした", err)
			}
			if me.Record != tt.record {
				t.Errorf("レコード名が違います: 期待値 %s, 実際の値 %s", tt.record, me.Record)
			}
		})
	}
}

func TestNormalize_Coercion(t *testing.T) {
	const tmpl = `{"title":"X","imagePrompt":"p","body":[{"timestamp":"0:00-0:03","originalText":"a","visual":"v","imagePrompt":"q","bubbleText":%s,"emotionColor":%s}]}`

	tests := []struct {
		name       string
		bubble     string
		color      string
		wantBubble string
		wantColor  string
	}{
		{"オブジェクトの text を取り出す", `{"text":"BOOM"}`, `"Bright Red"`, "BOOM", "Bright Red"},
		{"既に文字列ならそのまま", `"BOOM"`, `"Bright Red"`, "BOOM", "Bright Red"},
		{"色オブジェクトの hex を取り出す", `"BOOM"`, `{"hex":"#FF0000","name":"red"}`, "BOOM", "#FF0000"},
		{"色オブジェクトの color を取り出す", `"BOOM"`, `{"color":"Electric Blue"}`, "BOOM", "Electric Blue"},
		{"既知のキーが無いオブジェクトは JSON 文字列化", `{"word":"hi"}`, `"White"`, `{"word":"hi"}`, "White"},
		{"null は空文字と中立色", `null`, `null`, "", NeutralEmotionColor},
		{"数値と真偽値は文字列化", `42`, `true`, "42", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb, err := Normalize(fmt.Sprintf(tmpl, tt.bubble, tt.color), bubbleRequest())
			if err != nil {
				t.Fatalf("Normalize でエラー: %v", err)
			}
			got := sb.Body[0]
			if got.BubbleText != tt.wantBubble || got.EmotionColor != tt.wantColor {
				t.Errorf("期待値 (%q, %q), 実際の値 (%q, %q)", tt.wantBubble, tt.wantColor, got.BubbleText, got.EmotionColor)
			}
		})
	}

	t.Run("吹き出し無効なら空文字と中立色に強制する", func(t *testing.T) {
		req := bubbleRequest()
		req.IncludeBubbleText = false
		sb, err := Normalize(fmt.Sprintf(tmpl, `"BOOM"`, `"Bright Red"`), req)
		if err != nil {
			t.Fatalf("Normalize でエラー: %v", err)
		}
		if sb.Body[0].BubbleText != "" || sb.Body[0].EmotionColor != NeutralEmotionColor {
			t.Errorf("吹き出しが無効化されていません: %+v", sb.Body[0])
		}
	})
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := "```json\n" + `{"title":" 夜 ","imagePrompt":"p","body":[{"timestamp":"0:00","originalText":"a","visual":"v","imagePrompt":"q","bubbleText":{"text":"BOOM"},"emotionColor":{"hex":"#FF0000"}}],
		"analysis":{"score":"87","hookStrength":"強い","emotionalAppeal":"高","retentionPrediction":"中","improvementTips":["最初の1秒","", "オチ"]}}` + "\n```"
	req := bubbleRequest()

	first, err := Normalize(raw, req)
	if err != nil {
		t.Fatalf("1回目の Normalize でエラー: %v", err)
	}
	clean, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal でエラー: %v", err)
	}
	second, err := Normalize(string(clean), req)
	if err != nil {
		t.Fatalf("2回目の Normalize でエラー: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("正規化が冪等ではありません:\n1回目: %+v\n2回目: %+v", first, second)
	}
	if first.Title != "夜" || first.Analysis == nil || first.Analysis.Score != 87 || len(first.Analysis.ImprovementTips) != 2 {
		t.Errorf("分析結果の正規化が違います: %+v %+v", first, first.Analysis)
	}
}

func TestNormalize_ScoreClamp(t *testing.T) {
	for raw, want := range map[string]int{"150": 100, "-3": 0, "99.6": 100, `"abc"`: 0, `"NaN"`: 0, `"Inf"`: 100} {
		payload := `{"title":"X","body":[],"imagePrompt":"p","analysis":{"score":` + raw + `}}`
		sb, err := Normalize(payload, bubbleRequest())
		if err != nil {
			t.Fatalf("Normalize(%s) でエラー: %v", raw, err)
		}
		if sb.Analysis.Score != want {
			t.Errorf("score %s: 期待値 %d, 実際の値 %d", raw, want, sb.Analysis.Score)
		}
	}
}

func TestVerifyVerbatim(t *testing.T) {
	const script = "その夜、図書館の灯りが消えた。\n誰かが笑っていた。 そして扉が閉まった。"

	scenes := func(texts ...string) *domain.Storyboard {
		sb := &domain.Storyboard{}
		for _, text := range texts {
			sb.Body = append(sb.Body, domain.Scene{OriginalText: text})
		}
		return sb
	}

	tests := []struct {
		name      string
		sb        *domain.Storyboard
		wantScene int
		wantOK    bool
	}{
		{"原文どおりの分割", scenes("その夜、図書館の灯りが消えた。", "誰かが笑っていた。", "そして扉が閉まった。"), 0, true},
		{"空白の揺れは無視する", scenes("その夜、図書館の 灯りが消えた。\n", "誰かが笑っていた。そして扉が閉まった。"), 0, true},
		{"書き換えは違反", scenes("その夜、図書館の灯りが消えた。", "誰かが泣いていた。", "そして扉が閉まった。"), 1, false},
		{"順序の入れ替えは違反", scenes("誰かが笑っていた。", "その夜、図書館の灯りが消えた。", "そして扉が閉まった。"), 1, false},
		{"欠落は違反", scenes("その夜、図書館の灯りが消えた。", "そして扉が閉まった。"), -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyVerbatim(script, tt.sb)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("エラーを期待していませんでした: %v", err)
				}
				return
			}
			var ve *VerbatimError
			if !errors.As(err, &ve) {
				t.Fatalf("VerbatimError を期待しましたが %v でした", err)
			}
			if ve.Scene != tt.wantScene {
				t.Errorf("シーン番号: 期待値 %d, 実際の値 %d", tt.wantScene, ve.Scene)
			}
		})
	}
}
