package prompts

import (
	"strconv"
	"strings"
)

const (
	// QualityPreamble は全画像に共通する品質・画風の指定です。
	QualityPreamble = "masterpiece, best quality, ultra-detailed, cinematic lighting, expressive character acting, vibrant colors, high resolution"

	// CinematicMotion は動きのある（ブレ・ダイナミック）表現の指定です。
	CinematicMotion = "MOTION TREATMENT: Cinematic and dynamic. Motion blur on moving elements, speed lines, shallow depth of field, dramatic low or dutch camera angle."

	// StaticMotion は静止した（シャープ・スタティック）表現の指定です。
	StaticMotion = "MOTION TREATMENT: Static and tack-sharp. No motion blur, deep focus, every element crisp and clearly readable."

	// CoverCompositionRules はカバー画像の構図ルールです。
	CoverCompositionRules = `STRICT VISUAL COMPOSITION RULES (COVER):
1. SINGLE FULL-FRAME IMAGE ONLY. NO SPLIT SCREENS. NO COLLAGES.
2. ONE CAMERA LENS ONLY.
3. TEXT PLACEMENT: DEAD CENTER. 20% Margin from edges.
4. TEXT STYLE: LARGE BOLD NEON WHITE SANS-SERIF title typography.
5. ACTION: Subject must be expressive.`

	// SceneCompositionRules はシーン画像の構図ルールです。
	SceneCompositionRules = `STRICT VISUAL COMPOSITION RULES (SCENE):
1. SINGLE FULL-FRAME IMAGE ONLY. NO SPLIT SCREENS. NO COLLAGES.
2. ONE CAMERA LENS ONLY. One unified scene.
3. ACTION: Subject must be expressive and dynamic. NO static poses.
4. DO NOT add any title text or captions unless explicitly asked in the prompt.
5. FOCUS: Cinematic lighting and character emotion.`

	// ReferenceConsistency は参照画像が添付されたときの一貫性指定です。
	ReferenceConsistency = "CHARACTER CONSISTENCY: The attached image is the MAIN CHARACTER reference. Keep face, hair, outfit and proportions identical to it."
)

// Temperature は吹き出し色の温度感です。
type Temperature int

const (
	Cool Temperature = iota
	Warm
)

var warmColorWords = []string{
	"red", "orange", "yellow", "gold", "amber", "pink", "magenta", "crimson", "scarlet", "fire", "hot", "warm",
}

// ColorTemperature は感情色を暖色・寒色に分類します。
// 白やグレーなどの無彩色は寒色側（丸い雲形）に倒します。
func ColorTemperature(color string) Temperature {
	c := strings.ToLower(strings.TrimSpace(color))
	if hex, ok := strings.CutPrefix(c, "#"); ok {
		return hexTemperature(hex)
	}
	for _, w := range warmColorWords {
		if strings.Contains(c, w) {
			return Warm
		}
	}
	return Cool
}

func hexTemperature(hex string) Temperature {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Cool
	}
	r, errR := strconv.ParseUint(hex[0:2], 16, 8)
	_, errG := strconv.ParseUint(hex[2:4], 16, 8)
	b, errB := strconv.ParseUint(hex[4:6], 16, 8)
	if errR != nil || errG != nil || errB != nil {
		return Cool
	}
	// 赤成分が青成分より十分強ければ暖色
	if r > b+32 {
		return Warm
	}
	return Cool
}

// BuildBubbleBlock は吹き出しのスタイル指定を決定的に生成します。
func BuildBubbleBlock(b Bubble) string {
	color := strings.TrimSpace(b.Color)
	if color == "" {
		color = "White"
	}

	shape := `"ROUNDED CLOUD" shape (cool / calm emotion).`
	if ColorTemperature(color) == Warm {
		shape = `"JAGGED/SPIKY" explosive shape (warm / intense emotion).`
	}

	var sb strings.Builder
	sb.WriteString("CRITICAL OVERLAY INSTRUCTION:\n")
	sb.WriteString(`Add a MANGA SPEECH BUBBLE containing exactly the text: "` + b.Text + "\".\n\n")
	sb.WriteString("BUBBLE STYLE RULES:\n")
	sb.WriteString("1. COLOR & MOOD: The bubble background color MUST BE " + color + " to match the emotion.\n")
	sb.WriteString("2. SHAPE: " + shape + "\n")
	sb.WriteString("3. BORDER: THICK BLACK INK OUTLINE around the bubble for high contrast.\n")
	sb.WriteString("4. TEXT: Bold Black or White font (whichever is most readable on " + color + ").\n")
	sb.WriteString("5. POSITION: Floating clearly BESIDE the character's head, centered beside the subject.\n")
	sb.WriteString("6. SIZE: MEDIUM SIZE (approx 15% of image). Must be readable but DO NOT dominate or cover the face.")
	return sb.String()
}
