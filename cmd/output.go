package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/shouni/go-storyboard-kit/internal/ui"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// printWorkspace はワークスペースのストーリーボードを読みやすく表示するのだ。
func printWorkspace(w io.Writer, ws domain.Workspace) {
	fmt.Fprintln(w, ui.StyleTitle.Render(ws.ResolveTitle())+ui.StyleSubtle.Render(fmt.Sprintf("  [%s / %s]", ws.Phase(), ws.AspectRatio)))

	sb := ws.Result
	if sb == nil {
		fmt.Fprintln(w, ui.StyleSubtle.Render("ストーリーボードはまだ無いのだ。"))
		return
	}

	for i, scene := range sb.Body {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n", ui.StyleTitle.Render(fmt.Sprintf("#%d", i+1)), ui.StyleSubtle.Render(scene.Timestamp))
		b.WriteString(ui.StyleText.Render(scene.OriginalText))
		b.WriteString("\n" + ui.StyleSubtle.Render("🎬 "+scene.Visual))
		if scene.BubbleText != "" {
			b.WriteString("\n" + ui.StyleWarning.Render("💬 "+scene.BubbleText+" ("+scene.EmotionColor+")"))
		}
		if scene.Transition != "" {
			b.WriteString("\n" + ui.StyleSubtle.Render("↪ "+scene.Transition))
		}
		fmt.Fprintln(w, ui.StyleSceneBox.Render(b.String()))
	}

	if a := sb.Analysis; a != nil {
		fmt.Fprintln(w, ui.StyleTitle.Render(fmt.Sprintf("Viral Score: %d/100", a.Score)))
		fmt.Fprintf(w, "Hook: %s / Emotion: %s / Retention: %s\n", a.HookStrength, a.EmotionalAppeal, a.RetentionPrediction)
		for _, tip := range a.ImprovementTips {
			fmt.Fprintln(w, ui.StyleSubtle.Render("• "+tip))
		}
	}
}
