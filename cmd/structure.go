package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"
	"github.com/shouni/go-storyboard-kit/internal/runner"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// structureCmd は、台本をストーリーボードに構造化してワークスペースに保存するのだ。
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "台本をストーリーボードに構造化するのだ。",
	Long: `台本ファイル（'-' で標準入力）を読み込み、シーンごとに分割したストーリーボードを生成するのだ。
既定の strict モードでは原文を一字一句そのまま保持し、--viral では FYP 向けに書き換えるのだよ。`,
	RunE: structureCommand,
}

func init() {
	structureCmd.Flags().StringVarP(&opts.ScriptFile, "script-file", "f", "", "台本ファイルのパス（'-'で標準入力、'@sample' でサンプル台本なのだ）。")
	structureCmd.Flags().StringVarP(&opts.CoverTitle, "title", "t", "", "カバーに大きく表示するタイトルなのだ。")
	structureCmd.Flags().StringVarP(&opts.Character, "character", "c", "", "キャラクター参照画像のパスなのだ。")
	structureCmd.Flags().StringVarP(&opts.AspectRatio, "aspect", "a", domain.DefaultAspectRatio, "アスペクト比（9:16, 16:9, 1:1, 4:3, 3:4）なのだ。")
	structureCmd.Flags().BoolVar(&opts.Viral, "viral", false, "ナレーションの書き換えを許可する viral モードで構造化するのだ。")
	structureCmd.Flags().BoolVar(&opts.NoBubble, "no-bubble", false, "吹き出しテキストを生成しないのだ。")
	structureCmd.Flags().BoolVar(&opts.Static, "static", false, "シネマティックなブレを使わず静的な構図にするのだ。")
}

func structureCommand(cmd *cobra.Command, args []string) error {
	if opts.ScriptFile == "" {
		if !isStdin() {
			return fmt.Errorf("台本（--script-file または標準入力）を指定してほしいのだ")
		}
		opts.ScriptFile = runner.StdinPath
	}

	return withSession(func(appCtx *builder.AppContext, s *pipeline.Session) error {
		ws, err := pipeline.ExecuteStructure(cmd.Context(), s, afero.NewOsFs(), os.Stdin)
		if err != nil {
			return err
		}
		printWorkspace(cmd.OutOrStdout(), ws)
		return nil
	})
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
