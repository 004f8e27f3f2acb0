package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"
)

// optimizeCmd は、現在のワークスペースを viral モードで再構造化するのだ。
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "現在のストーリーボードを viral モードで再最適化するのだ。",
	Long: `保存されている台本を viral モードで構造化し直し、バイラル分析（スコアと改善案）を付けるのだ。
直前のスコアが十分に高い場合は実行しないのだよ。生成済みの画像はすべて破棄されるのだ。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(appCtx *builder.AppContext, s *pipeline.Session) error {
			ws, err := pipeline.ExecuteOptimize(cmd.Context(), s)
			if err != nil {
				return err
			}
			printWorkspace(cmd.OutOrStdout(), ws)
			return nil
		})
	},
}
