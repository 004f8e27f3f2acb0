package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"
	"github.com/shouni/go-storyboard-kit/internal/ui"
)

var (
	renderCover  bool
	renderAll    bool
	renderScenes []int
)

// renderCmd は、現在のストーリーボードから画像を生成して保存するのだ。
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "カバーやシーンの画像を生成して保存するのだ。",
	Long: `ワークスペースのストーリーボードを基に、カバー画像やシーン画像を生成して PNG として保存するのだ。
--all では同時実行数とレート制限を守りながら並列に生成し、失敗したシーンだけを報告するのだよ。`,
	RunE: renderCommand,
}

func init() {
	renderCmd.Flags().BoolVar(&renderCover, "cover", false, "カバー画像を生成するのだ。")
	renderCmd.Flags().IntSliceVarP(&renderScenes, "scene", "s", nil, "生成するシーン番号（1始まり、複数指定可）なのだ。")
	renderCmd.Flags().BoolVar(&renderAll, "all", false, "すべてのシーン画像を生成するのだ。")
	renderCmd.Flags().StringVarP(&opts.OutputImageDir, "output-image-dir", "i", config.DefaultLocalImageDir, "画像の保存先ディレクトリなのだ。")
}

func renderCommand(cmd *cobra.Command, args []string) error {
	targets := pipeline.RenderTargets{Cover: renderCover, All: renderAll}
	for _, n := range renderScenes {
		if n < 1 {
			return fmt.Errorf("シーン番号は 1 以上で指定してほしいのだ: %d", n)
		}
		targets.Scenes = append(targets.Scenes, n-1)
	}

	return withSession(func(appCtx *builder.AppContext, s *pipeline.Session) error {
		paths, err := pipeline.ExecuteRender(cmd.Context(), s, afero.NewOsFs(), opts.OutputImageDir, targets)
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSuccess.Render("✔ ")+p)
		}
		if err != nil {
			return err
		}
		slog.Info("画像の保存が完了したのだ！", "count", len(paths), "dir", opts.OutputImageDir)
		return nil
	})
}
