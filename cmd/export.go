package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/ui"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

var exportDir string

// exportCmd は、現在のストーリーボードを Markdown と JSON に書き出すのだ。
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "ストーリーボードを Markdown と JSON に書き出すのだ。",
	Long: `ワークスペースのストーリーボードを、ナレーション原稿として読める Markdown と JSON に書き出すのだ。
render で保存済みの画像があれば Markdown から参照するのだよ。API キーは不要なのだ。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProjects(func(appCtx *builder.AppContext) error {
			ws, err := appCtx.Projects.Workspace(cmd.Context())
			if err != nil {
				return err
			}
			res, err := publisher.NewStoryboardPublisher(afero.NewOsFs()).Publish(cmd.Context(), ws, publisher.Options{
				OutputDir: exportDir,
				ImageDir:  opts.OutputImageDir,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSuccess.Render("✔ ")+res.MarkdownPath)
			fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSuccess.Render("✔ ")+res.JSONPath)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "output-dir", "o", "output", "書き出し先のディレクトリなのだ。")
	exportCmd.Flags().StringVarP(&opts.OutputImageDir, "output-image-dir", "i", config.DefaultLocalImageDir, "render で画像を保存したディレクトリなのだ。")
}
