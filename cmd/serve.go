package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"
)

// serveCmd は、ブラウザ UI 向けのローカル JSON API を起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "ローカルの HTTP API を起動するのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(appCtx *builder.AppContext, s *pipeline.Session) error {
			return pipeline.ExecuteServe(cmd.Context(), s, opts.ListenAddr)
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&opts.ListenAddr, "addr", config.DefaultListenAddr, "待ち受けアドレスなのだ。")
}
