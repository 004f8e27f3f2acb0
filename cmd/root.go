package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"
	"github.com/shouni/go-storyboard-kit/internal/ui"
)

// opts は各サブコマンドのフラグが書き込む共通の実行時設定なのだ。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:   "storyboard",
	Short: "台本を縦型ショート動画向けのストーリーボードに変換するのだ。",
	Long: `ナレーション台本をシーンごとのストーリーボード（タイムスタンプ、原文、映像指示、画像プロンプト）に
構造化し、カバーとシーンの画像を生成するのだ。作業内容はローカルのストアに自動保存されるのだよ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "ワークスペースと履歴を保存する SQLite のパスなのだ（既定: ~/.storyboard-kit/storyboard.db）。")
	rootCmd.PersistentFlags().StringVar(&opts.APIKey, "api-key", "", "Gemini API キーなのだ。環境変数や保存済みのキーより優先されるのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", "", "構造化に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")
}

// preRunAppE は、コマンド実行前にロガーを設定するのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// setupApp は環境設定とフラグを合成し、AppContext を構築するのだ。
func setupApp() (*builder.AppContext, error) {
	cfg := config.LoadConfig()
	cfg.Options = opts
	appCtx, err := builder.BuildAppContext(cfg)
	if err != nil {
		return nil, fmt.Errorf("アプリケーションの初期化に失敗しました: %w", err)
	}
	return appCtx, nil
}

// withSession は AppContext と対話的なキー入力付きの Session を用意して fn を実行するのだ。
func withSession(fn func(appCtx *builder.AppContext, s *pipeline.Session) error) error {
	appCtx, err := setupApp()
	if err != nil {
		return err
	}
	defer appCtx.Close()
	return fn(appCtx, pipeline.NewSession(appCtx, ui.PromptAPIKey, nil))
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(structureCmd, optimizeCmd, renderCmd, exportCmd, projectCmd, keyCmd, serveCmd)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// Ctrl+C で context がキャンセルされ、実行中の生成も中断されるのだ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
