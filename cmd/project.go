package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/ui"
	"github.com/shouni/go-storyboard-kit/pkg/project"
)

var clearYes bool

// projectCmd は、ワークスペースの履歴（保存済みプロジェクト）を操作するのだ。
// API キーは不要なのだ。
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "保存済みプロジェクトを管理するのだ。",
}

var projectNewCmd = &cobra.Command{
	Use:   "new",
	Short: "現在の作業を履歴に保存して、空のワークスペースで始めるのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProjects(func(appCtx *builder.AppContext) error {
			saved, err := appCtx.Projects.NewProject(cmd.Context())
			if err != nil {
				return err
			}
			if saved != nil {
				fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSuccess.Render("✔ 保存したのだ: ")+saved.Title+ui.StyleSubtle.Render(" ("+saved.ID+")"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "新しいワークスペースを用意したのだ。")
			return nil
		})
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "保存済みプロジェクトを新しい順に表示するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProjects(func(appCtx *builder.AppContext) error {
			list, err := appCtx.Projects.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSubtle.Render("保存済みのプロジェクトはまだ無いのだ。"))
				return nil
			}
			for _, p := range list {
				when := time.UnixMilli(p.Timestamp).Format("2006-01-02 15:04")
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", ui.StyleSubtle.Render(p.ID), when, ui.StyleTitle.Render(p.Title))
			}
			return nil
		})
	},
}

var projectLoadCmd = &cobra.Command{
	Use:   "load <id>",
	Short: "保存済みプロジェクトをワークスペースに読み込むのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProjects(func(appCtx *builder.AppContext) error {
			ws, err := appCtx.Projects.LoadSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printWorkspace(cmd.OutOrStdout(), ws)
			return nil
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "保存済みプロジェクトを削除するのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProjects(func(appCtx *builder.AppContext) error {
			if err := appCtx.Projects.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSuccess.Render("✔ 削除したのだ: ")+args[0])
			return nil
		})
	},
}

var projectClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "保存済みプロジェクトをすべて削除するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var confirmer project.Confirmer = project.ConfirmFunc(ui.Confirm)
		if clearYes {
			confirmer = project.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
		}
		return withProjects(func(appCtx *builder.AppContext) error {
			if err := appCtx.Projects.ClearAll(cmd.Context(), confirmer); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSuccess.Render("✔ 履歴をすべて削除したのだ。"))
			return nil
		})
	},
}

func withProjects(fn func(appCtx *builder.AppContext) error) error {
	appCtx, err := setupApp()
	if err != nil {
		return err
	}
	defer appCtx.Close()
	return fn(appCtx)
}

func init() {
	projectClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "確認せずに削除するのだ。")
	projectCmd.AddCommand(projectNewCmd, projectListCmd, projectLoadCmd, projectDeleteCmd, projectClearCmd)
}
