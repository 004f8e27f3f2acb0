package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-storyboard-kit/internal/auth"
	"github.com/shouni/go-storyboard-kit/internal/ui"
)

// keyCmd は、保存済みの Gemini API キーを管理するのだ。
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "保存済みの Gemini API キーを管理するのだ。",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "API キーを保存するのだ。省略すると入力を求めるのだ。",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := defaultKeyStore()
		if err != nil {
			return err
		}

		var key string
		if len(args) == 1 {
			key = args[0]
		} else if key, err = ui.PromptAPIKey(store.Path(), false); err != nil {
			return err
		}

		if err := store.Save(key); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSuccess.Render("✔ API キーを保存したのだ: ")+store.Path())
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "保存済みの API キーを消去するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := defaultKeyStore()
		if err != nil {
			return err
		}
		if err := store.Forget(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.StyleSuccess.Render("✔ API キーを消去したのだ。"))
		return nil
	},
}

func defaultKeyStore() (*auth.KeyStore, error) {
	path, err := auth.DefaultKeyPath()
	if err != nil {
		return nil, err
	}
	return auth.NewKeyStore(path), nil
}

func init() {
	keyCmd.AddCommand(keySetCmd, keyClearCmd)
}
