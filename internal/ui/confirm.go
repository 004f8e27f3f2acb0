package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Confirm は y/n の確認プロンプトを表示し、y が押された場合のみ true を返します。
func Confirm(ctx context.Context, message string) (bool, error) {
	finalModel, err := tea.NewProgram(confirmModel{message: message}, tea.WithContext(ctx)).Run()
	if err != nil {
		return false, fmt.Errorf("確認プロンプトの実行に失敗しました: %w", err)
	}
	return finalModel.(confirmModel).confirmed, nil
}

type confirmModel struct {
	message   string
	confirmed bool
	done      bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.confirmed = true
		m.done = true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "ctrl+c", "q":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	return "\n" + StyleWarning.Render("⚠ "+m.message) + "\n" +
		StyleSubtle.Render("y で実行 • n / Enter でキャンセル") + "\n"
}
