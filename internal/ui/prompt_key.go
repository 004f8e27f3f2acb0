package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled はユーザーが入力をキャンセルした場合のエラーです。
var ErrCancelled = errors.New("入力がキャンセルされました")

// PromptAPIKey は Gemini API キーの入力を求めます。
// rejected が true の場合は、保存済みのキーが拒否されたことを表示します。
func PromptAPIKey(storePath string, rejected bool) (string, error) {
	ti := textinput.New()
	ti.Placeholder = "GEMINI_API_KEY"
	ti.Focus()
	ti.EchoMode = textinput.EchoPassword
	ti.CharLimit = 256
	ti.Width = 50

	m := apiKeyModel{
		textInput: ti,
		storePath: storePath,
		rejected:  rejected,
	}

	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", fmt.Errorf("キー入力プロンプトの実行に失敗しました: %w", err)
	}

	result := finalModel.(apiKeyModel)
	if result.quit || result.value == "" {
		return "", ErrCancelled
	}
	return result.value, nil
}

type apiKeyModel struct {
	textInput textinput.Model
	storePath string
	rejected  bool
	value     string
	quit      bool
}

func (m apiKeyModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m apiKeyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.value = m.textInput.Value()
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quit = true
			return m, tea.Quit
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m apiKeyModel) View() string {
	s := "\n" + StyleTitle.Render("🔑 Gemini API キーが必要なのだ") + "\n"
	if m.rejected {
		s += StyleError.Render("保存されていたキーは拒否されたのだ。新しいキーを入力してほしいのだ。") + "\n"
	}
	s += StyleSubtle.Render("キーは "+m.storePath+" に保存されるのだ") + "\n\n"
	s += m.textInput.View() + "\n\n"
	s += StyleSubtle.Render("Enter で確定 • Esc でキャンセル") + "\n"
	return s
}
