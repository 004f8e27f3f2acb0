package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func TestConfirmModel_Update(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want bool
	}{
		{"y で確定", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, true},
		{"n でキャンセル", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false},
		{"Enter はキャンセル扱い", tea.KeyMsg{Type: tea.KeyEnter}, false},
		{"Esc はキャンセル", tea.KeyMsg{Type: tea.KeyEsc}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, cmd := confirmModel{message: "削除しますか？"}.Update(tt.msg)
			m := next.(confirmModel)
			if m.confirmed != tt.want || !m.done {
				t.Errorf("confirmed=%v done=%v, 期待値 confirmed=%v", m.confirmed, m.done, tt.want)
			}
			if cmd == nil {
				t.Error("終了コマンドが返されていません")
			}
		})
	}
}

func TestConfirmModel_IgnoresOtherKeys(t *testing.T) {
	m := confirmModel{message: "x"}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("z")})
	if next.(confirmModel).done || cmd != nil {
		t.Error("無関係なキーで終了しました")
	}
}

func TestAPIKeyModel_Enter(t *testing.T) {
	m := apiKeyModel{textInput: textinput.New(), rejected: true, storePath: "/tmp/config.yaml"}
	m.textInput.SetValue("abc")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := next.(apiKeyModel).value; got != "abc" {
		t.Errorf("期待値 abc, 実際の値 %q", got)
	}
}
