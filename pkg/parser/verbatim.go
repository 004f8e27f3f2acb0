package parser

import (
	"strings"
	"unicode"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// squash は比較用に空白文字をすべて取り除きます。
// 改行や全角スペースの揺れ、シーン境界で落ちた空白を無視するためです。
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// VerifyVerbatim は strict モードの結果が原文を一字一句保持しているかを検証します。
// 各シーンの originalText は直前のシーンより後ろに原文の連続部分として現れ、
// 全シーンの連結は原文全体を過不足なく再現しなければなりません。
func VerifyVerbatim(script string, sb *domain.Storyboard) error {
	if sb == nil {
		return &VerbatimError{Scene: -1, Reason: "ストーリーボードがありません"}
	}

	source := squash(script)
	cursor := 0
	var joined strings.Builder
	for i, scene := range sb.Body {
		text := squash(scene.OriginalText)
		if text == "" {
			continue
		}
		idx := strings.Index(source[cursor:], text)
		if idx < 0 {
			if strings.Contains(source, text) {
				return &VerbatimError{Scene: i, Reason: "原文の順序と一致しません"}
			}
			return &VerbatimError{Scene: i, Reason: "原文に存在しないテキストです"}
		}
		cursor += idx + len(text)
		joined.WriteString(text)
	}

	if joined.String() != source {
		return &VerbatimError{Scene: -1, Reason: "シーンの連結が原文全体を再現していません"}
	}
	return nil
}
