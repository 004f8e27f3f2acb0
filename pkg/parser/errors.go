package parser

import (
	"fmt"
)

// MalformedResponseError はモデル応答が必須構造を満たさない場合のエラーです。
// Record は問題のあったレコード（"storyboard" や "body[2]" など）を指します。
type MalformedResponseError struct {
	Record string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("モデル応答の形式が不正です (%s): %s", e.Record, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// VerbatimError は strict モードで原文が保持されていない場合のエラーです。
// Scene は不一致が見つかったシーン番号で、全体の連結結果の不一致なら -1 です。
type VerbatimError struct {
	Scene  int
	Reason string
}

func (e *VerbatimError) Error() string {
	if e.Scene < 0 {
		return "原文の一字一句保持に違反しています: " + e.Reason
	}
	return fmt.Sprintf("原文の一字一句保持に違反しています (body[%d]): %s", e.Scene, e.Reason)
}

func malformed(record, reason string) *MalformedResponseError {
	return &MalformedResponseError{Record: record, Reason: reason}
}
