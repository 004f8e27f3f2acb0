// Package storage はプロジェクト状態を保存するキーバリュー型の永続化層を提供します。
package storage

import (
	"context"
	"errors"
)

// ErrNotFound はキーが存在しない場合のエラーです。
var ErrNotFound = errors.New("キーが見つかりません")

// KV は文字列のキーと値を保存するストアです。値は常に丸ごと置き換えます。
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
