// Package retry は生成バックエンド呼び出しを有限回の指数バックオフで再試行します。
package retry

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries は初回に加えて行う再試行の回数です。
	DefaultMaxRetries = 3
	// DefaultInitialDelay は最初の再試行までの待機時間です。
	DefaultInitialDelay = 2 * time.Second
	// DefaultMultiplier は待機時間の増加率です。
	DefaultMultiplier = 1.5
)

// Executor は有限回の再試行を行う実行器です。
// nil の Executor はデフォルト設定（3回再試行、初期待機2秒）で全エラーを再試行します。
type Executor struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64

	// Permanent が true を返すエラーは再試行せずにそのまま返します。
	Permanent func(error) bool

	// sleep はテストで待機を差し替えるためのフックです。
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor は指定された回数と初期待機時間で Executor を生成します。
func NewExecutor(maxRetries int, initialDelay time.Duration) *Executor {
	return &Executor{
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// WithPermanent は再試行しないエラーの判定関数を設定したコピーを返します。
func (e Executor) WithPermanent(fn func(error) bool) *Executor {
	e.Permanent = fn
	return &e
}

func (e *Executor) maxRetries() int {
	if e == nil {
		return DefaultMaxRetries
	}
	return max(e.MaxRetries, 0)
}

// newBackOff は揺らぎなし・経過時間上限なしのバックオフ状態を作ります。
func (e *Executor) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = DefaultInitialDelay
	b.Multiplier = DefaultMultiplier
	if e != nil && e.InitialDelay > 0 {
		b.InitialInterval = e.InitialDelay
	}
	if e != nil && e.Multiplier >= 1 {
		b.Multiplier = e.Multiplier
	}
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do は op を最大 1+MaxRetries 回実行します。
// すべて失敗した場合は最後のエラーを加工せずに返します。
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	b := e.newBackOff()
	retries := e.maxRetries()

	var err error
	for attempt := 0; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if e != nil && e.Permanent != nil && e.Permanent(err) {
			return err
		}
		if attempt >= retries {
			return err
		}

		delay := b.NextBackOff()
		slog.WarnContext(ctx, "呼び出しに失敗したため再試行します",
			"attempt", attempt+1,
			"remaining", retries-attempt,
			"delay", delay,
			"error", err,
		)
		if serr := e.wait(ctx, delay); serr != nil {
			return serr
		}
	}
}

func (e *Executor) wait(ctx context.Context, d time.Duration) error {
	if e != nil && e.sleep != nil {
		return e.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do は値を返す操作を Executor で再試行するヘルパーです。
func Do[T any](ctx context.Context, ex *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := ex.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
