// Package dbtest はメモリ実装のストアを束ねるテスト用の TxRunner。
package dbtest

import (
	"context"
	"sync"

	"circulation-backend/internal/platform/db"
)

// Snapshotter は状態を保存して復元関数を返す
type Snapshotter interface {
	Snapshot() func()
}

// Runner: fn がエラーを返したら全ストアを開始時点に戻す。Tx は直列に実行する
type Runner struct {
	mu    sync.Mutex
	parts []Snapshotter

	Commits   int
	Rollbacks int
}

func NewRunner(parts ...Snapshotter) *Runner { return &Runner{parts: parts} }

func (r *Runner) RunInTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	restores := make([]func(), 0, len(r.parts))
	for _, p := range r.parts {
		restores = append(restores, p.Snapshot())
	}
	if err := fn(ctx, nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		r.Rollbacks++
		return err
	}
	r.Commits++
	return nil
}
