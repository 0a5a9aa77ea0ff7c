// Package notify はユーザー宛ての通知（受信箱への保存と WebSocket 配信）。
// 通知は投げっぱなしで、失敗しても呼び出し側の処理は止めない。
package notify

import (
	"context"
	"errors"

	"circulation-backend/internal/platform/logger"
)

type Notifier interface {
	Notify(ctx context.Context, userID, title, message string) error
}

// Func: 関数を Notifier として使う
type Func func(ctx context.Context, userID, title, message string) error

func (f Func) Notify(ctx context.Context, userID, title, message string) error {
	return f(ctx, userID, title, message)
}

// Multi は全部に配る。途中で失敗しても残りには送る
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, userID, title, message string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, userID, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Send: 失敗はログだけ残して握りつぶす
func Send(ctx context.Context, n Notifier, userID, title, message string) {
	if n == nil || userID == "" {
		return
	}
	if err := n.Notify(context.WithoutCancel(ctx), userID, title, message); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).WithField("title", title).Warn("notification failed")
	}
}
