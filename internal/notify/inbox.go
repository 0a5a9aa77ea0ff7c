package notify

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/clock"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/page"
)

type Notification struct {
	NotificationID string     `json:"notification_id"`
	UserID         string     `json:"user_id"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	IsRead         bool       `json:"is_read"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

type ListResponse struct {
	Items      []Notification `json:"items"`
	Total      int64          `json:"total"`
	Unread     int64          `json:"unread"`
	NextOffset *int           `json:"next_offset,omitempty"`
}

// Inbox は notifications テーブルに保存する Notifier
type Inbox struct {
	db    db.DBTX
	clock clock.Clock
	id    clock.IDGen
}

func NewInbox(q db.DBTX) *Inbox {
	return &Inbox{db: q, clock: clock.Real{}, id: clock.ULIDGen{}}
}

// Notify: 同じ内容の未読があれば積まない（定期処理の連投よけ）
func (b *Inbox) Notify(ctx context.Context, userID, title, message string) error {
	var dup int
	err := b.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM notifications
	WHERE user_id = ? AND title = ? AND message = ? AND is_read = 0`, userID, title, message).Scan(&dup)
	if err != nil {
		return err
	}
	if dup > 0 {
		return nil
	}

	now := b.clock.Now()
	_, err = b.db.ExecContext(ctx, `
	INSERT INTO notifications (notification_id, user_id, title, message, is_read, created_at)
	VALUES (?, ?, ?, ?, 0, ?)`, b.id.NewULID(now), userID, title, message, now)
	return err
}

func (b *Inbox) List(ctx context.Context, userID string, unreadOnly bool, p page.Page) (ListResponse, error) {
	p = p.Normalize()
	ds := db.From("notifications").Where(goqu.C("user_id").Eq(userID))

	unread, err := db.Count(ctx, b.db, ds.Where(goqu.C("is_read").Eq(0)))
	if err != nil {
		return ListResponse{}, err
	}
	if unreadOnly {
		ds = ds.Where(goqu.C("is_read").Eq(0))
	}
	total, err := db.Count(ctx, b.db, ds)
	if err != nil {
		return ListResponse{}, err
	}

	query, args, err := ds.
		Select("notification_id", "user_id", "title", "message", "is_read", "created_at", "read_at").
		Order(goqu.C("created_at").Desc(), goqu.C("notification_id").Desc()).
		Limit(uint(p.Limit)).
		Offset(uint(p.Offset)).
		ToSQL()
	if err != nil {
		return ListResponse{}, errors.Join(db.ErrBuildingQuery, err)
	}
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ListResponse{}, err
	}
	defer rows.Close()

	items := make([]Notification, 0, p.Limit)
	for rows.Next() {
		var n Notification
		var readAt sql.NullTime
		if err := rows.Scan(&n.NotificationID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt, &readAt); err != nil {
			return ListResponse{}, err
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return ListResponse{}, err
	}
	return ListResponse{Items: items, Total: total, Unread: unread, NextOffset: p.Next(total)}, nil
}

// MarkRead: 本人の通知のみ
func (b *Inbox) MarkRead(ctx context.Context, notificationID, userID string) error {
	res, err := b.db.ExecContext(ctx, `
	UPDATE notifications SET is_read = 1, read_at = COALESCE(read_at, ?)
	WHERE notification_id = ? AND user_id = ?`, b.clock.Now(), notificationID, userID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		var one int
		err := b.db.QueryRowContext(ctx,
			`SELECT 1 FROM notifications WHERE notification_id = ? AND user_id = ?`, notificationID, userID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.ErrNotFound("notification not found")
		}
		return err
	}
	return nil
}
