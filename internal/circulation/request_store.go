package circulation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/page"
)

type RequestStore interface {
	Insert(ctx context.Context, q db.DBTX, r *BookRequest) error
	Get(ctx context.Context, q db.DBTX, requestID string) (*BookRequest, error)
	Lock(ctx context.Context, q db.DBTX, requestID string) (*BookRequest, error)
	CountPending(ctx context.Context, q db.DBTX, userID string) (int, error)
	HasActive(ctx context.Context, q db.DBTX, userID, bookID string) (bool, error)
	FindApproved(ctx context.Context, q db.DBTX, userID, bookID string) (*BookRequest, error)
	Transition(ctx context.Context, q db.DBTX, requestID string, from, to RequestStatus, by string, adminNotes *string, at time.Time) error
	Fulfil(ctx context.Context, q db.DBTX, requestID, issueID string, at time.Time) error
	List(ctx context.Context, q db.DBTX, f RequestFilter, p page.Page) ([]BookRequest, int64, error)
}

type SQLRequestStore struct{}

func NewRequestStore() *SQLRequestStore { return &SQLRequestStore{} }

func errRequestNotFound() error { return apierr.ErrNotFound("request not found") }

const requestColumns = `request_id, book_id, user_id, status, requested_duration, priority, notes, admin_notes,
	processed_by, issue_id, created_at, updated_at`

var requestColumnList = []any{"request_id", "book_id", "user_id", "status", "requested_duration", "priority",
	"notes", "admin_notes", "processed_by", "issue_id", "created_at", "updated_at"}

func scanRequest(row interface{ Scan(...any) error }) (BookRequest, error) {
	var r BookRequest
	var st, pr string
	var notes, adminNotes, by, issueID sql.NullString
	if err := row.Scan(&r.RequestID, &r.BookID, &r.UserID, &st, &r.RequestedDuration, &pr,
		&notes, &adminNotes, &by, &issueID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return BookRequest{}, err
	}
	r.Status, r.Priority = RequestStatus(st), Priority(pr)
	r.Notes, r.AdminNotes, r.ProcessedBy, r.IssueID = nullToPtr(notes), nullToPtr(adminNotes), nullToPtr(by), nullToPtr(issueID)
	return r, nil
}

func (s *SQLRequestStore) Insert(ctx context.Context, q db.DBTX, r *BookRequest) error {
	const stmt = `
	INSERT INTO book_requests (request_id, book_id, user_id, status, requested_duration, priority, notes, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, stmt, r.RequestID, r.BookID, r.UserID, string(r.Status), r.RequestedDuration,
		string(r.Priority), toNullString(r.Notes), r.CreatedAt, r.UpdatedAt)
	return err
}

func (s *SQLRequestStore) Get(ctx context.Context, q db.DBTX, requestID string) (*BookRequest, error) {
	return s.get(ctx, q, `SELECT `+requestColumns+` FROM book_requests WHERE request_id = ?`, requestID)
}

func (s *SQLRequestStore) Lock(ctx context.Context, q db.DBTX, requestID string) (*BookRequest, error) {
	return s.get(ctx, q, `SELECT `+requestColumns+` FROM book_requests WHERE request_id = ? FOR UPDATE`, requestID)
}

func (s *SQLRequestStore) get(ctx context.Context, q db.DBTX, query, requestID string) (*BookRequest, error) {
	r, err := scanRequest(q.QueryRowContext(ctx, query, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errRequestNotFound()
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountPending: 上限判定。同じ利用者の申請を直列化するためロック付き
func (s *SQLRequestStore) CountPending(ctx context.Context, q db.DBTX, userID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM book_requests WHERE user_id = ? AND status = 'pending' FOR UPDATE`, userID).Scan(&n)
	return n, err
}

func (s *SQLRequestStore) HasActive(ctx context.Context, q db.DBTX, userID, bookID string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `
	SELECT 1 FROM book_requests
	WHERE user_id = ? AND book_id = ? AND status IN ('pending', 'approved')
	LIMIT 1`, userID, bookID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindApproved: 無ければ nil
func (s *SQLRequestStore) FindApproved(ctx context.Context, q db.DBTX, userID, bookID string) (*BookRequest, error) {
	r, err := scanRequest(q.QueryRowContext(ctx, `
	SELECT `+requestColumns+` FROM book_requests
	WHERE user_id = ? AND book_id = ? AND status = 'approved'
	ORDER BY created_at
	LIMIT 1 FOR UPDATE`, userID, bookID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLRequestStore) Transition(ctx context.Context, q db.DBTX, requestID string, from, to RequestStatus, by string, adminNotes *string, at time.Time) error {
	const stmt = `
	UPDATE book_requests
	SET status = ?, processed_by = ?, admin_notes = COALESCE(?, admin_notes), updated_at = ?
	WHERE request_id = ? AND status = ?`
	res, err := q.ExecContext(ctx, stmt, string(to), by, toNullString(adminNotes), at, requestID, string(from))
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.New(apierr.CodeInvalidTransition, "request status changed concurrently")
	}
	return nil
}

func (s *SQLRequestStore) Fulfil(ctx context.Context, q db.DBTX, requestID, issueID string, at time.Time) error {
	const stmt = `
	UPDATE book_requests SET status = 'fulfilled', issue_id = ?, updated_at = ?
	WHERE request_id = ? AND status = 'approved'`
	res, err := q.ExecContext(ctx, stmt, issueID, at, requestID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.New(apierr.CodeInvalidTransition, "request is not approved")
	}
	return nil
}

func (s *SQLRequestStore) List(ctx context.Context, q db.DBTX, f RequestFilter, p page.Page) ([]BookRequest, int64, error) {
	ds := db.From("book_requests")
	if f.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(*f.UserID))
	}
	if f.BookID != nil {
		ds = ds.Where(goqu.C("book_id").Eq(*f.BookID))
	}
	if f.Status != nil {
		ds = ds.Where(goqu.C("status").Eq(string(*f.Status)))
	}

	total, err := db.Count(ctx, q, ds)
	if err != nil {
		return nil, 0, err
	}

	// 優先度の高いものから
	priority := goqu.L("CASE priority WHEN 'high' THEN 0 ELSE 1 END").Asc()
	created := goqu.C("created_at").Desc()
	if p.Order == "asc" {
		created = goqu.C("created_at").Asc()
	}
	query, args, err := ds.Select(requestColumnList...).
		Order(priority, created, goqu.C("request_id").Asc()).
		Limit(uint(p.Limit)).
		Offset(uint(p.Offset)).
		ToSQL()
	if err != nil {
		return nil, 0, errors.Join(db.ErrBuildingQuery, err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]BookRequest, 0, p.Limit)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func toNullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullToPtr(ns sql.NullString) *string {
	if ns.Valid {
		v := ns.String
		return &v
	}
	return nil
}
