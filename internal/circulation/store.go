package circulation

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

// IssueStore: 貸出台帳。状態を変えるのは Service だけ
type IssueStore interface {
	Insert(ctx context.Context, q db.DBTX, is *Issue) error
	Get(ctx context.Context, q db.DBTX, issueID string) (*Issue, error)
	Lock(ctx context.Context, q db.DBTX, issueID string) (*Issue, error)
	CountActiveByUser(ctx context.Context, q db.DBTX, userID string) (int, error)
	HasActive(ctx context.Context, q db.DBTX, userID, bookID string) (bool, error)
	MarkReturned(ctx context.Context, q db.DBTX, issueID string, returnDate, at time.Time) error
	MarkOverdue(ctx context.Context, q db.DBTX, issueID string, at time.Time) (bool, error)
	ListOverdueCandidates(ctx context.Context, q db.DBTX, today time.Time) ([]Issue, error)
	List(ctx context.Context, q db.DBTX, f IssueFilter, p page.Page) ([]Issue, int64, error)
}

type SQLIssueStore struct{}

func NewIssueStore() *SQLIssueStore { return &SQLIssueStore{} }

func errIssueNotFound() error { return apierr.New(apierr.CodeIssueNotFound, "issue not found") }

const issueColumns = `i.issue_id, i.book_id, i.user_id, i.issue_date, i.due_date, i.return_date, i.status,
	i.issued_by, b.category, i.created_at, i.updated_at`

func scanIssue(row interface{ Scan(...any) error }) (Issue, error) {
	var is Issue
	var st string
	var ret sql.NullTime
	if err := row.Scan(&is.IssueID, &is.BookID, &is.UserID, &is.IssueDate, &is.DueDate, &ret, &st,
		&is.IssuedBy, &is.Category, &is.CreatedAt, &is.UpdatedAt); err != nil {
		return Issue{}, err
	}
	is.Status = IssueStatus(st)
	if ret.Valid {
		t := ret.Time
		is.ReturnDate = &t
	}
	return is, nil
}

func (s *SQLIssueStore) Insert(ctx context.Context, q db.DBTX, is *Issue) error {
	const stmt = `
	INSERT INTO issues (issue_id, book_id, user_id, issue_date, due_date, return_date, status, issued_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, stmt, is.IssueID, is.BookID, is.UserID,
		is.IssueDate.Format(clock.DateLayout), is.DueDate.Format(clock.DateLayout),
		string(is.Status), is.IssuedBy, is.CreatedAt, is.UpdatedAt)
	return err
}

func (s *SQLIssueStore) Get(ctx context.Context, q db.DBTX, issueID string) (*Issue, error) {
	return s.get(ctx, q, `SELECT `+issueColumns+` FROM issues i JOIN books b ON b.book_id = i.book_id WHERE i.issue_id = ?`, issueID)
}

// Lock: issues の行だけロックする（books は在庫操作側でロック）
func (s *SQLIssueStore) Lock(ctx context.Context, q db.DBTX, issueID string) (*Issue, error) {
	return s.get(ctx, q, `SELECT `+issueColumns+` FROM issues i JOIN books b ON b.book_id = i.book_id WHERE i.issue_id = ? FOR UPDATE OF i`, issueID)
}

func (s *SQLIssueStore) get(ctx context.Context, q db.DBTX, query, issueID string) (*Issue, error) {
	is, err := scanIssue(q.QueryRowContext(ctx, query, issueID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errIssueNotFound()
	}
	if err != nil {
		return nil, err
	}
	return &is, nil
}

// CountActiveByUser: 同じ利用者の同時貸出を直列化するためロック付きで数える
func (s *SQLIssueStore) CountActiveByUser(ctx context.Context, q db.DBTX, userID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM issues
	WHERE user_id = ? AND status IN ('issued', 'overdue')
	FOR UPDATE`, userID).Scan(&n)
	return n, err
}

func (s *SQLIssueStore) HasActive(ctx context.Context, q db.DBTX, userID, bookID string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `
	SELECT 1 FROM issues
	WHERE user_id = ? AND book_id = ? AND status IN ('issued', 'overdue')
	LIMIT 1`, userID, bookID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLIssueStore) MarkReturned(ctx context.Context, q db.DBTX, issueID string, returnDate, at time.Time) error {
	const stmt = `
	UPDATE issues SET status = 'returned', return_date = ?, updated_at = ?
	WHERE issue_id = ? AND status <> 'returned'`
	res, err := q.ExecContext(ctx, stmt, returnDate.Format(clock.DateLayout), at, issueID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.New(apierr.CodeAlreadyReturned, "issue is already returned")
	}
	return nil
}

// MarkOverdue: issued → overdue のみ。返却済みには触らない。遷移したら true
func (s *SQLIssueStore) MarkOverdue(ctx context.Context, q db.DBTX, issueID string, at time.Time) (bool, error) {
	const stmt = `
	UPDATE issues SET status = 'overdue', updated_at = ?
	WHERE issue_id = ? AND status = 'issued' AND return_date IS NULL`
	res, err := q.ExecContext(ctx, stmt, at, issueID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}

// ListOverdueCandidates: 期限切れで未返却のもの（既に overdue の分も罰金を再計算するので含める）
func (s *SQLIssueStore) ListOverdueCandidates(ctx context.Context, q db.DBTX, today time.Time) ([]Issue, error) {
	rows, err := q.QueryContext(ctx, `
	SELECT `+issueColumns+`
	FROM issues i JOIN books b ON b.book_id = i.book_id
	WHERE i.status IN ('issued', 'overdue') AND i.return_date IS NULL AND i.due_date < ?
	ORDER BY i.due_date, i.issue_id`, today.Format(clock.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Issue, 0, 32)
	for rows.Next() {
		is, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, is)
	}
	return out, rows.Err()
}

func (s *SQLIssueStore) List(ctx context.Context, q db.DBTX, f IssueFilter, p page.Page) ([]Issue, int64, error) {
	ds := db.From(goqu.T("issues").As("i")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.book_id").Eq(goqu.I("i.book_id"))))
	if f.UserID != nil {
		ds = ds.Where(goqu.I("i.user_id").Eq(*f.UserID))
	}
	if f.BookID != nil {
		ds = ds.Where(goqu.I("i.book_id").Eq(*f.BookID))
	}
	if f.Status != nil {
		ds = ds.Where(goqu.I("i.status").Eq(string(*f.Status)))
	}

	total, err := db.Count(ctx, q, ds)
	if err != nil {
		return nil, 0, err
	}

	order := goqu.I("i.issue_date").Desc()
	if p.Order == "asc" {
		order = goqu.I("i.issue_date").Asc()
	}
	query, args, err := ds.Select(
		"i.issue_id", "i.book_id", "i.user_id", "i.issue_date", "i.due_date", "i.return_date", "i.status",
		"i.issued_by", "b.category", "i.created_at", "i.updated_at",
	).Order(order, goqu.I("i.issue_id").Desc()).
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

	out := make([]Issue, 0, p.Limit)
	for rows.Next() {
		is, err := scanIssue(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, is)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
