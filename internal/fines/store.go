package fines

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

type Store interface {
	Upsert(ctx context.Context, q db.DBTX, f *Fine) error
	GetByIssue(ctx context.Context, q db.DBTX, issueID string) (*Fine, error)
	Get(ctx context.Context, q db.DBTX, fineID string) (*Fine, error)
	Lock(ctx context.Context, q db.DBTX, fineID string) (*Fine, error)
	Settle(ctx context.Context, q db.DBTX, fineID string, st Status, method *string, at time.Time) error
	IncrementReminder(ctx context.Context, q db.DBTX, fineID string, at time.Time) error
	InsertTransaction(ctx context.Context, q db.DBTX, t *Transaction) error
	ListTransactions(ctx context.Context, q db.DBTX, fineID string) ([]Transaction, error)
	List(ctx context.Context, q db.DBTX, f Filter, p page.Page) ([]Fine, int64, error)
	Stats(ctx context.Context, q db.DBTX, from, to time.Time) (Stats, error)
}

type SQLStore struct{}

func NewStore() *SQLStore { return &SQLStore{} }

func errFineNotFound() error { return apierr.ErrNotFound("fine not found") }

// Upsert: issue_id（UNIQUE）で INSERT または UPDATE。
// 支払い済み・免除済みの行は一切変えない。status は判定に使うので最後に代入する。
func (s *SQLStore) Upsert(ctx context.Context, q db.DBTX, f *Fine) error {
	const stmt = `
	INSERT INTO fines (fine_id, issue_id, user_id, book_id, fine_amount, days_overdue, status, calculated_date,
	                   reminder_count, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, UTC_TIMESTAMP(), UTC_TIMESTAMP())
	ON DUPLICATE KEY UPDATE
	fine_amount     = IF(status IN ('pending', 'overdue'), VALUES(fine_amount), fine_amount),
	days_overdue    = IF(status IN ('pending', 'overdue'), VALUES(days_overdue), days_overdue),
	calculated_date = IF(status IN ('pending', 'overdue'), VALUES(calculated_date), calculated_date),
	updated_at      = IF(status IN ('pending', 'overdue'), VALUES(updated_at), updated_at),
	status          = IF(status IN ('pending', 'overdue'), VALUES(status), status)`

	_, err := q.ExecContext(ctx, stmt, f.FineID, f.IssueID, f.UserID, f.BookID, f.FineAmount.StringFixed(2),
		f.DaysOverdue, string(f.Status), f.CalculatedDate.Format(clock.DateLayout))
	return err
}

const fineColumns = `fine_id, issue_id, user_id, book_id, fine_amount, days_overdue, status, calculated_date,
	paid_date, waived_date, payment_method, reminder_count, last_reminded_at, created_at, updated_at`

var fineColumnList = []any{"fine_id", "issue_id", "user_id", "book_id", "fine_amount", "days_overdue", "status",
	"calculated_date", "paid_date", "waived_date", "payment_method", "reminder_count", "last_reminded_at",
	"created_at", "updated_at"}

func scanFine(row interface{ Scan(...any) error }) (Fine, error) {
	var f Fine
	var st string
	var paid, waived, reminded sql.NullTime
	var method sql.NullString
	if err := row.Scan(&f.FineID, &f.IssueID, &f.UserID, &f.BookID, &f.FineAmount, &f.DaysOverdue, &st,
		&f.CalculatedDate, &paid, &waived, &method, &f.ReminderCount, &reminded, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return Fine{}, err
	}
	f.Status = Status(st)
	f.PaidDate = timePtr(paid)
	f.WaivedDate = timePtr(waived)
	f.LastRemindedAt = timePtr(reminded)
	if method.Valid {
		m := method.String
		f.PaymentMethod = &m
	}
	return f, nil
}

func (s *SQLStore) GetByIssue(ctx context.Context, q db.DBTX, issueID string) (*Fine, error) {
	f, err := scanFine(q.QueryRowContext(ctx, `SELECT `+fineColumns+` FROM fines WHERE issue_id = ?`, issueID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SQLStore) Get(ctx context.Context, q db.DBTX, fineID string) (*Fine, error) {
	return s.get(ctx, q, `SELECT `+fineColumns+` FROM fines WHERE fine_id = ?`, fineID)
}

// Lock: 支払い・免除・督促は行ロックしてから状態を見る
func (s *SQLStore) Lock(ctx context.Context, q db.DBTX, fineID string) (*Fine, error) {
	return s.get(ctx, q, `SELECT `+fineColumns+` FROM fines WHERE fine_id = ? FOR UPDATE`, fineID)
}

func (s *SQLStore) get(ctx context.Context, q db.DBTX, query, fineID string) (*Fine, error) {
	f, err := scanFine(q.QueryRowContext(ctx, query, fineID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errFineNotFound()
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Settle: pending/overdue → paid|waived。既に確定していれば FINE_ALREADY_SETTLED
func (s *SQLStore) Settle(ctx context.Context, q db.DBTX, fineID string, st Status, method *string, at time.Time) error {
	var stmt string
	var args []any
	switch st {
	case StatusPaid:
		stmt = `UPDATE fines SET status = 'paid', paid_date = ?, payment_method = ?, updated_at = ?
		WHERE fine_id = ? AND status IN ('pending', 'overdue')`
		args = []any{at, nullString(method), at, fineID}
	case StatusWaived:
		stmt = `UPDATE fines SET status = 'waived', waived_date = ?, updated_at = ?
		WHERE fine_id = ? AND status IN ('pending', 'overdue')`
		args = []any{at, at, fineID}
	default:
		return apierr.ErrInvalid("unsupported settlement")
	}
	res, err := q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.New(apierr.CodeFineAlreadySettled, "fine is already settled")
	}
	return nil
}

func (s *SQLStore) IncrementReminder(ctx context.Context, q db.DBTX, fineID string, at time.Time) error {
	const stmt = `
	UPDATE fines SET reminder_count = reminder_count + 1, last_reminded_at = ?
	WHERE fine_id = ? AND status IN ('pending', 'overdue')`
	res, err := q.ExecContext(ctx, stmt, at, fineID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.New(apierr.CodeFineAlreadySettled, "fine is already settled")
	}
	return nil
}

func (s *SQLStore) InsertTransaction(ctx context.Context, q db.DBTX, t *Transaction) error {
	const stmt = `
	INSERT INTO fine_transactions
	(transaction_id, fine_id, type, amount, payment_method, notes, reference, processed_by, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, stmt, t.TransactionID, t.FineID, string(t.Type), t.Amount.StringFixed(2),
		nullString(t.PaymentMethod), nullString(t.Notes), t.Reference, t.ProcessedBy, t.CreatedAt)
	return err
}

func (s *SQLStore) ListTransactions(ctx context.Context, q db.DBTX, fineID string) ([]Transaction, error) {
	const query = `
	SELECT transaction_id, fine_id, type, amount, payment_method, notes, reference, processed_by, created_at
	FROM fine_transactions
	WHERE fine_id = ?
	ORDER BY created_at, transaction_id`
	rows, err := q.QueryContext(ctx, query, fineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Transaction, 0, 2)
	for rows.Next() {
		var t Transaction
		var typ string
		var method, notes sql.NullString
		if err := rows.Scan(&t.TransactionID, &t.FineID, &typ, &t.Amount, &method, &notes,
			&t.Reference, &t.ProcessedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type = TxType(typ)
		t.PaymentMethod = nullToPtr(method)
		t.Notes = nullToPtr(notes)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) List(ctx context.Context, q db.DBTX, f Filter, p page.Page) ([]Fine, int64, error) {
	ds := db.From("fines")
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

	order := goqu.C("calculated_date").Desc()
	if p.Order == "asc" {
		order = goqu.C("calculated_date").Asc()
	}
	query, args, err := ds.Select(fineColumnList...).
		Order(order, goqu.C("fine_id").Asc()).
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

	out := make([]Fine, 0, p.Limit)
	for rows.Next() {
		f, err := scanFine(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Stats: [from, to) に支払われた分を今月の回収額とする。未払いは金額 > 0 の行だけ数える
func (s *SQLStore) Stats(ctx context.Context, q db.DBTX, from, to time.Time) (Stats, error) {
	const query = `
	SELECT
	  COALESCE(SUM(CASE WHEN status IN ('pending', 'overdue') AND fine_amount > 0 THEN fine_amount END), 0),
	  COUNT(CASE WHEN status IN ('pending', 'overdue') AND fine_amount > 0 THEN 1 END),
	  COALESCE(SUM(CASE WHEN status = 'paid' AND paid_date >= ? AND paid_date < ? THEN fine_amount END), 0),
	  COALESCE(SUM(CASE WHEN status = 'waived' THEN fine_amount END), 0),
	  COALESCE(AVG(CASE WHEN fine_amount > 0 THEN fine_amount END), 0),
	  COUNT(DISTINCT CASE WHEN status IN ('pending', 'overdue') AND fine_amount > 0 THEN user_id END)
	FROM fines`
	var st Stats
	err := q.QueryRowContext(ctx, query, from, to).Scan(
		&st.OutstandingTotal, &st.OutstandingCount, &st.CollectedThisMonth,
		&st.WaivedTotal, &st.AverageFine, &st.StudentsWithFines,
	)
	if err != nil {
		return Stats{}, err
	}
	st.AverageFine = st.AverageFine.Round(2)
	return st, nil
}

func timePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}

func nullString(s *string) any {
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

