package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/page"
)

// Store: 在庫カウンタの増減はトランザクション内（q = tx）で呼ぶこと
type Store interface {
	Get(ctx context.Context, q db.DBTX, bookID string) (*Book, error)
	List(ctx context.Context, q db.DBTX, f Filter, p page.Page) ([]Book, int64, error)
	Create(ctx context.Context, q db.DBTX, b *Book) error
	SetTotal(ctx context.Context, q db.DBTX, bookID string, total, available int) error

	GetAvailability(ctx context.Context, q db.DBTX, bookID string) (Availability, error)
	LockAvailability(ctx context.Context, q db.DBTX, bookID string) (Availability, error)
	DecrementCopy(ctx context.Context, q db.DBTX, bookID string) error
	IncrementCopy(ctx context.Context, q db.DBTX, bookID string) error
}

type SQLStore struct{}

func NewStore() *SQLStore { return &SQLStore{} }

var ErrBookNotFound = apierr.ErrNotFound("book not found")

const bookColumns = `book_id, isbn, title, author, category, total_copies, available_copies, created_at`

func scanBook(row interface{ Scan(...any) error }) (Book, error) {
	var b Book
	var isbn sql.NullString
	if err := row.Scan(&b.BookID, &isbn, &b.Title, &b.Author, &b.Category,
		&b.TotalCopies, &b.AvailableCopies, &b.CreatedAt); err != nil {
		return Book{}, err
	}
	b.ISBN = nullToPtr(isbn)
	return b, nil
}

func (s *SQLStore) Get(ctx context.Context, q db.DBTX, bookID string) (*Book, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE book_id = ?`, bookID)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *SQLStore) List(ctx context.Context, q db.DBTX, f Filter, p page.Page) ([]Book, int64, error) {
	ds := db.From("books")
	if f.Query != nil && strings.TrimSpace(*f.Query) != "" {
		like := "%" + strings.TrimSpace(*f.Query) + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("title").Like(like),
			goqu.C("author").Like(like),
			goqu.C("isbn").Like(like),
		))
	}
	if f.Category != nil {
		ds = ds.Where(goqu.C("category").Eq(*f.Category))
	}
	if f.AvailableOnly {
		ds = ds.Where(goqu.C("available_copies").Gt(0))
	}

	total, err := db.Count(ctx, q, ds)
	if err != nil {
		return nil, 0, err
	}

	order := goqu.C("title").Asc()
	if p.Order == "desc" {
		order = goqu.C("title").Desc()
	}
	query, args, err := ds.
		Select("book_id", "isbn", "title", "author", "category", "total_copies", "available_copies", "created_at").
		Order(order, goqu.C("book_id").Asc()).
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

	out := make([]Book, 0, p.Limit)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *SQLStore) Create(ctx context.Context, q db.DBTX, b *Book) error {
	const stmt = `
	INSERT INTO books (book_id, isbn, title, author, category, total_copies, available_copies, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, stmt, b.BookID, ptrToNull(b.ISBN), b.Title, b.Author, b.Category,
		b.TotalCopies, b.AvailableCopies, b.CreatedAt)
	return err
}

func (s *SQLStore) SetTotal(ctx context.Context, q db.DBTX, bookID string, total, available int) error {
	const stmt = `UPDATE books SET total_copies = ?, available_copies = ? WHERE book_id = ?`
	_, err := q.ExecContext(ctx, stmt, total, available, bookID)
	return err
}

func (s *SQLStore) GetAvailability(ctx context.Context, q db.DBTX, bookID string) (Availability, error) {
	return s.availability(ctx, q, `SELECT book_id, category, available_copies, total_copies FROM books WHERE book_id = ?`, bookID)
}

// LockAvailability: 行ロックして在庫を読む
func (s *SQLStore) LockAvailability(ctx context.Context, q db.DBTX, bookID string) (Availability, error) {
	return s.availability(ctx, q, `SELECT book_id, category, available_copies, total_copies FROM books WHERE book_id = ? LIMIT 1 FOR UPDATE`, bookID)
}

func (s *SQLStore) availability(ctx context.Context, q db.DBTX, query, bookID string) (Availability, error) {
	var a Availability
	err := q.QueryRowContext(ctx, query, bookID).Scan(&a.BookID, &a.Category, &a.Available, &a.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return Availability{}, ErrBookNotFound
	}
	return a, err
}

// DecrementCopy: 0 未満にはしない
func (s *SQLStore) DecrementCopy(ctx context.Context, q db.DBTX, bookID string) error {
	const stmt = `UPDATE books SET available_copies = available_copies - 1 WHERE book_id = ? AND available_copies > 0`
	res, err := q.ExecContext(ctx, stmt, bookID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.New(apierr.CodeCopyUnavailable, "no copies available")
	}
	return nil
}

// IncrementCopy: total_copies を超えない
func (s *SQLStore) IncrementCopy(ctx context.Context, q db.DBTX, bookID string) error {
	const stmt = `UPDATE books SET available_copies = available_copies + 1 WHERE book_id = ? AND available_copies < total_copies`
	res, err := q.ExecContext(ctx, stmt, bookID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.ErrInternal("failed to update books.available_copies")
	}
	return nil
}

func ptrToNull(s *string) (ns sql.NullString) {
	if s != nil && strings.TrimSpace(*s) != "" {
		ns.Valid, ns.String = true, *s
	}
	return
}

func nullToPtr(ns sql.NullString) *string {
	if ns.Valid {
		v := ns.String
		return &v
	}
	return nil
}
