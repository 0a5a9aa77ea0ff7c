package circulation

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circulation-backend/internal/catalog"
	"circulation-backend/internal/fines"
	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/clock"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/page"
)

var issueCols = []string{"issue_id", "book_id", "user_id", "issue_date", "due_date", "return_date", "status",
	"issued_by", "category", "created_at", "updated_at"}

func newSQLMock(t *testing.T) (db.DBTX, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB, mock
}

func TestSQLIssueStoreMarkReturnedTwice(t *testing.T) {
	q, mock := newSQLMock(t)
	at := day0.AddDate(0, 0, 3)

	mock.ExpectExec("UPDATE issues SET status = 'returned'").
		WithArgs("2026-03-05", at, "i1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewIssueStore().MarkReturned(context.Background(), q, "i1", clock.DateOf(at), at)
	assert.True(t, apierr.Is(err, apierr.CodeAlreadyReturned), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLIssueStoreMarkOverdueOnlyFromIssued(t *testing.T) {
	q, mock := newSQLMock(t)

	mock.ExpectExec("UPDATE issues SET status = 'overdue'.*WHERE issue_id = \\? AND status = 'issued' AND return_date IS NULL").
		WithArgs(day0, "i1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE issues SET status = 'overdue'").
		WithArgs(day0, "i1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewIssueStore()
	ok, err := s.MarkOverdue(context.Background(), q, "i1", day0)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.MarkOverdue(context.Background(), q, "i1", day0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLIssueStoreListOverdueCandidates(t *testing.T) {
	q, mock := newSQLMock(t)
	due := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("WHERE i.status IN \\('issued', 'overdue'\\) AND i.return_date IS NULL AND i.due_date < \\?").
		WithArgs("2026-03-21").
		WillReturnRows(sqlmock.NewRows(issueCols).
			AddRow("i1", "b1", "s1001", day0, due, nil, "issued", "lib01", "regular_book", day0, day0))

	rows, err := NewIssueStore().ListOverdueCandidates(context.Background(), q, time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusIssued, rows[0].Status)
	assert.Equal(t, "regular_book", rows[0].Category)
	assert.Nil(t, rows[0].ReturnDate)
}

func TestSQLIssueStoreList(t *testing.T) {
	q, mock := newSQLMock(t)
	ret := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM `issues` AS `i` INNER JOIN `books` AS `b`.*`i`.`user_id` = \\?").
		WithArgs("s1001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT `i`.`issue_id`.*ORDER BY `i`.`issue_date` DESC").
		WillReturnRows(sqlmock.NewRows(issueCols).
			AddRow("i1", "b1", "s1001", day0, day0.AddDate(0, 0, 14), ret, "returned", "lib01", "journal", day0, ret))

	uid := "s1001"
	rows, total, err := NewIssueStore().List(context.Background(), q, IssueFilter{UserID: &uid}, page.Page{}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ReturnDate)
	assert.Equal(t, StatusReturned, rows[0].Status)
}

func TestSQLRequestStoreTransitionLostRace(t *testing.T) {
	q, mock := newSQLMock(t)

	mock.ExpectExec("UPDATE book_requests.*WHERE request_id = \\? AND status = \\?").
		WithArgs("approved", "lib01", nil, day0, "r1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewRequestStore().Transition(context.Background(), q, "r1", RequestPending, RequestApproved, "lib01", nil, day0)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidTransition), "got %v", err)
}

func TestSQLRequestStoreFindApprovedNone(t *testing.T) {
	q, mock := newSQLMock(t)

	mock.ExpectQuery("FROM book_requests.*status = 'approved'").
		WithArgs("s1001", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"request_id"}))

	r, err := NewRequestStore().FindApproved(context.Background(), q, "s1001", "b1")
	require.NoError(t, err)
	assert.Nil(t, r)
}

// 実 SQL ストアで貸出1件分のトランザクションを通す
func TestIssueBookCommitsOneTransaction(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	fineStore := fines.NewStore()
	ledger := fines.NewService(sqlDB, db.NewRunner(sqlDB), fineStore, nil, "INR")
	svc := NewService(Deps{
		DB:       sqlDB,
		Tx:       db.NewRunner(sqlDB),
		Issues:   NewIssueStore(),
		Requests: NewRequestStore(),
		Catalog:  catalog.NewStore(),
		Fines:    ledger,
	}).WithClock(clock.NewFixed(day0))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM issues.*FOR UPDATE").WithArgs("s1001").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery("SELECT 1 FROM issues").WithArgs("s1001", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("SELECT book_id, category, available_copies, total_copies FROM books .*FOR UPDATE").WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "category", "available_copies", "total_copies"}).
			AddRow("b1", "regular_book", 1, 1))
	mock.ExpectQuery("FROM book_requests.*status = 'approved'").WithArgs("s1001", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"request_id"}))
	mock.ExpectExec("UPDATE books SET available_copies = available_copies - 1").WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO issues").
		WithArgs(sqlmock.AnyArg(), "b1", "s1001", "2026-03-02", "2026-03-16", "issued", "lib01", day0, day0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM books WHERE book_id = \\?").WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"book_id"}))

	res, err := svc.IssueBook(context.Background(), IssueBookRequest{BookID: "b1", UserID: "s1001"}, librarian)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-16", res.DueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueBookRollsBackWhenCopyTaken(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	svc := NewService(Deps{
		DB:       sqlDB,
		Tx:       db.NewRunner(sqlDB),
		Issues:   NewIssueStore(),
		Requests: NewRequestStore(),
		Catalog:  catalog.NewStore(),
	}).WithClock(clock.NewFixed(day0))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM issues").WithArgs("s1001").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery("SELECT 1 FROM issues").WithArgs("s1001", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("FROM books .*FOR UPDATE").WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "category", "available_copies", "total_copies"}).
			AddRow("b1", "regular_book", 0, 1))
	mock.ExpectRollback()

	_, err = svc.IssueBook(context.Background(), IssueBookRequest{BookID: "b1", UserID: "s1001"}, librarian)
	assert.True(t, apierr.Is(err, apierr.CodeCopyUnavailable), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
