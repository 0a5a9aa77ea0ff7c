package circulation

import (
	"context"
	"sort"
	"sync"
	"time"

	"circulation-backend/internal/catalog"
	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/page"
)

// ===== catalog =====

type memCatalog struct {
	mu    sync.Mutex
	books map[string]*catalog.Book
}

func newMemCatalog(books ...catalog.Book) *memCatalog {
	m := &memCatalog{books: map[string]*catalog.Book{}}
	for _, b := range books {
		b := b
		m.books[b.BookID] = &b
	}
	return m
}

func (m *memCatalog) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]catalog.Book, len(m.books))
	for k, v := range m.books {
		saved[k] = *v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.books = make(map[string]*catalog.Book, len(saved))
		for k, v := range saved {
			b := v
			m.books[k] = &b
		}
	}
}

func (m *memCatalog) available(bookID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[bookID].AvailableCopies
}

func (m *memCatalog) Get(_ context.Context, _ db.DBTX, bookID string) (*catalog.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return nil, catalog.ErrBookNotFound
	}
	c := *b
	return &c, nil
}

func (m *memCatalog) List(_ context.Context, _ db.DBTX, _ catalog.Filter, _ page.Page) ([]catalog.Book, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]catalog.Book, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (m *memCatalog) Create(_ context.Context, _ db.DBTX, b *catalog.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *b
	m.books[b.BookID] = &c
	return nil
}

func (m *memCatalog) SetTotal(_ context.Context, _ db.DBTX, bookID string, total, available int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.books[bookID]
	b.TotalCopies, b.AvailableCopies = total, available
	return nil
}

func (m *memCatalog) GetAvailability(_ context.Context, _ db.DBTX, bookID string) (catalog.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return catalog.Availability{}, catalog.ErrBookNotFound
	}
	return catalog.Availability{BookID: b.BookID, Category: b.Category, Available: b.AvailableCopies, Total: b.TotalCopies}, nil
}

func (m *memCatalog) LockAvailability(ctx context.Context, q db.DBTX, bookID string) (catalog.Availability, error) {
	return m.GetAvailability(ctx, q, bookID)
}

func (m *memCatalog) DecrementCopy(_ context.Context, _ db.DBTX, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.books[bookID]
	if b.AvailableCopies <= 0 {
		return apierr.New(apierr.CodeCopyUnavailable, "no copies available")
	}
	b.AvailableCopies--
	return nil
}

func (m *memCatalog) IncrementCopy(_ context.Context, _ db.DBTX, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.books[bookID]
	if b.AvailableCopies >= b.TotalCopies {
		return apierr.ErrInternal("failed to update books.available_copies")
	}
	b.AvailableCopies++
	return nil
}

// ===== issues =====

type memIssues struct {
	mu         sync.Mutex
	rows       map[string]*Issue
	failInsert error
}

func newMemIssues() *memIssues { return &memIssues{rows: map[string]*Issue{}} }

func (m *memIssues) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]Issue, len(m.rows))
	for k, v := range m.rows {
		saved[k] = *v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.rows = make(map[string]*Issue, len(saved))
		for k, v := range saved {
			is := v
			m.rows[k] = &is
		}
	}
}

func (m *memIssues) all() []Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Issue, 0, len(m.rows))
	for _, is := range m.rows {
		out = append(out, *is)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueID < out[j].IssueID })
	return out
}

func (m *memIssues) Insert(_ context.Context, _ db.DBTX, is *Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return m.failInsert
	}
	c := *is
	m.rows[is.IssueID] = &c
	return nil
}

func (m *memIssues) Get(_ context.Context, _ db.DBTX, issueID string) (*Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	is, ok := m.rows[issueID]
	if !ok {
		return nil, errIssueNotFound()
	}
	c := *is
	return &c, nil
}

func (m *memIssues) Lock(ctx context.Context, q db.DBTX, issueID string) (*Issue, error) {
	return m.Get(ctx, q, issueID)
}

func (m *memIssues) CountActiveByUser(_ context.Context, _ db.DBTX, userID string) (int, error) {
	n := 0
	for _, is := range m.all() {
		if is.UserID == userID && is.Status.Active() {
			n++
		}
	}
	return n, nil
}

func (m *memIssues) HasActive(_ context.Context, _ db.DBTX, userID, bookID string) (bool, error) {
	for _, is := range m.all() {
		if is.UserID == userID && is.BookID == bookID && is.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memIssues) MarkReturned(_ context.Context, _ db.DBTX, issueID string, returnDate, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	is, ok := m.rows[issueID]
	if !ok || is.Status == StatusReturned {
		return apierr.New(apierr.CodeAlreadyReturned, "issue is already returned")
	}
	is.Status, is.ReturnDate, is.UpdatedAt = StatusReturned, &returnDate, at
	return nil
}

func (m *memIssues) MarkOverdue(_ context.Context, _ db.DBTX, issueID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	is, ok := m.rows[issueID]
	if !ok || is.Status != StatusIssued || is.ReturnDate != nil {
		return false, nil
	}
	is.Status, is.UpdatedAt = StatusOverdue, at
	return true, nil
}

func (m *memIssues) ListOverdueCandidates(_ context.Context, _ db.DBTX, today time.Time) ([]Issue, error) {
	var out []Issue
	for _, is := range m.all() {
		if is.Status.Active() && is.ReturnDate == nil && is.DueDate.Before(today) {
			out = append(out, is)
		}
	}
	return out, nil
}

func (m *memIssues) List(_ context.Context, _ db.DBTX, f IssueFilter, p page.Page) ([]Issue, int64, error) {
	var hit []Issue
	for _, is := range m.all() {
		if f.UserID != nil && is.UserID != *f.UserID {
			continue
		}
		if f.BookID != nil && is.BookID != *f.BookID {
			continue
		}
		if f.Status != nil && is.Status != *f.Status {
			continue
		}
		hit = append(hit, is)
	}
	return paginate(hit, p), int64(len(hit)), nil
}

// ===== requests =====

type memRequests struct {
	mu   sync.Mutex
	rows map[string]*BookRequest
}

func newMemRequests() *memRequests { return &memRequests{rows: map[string]*BookRequest{}} }

func (m *memRequests) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]BookRequest, len(m.rows))
	for k, v := range m.rows {
		saved[k] = *v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.rows = make(map[string]*BookRequest, len(saved))
		for k, v := range saved {
			r := v
			m.rows[k] = &r
		}
	}
}

func (m *memRequests) all() []BookRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]BookRequest, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID < out[j].RequestID })
	return out
}

func (m *memRequests) Insert(_ context.Context, _ db.DBTX, r *BookRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *r
	m.rows[r.RequestID] = &c
	return nil
}

func (m *memRequests) Get(_ context.Context, _ db.DBTX, requestID string) (*BookRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[requestID]
	if !ok {
		return nil, errRequestNotFound()
	}
	c := *r
	return &c, nil
}

func (m *memRequests) Lock(ctx context.Context, q db.DBTX, requestID string) (*BookRequest, error) {
	return m.Get(ctx, q, requestID)
}

func (m *memRequests) CountPending(_ context.Context, _ db.DBTX, userID string) (int, error) {
	n := 0
	for _, r := range m.all() {
		if r.UserID == userID && r.Status == RequestPending {
			n++
		}
	}
	return n, nil
}

func (m *memRequests) HasActive(_ context.Context, _ db.DBTX, userID, bookID string) (bool, error) {
	for _, r := range m.all() {
		if r.UserID == userID && r.BookID == bookID && r.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRequests) FindApproved(_ context.Context, _ db.DBTX, userID, bookID string) (*BookRequest, error) {
	for _, r := range m.all() {
		if r.UserID == userID && r.BookID == bookID && r.Status == RequestApproved {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memRequests) Transition(_ context.Context, _ db.DBTX, requestID string, from, to RequestStatus, by string, adminNotes *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[requestID]
	if !ok || r.Status != from {
		return apierr.New(apierr.CodeInvalidTransition, "request status changed concurrently")
	}
	r.Status, r.ProcessedBy, r.UpdatedAt = to, &by, at
	if adminNotes != nil {
		r.AdminNotes = adminNotes
	}
	return nil
}

func (m *memRequests) Fulfil(_ context.Context, _ db.DBTX, requestID, issueID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[requestID]
	if !ok || r.Status != RequestApproved {
		return apierr.New(apierr.CodeInvalidTransition, "request is not approved")
	}
	r.Status, r.IssueID, r.UpdatedAt = RequestFulfilled, &issueID, at
	return nil
}

func (m *memRequests) List(_ context.Context, _ db.DBTX, f RequestFilter, p page.Page) ([]BookRequest, int64, error) {
	var hit []BookRequest
	for _, r := range m.all() {
		if f.UserID != nil && r.UserID != *f.UserID {
			continue
		}
		if f.BookID != nil && r.BookID != *f.BookID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		hit = append(hit, r)
	}
	return paginate(hit, p), int64(len(hit)), nil
}

func paginate[T any](rows []T, p page.Page) []T {
	if p.Offset >= len(rows) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[p.Offset:end]
}

// ===== settings =====

type staticSettings map[string]string

func (s staticSettings) Values(context.Context) (map[string]string, error) { return s, nil }

type brokenSettings struct{ err error }

func (b brokenSettings) Values(context.Context) (map[string]string, error) { return nil, b.err }
