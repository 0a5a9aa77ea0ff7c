// Package finestest は fines.Store のメモリ実装（サービス層のテスト用）。
package finestest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"circulation-backend/internal/fines"
	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/page"
)

type Store struct {
	mu      sync.Mutex
	byIssue map[string]*fines.Fine
	txs     []fines.Transaction
}

func New() *Store { return &Store{byIssue: map[string]*fines.Fine{}} }

// Snapshot は現在の状態を保存し、復元関数を返す（ロールバックの再現用）
func (s *Store) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[string]fines.Fine, len(s.byIssue))
	for k, v := range s.byIssue {
		saved[k] = *v
	}
	txs := append([]fines.Transaction(nil), s.txs...)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byIssue = make(map[string]*fines.Fine, len(saved))
		for k, v := range saved {
			f := v
			s.byIssue[k] = &f
		}
		s.txs = txs
	}
}

// Rows は issue_id 順の全行のコピー
func (s *Store) Rows() []fines.Fine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fines.Fine, 0, len(s.byIssue))
	for _, f := range s.byIssue {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueID < out[j].IssueID })
	return out
}

func (s *Store) Transactions() []fines.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fines.Transaction(nil), s.txs...)
}

// Put は行を直接入れる（テストの前提づくり）
func (s *Store) Put(f fines.Fine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byIssue[f.IssueID] = &f
}

func (s *Store) Upsert(_ context.Context, _ db.DBTX, f *fines.Fine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byIssue[f.IssueID]
	if !ok {
		row := *f
		row.CreatedAt, row.UpdatedAt = time.Now(), time.Now()
		s.byIssue[f.IssueID] = &row
		return nil
	}
	if !cur.Status.Unsettled() {
		return nil
	}
	cur.FineAmount = f.FineAmount
	cur.DaysOverdue = f.DaysOverdue
	cur.CalculatedDate = f.CalculatedDate
	cur.Status = f.Status
	cur.UpdatedAt = time.Now()
	return nil
}

func (s *Store) GetByIssue(_ context.Context, _ db.DBTX, issueID string) (*fines.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.byIssue[issueID]; ok {
		c := *f
		return &c, nil
	}
	return nil, nil
}

func (s *Store) find(fineID string) *fines.Fine {
	for _, f := range s.byIssue {
		if f.FineID == fineID {
			return f
		}
	}
	return nil
}

func (s *Store) Get(_ context.Context, _ db.DBTX, fineID string) (*fines.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.find(fineID)
	if f == nil {
		return nil, apierr.ErrNotFound("fine not found")
	}
	c := *f
	return &c, nil
}

func (s *Store) Lock(ctx context.Context, q db.DBTX, fineID string) (*fines.Fine, error) {
	return s.Get(ctx, q, fineID)
}

func (s *Store) Settle(_ context.Context, _ db.DBTX, fineID string, st fines.Status, method *string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.find(fineID)
	if f == nil || !f.Status.Unsettled() {
		return apierr.New(apierr.CodeFineAlreadySettled, "fine is already settled")
	}
	f.Status = st
	switch st {
	case fines.StatusPaid:
		f.PaidDate, f.PaymentMethod = &at, method
	case fines.StatusWaived:
		f.WaivedDate = &at
	}
	return nil
}

func (s *Store) IncrementReminder(_ context.Context, _ db.DBTX, fineID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.find(fineID)
	if f == nil || !f.Status.Unsettled() {
		return apierr.New(apierr.CodeFineAlreadySettled, "fine is already settled")
	}
	f.ReminderCount++
	f.LastRemindedAt = &at
	return nil
}

func (s *Store) InsertTransaction(_ context.Context, _ db.DBTX, t *fines.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, *t)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, _ db.DBTX, fineID string) ([]fines.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []fines.Transaction
	for _, t := range s.txs {
		if t.FineID == fineID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) List(_ context.Context, _ db.DBTX, f fines.Filter, p page.Page) ([]fines.Fine, int64, error) {
	all := s.Rows()
	var hit []fines.Fine
	for _, r := range all {
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
	total := int64(len(hit))
	if p.Offset >= len(hit) {
		return []fines.Fine{}, total, nil
	}
	end := p.Offset + p.Limit
	if end > len(hit) {
		end = len(hit)
	}
	return hit[p.Offset:end], total, nil
}

func (s *Store) Stats(_ context.Context, _ db.DBTX, from, to time.Time) (fines.Stats, error) {
	var st fines.Stats
	users := map[string]struct{}{}
	sum, n := decimal.Zero, int64(0)
	for _, f := range s.Rows() {
		if f.Outstanding() {
			st.OutstandingTotal = st.OutstandingTotal.Add(f.FineAmount)
			st.OutstandingCount++
			users[f.UserID] = struct{}{}
		}
		if f.Status == fines.StatusPaid && f.PaidDate != nil && !f.PaidDate.Before(from) && f.PaidDate.Before(to) {
			st.CollectedThisMonth = st.CollectedThisMonth.Add(f.FineAmount)
		}
		if f.Status == fines.StatusWaived {
			st.WaivedTotal = st.WaivedTotal.Add(f.FineAmount)
		}
		if f.FineAmount.IsPositive() {
			sum = sum.Add(f.FineAmount)
			n++
		}
	}
	if n > 0 {
		st.AverageFine = sum.Div(decimal.NewFromInt(n)).Round(2)
	}
	st.StudentsWithFines = int64(len(users))
	return st, nil
}
