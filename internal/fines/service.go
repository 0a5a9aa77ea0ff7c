package fines

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"circulation-backend/internal/finecalc"
	"circulation-backend/internal/notify"
	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/auth"
	"circulation-backend/internal/platform/clock"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/logger"
	"circulation-backend/internal/platform/page"
)

// Service は罰金台帳と支払い処理。
// Record だけは貸出処理のトランザクションの中から呼ばれる。
type Service struct {
	db       db.DBTX
	tx       db.TxRunner
	store    Store
	notifier notify.Notifier
	clock    clock.Clock
	id       clock.IDGen
	currency string
}

func NewService(q db.DBTX, tx db.TxRunner, store Store, n notify.Notifier, currency string) *Service {
	return &Service{
		db:       q,
		tx:       tx,
		store:    store,
		notifier: n,
		clock:    clock.Real{},
		id:       clock.ULIDGen{},
		currency: currency,
	}
}

// WithClock: テスト用
func (s *Service) WithClock(c clock.Clock) *Service { s.clock = c; return s }

// Record は査定結果を issue_id 単位で upsert する。何度呼んでも行は1つ、金額は最後の査定。
// 確定済み（paid/waived）の行は変わらない。
func (s *Service) Record(ctx context.Context, q db.DBTX, a finecalc.Assessment, st Status) (*Fine, error) {
	if !st.Unsettled() {
		return nil, apierr.ErrInvalid("fine can only be recorded as pending or overdue")
	}
	f := &Fine{
		FineID:         s.id.NewULID(s.clock.Now()),
		IssueID:        a.IssueID,
		UserID:         a.UserID,
		BookID:         a.BookID,
		FineAmount:     a.FineAmount,
		DaysOverdue:    a.OverdueDays,
		Status:         st,
		CalculatedDate: a.CalculatedOn,
	}
	if err := s.store.Upsert(ctx, q, f); err != nil {
		return nil, fmt.Errorf("fine upsert (issue %s): %w", a.IssueID, err)
	}
	saved, err := s.store.GetByIssue(ctx, q, a.IssueID)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, apierr.ErrInternal("upserted but not found")
	}
	return saved, nil
}

// FindByIssue: 無ければ nil
func (s *Service) FindByIssue(ctx context.Context, q db.DBTX, issueID string) (*Fine, error) {
	return s.store.GetByIssue(ctx, q, issueID)
}

func (s *Service) Pay(ctx context.Context, fineID string, in PayRequest, actor auth.Actor) (FineResponse, error) {
	method := strings.ToLower(strings.TrimSpace(in.Method))
	if method == "" {
		method = "cash"
	}
	if _, ok := PaymentMethods[method]; !ok {
		return FineResponse{}, apierr.ErrInvalid("unsupported payment method")
	}
	return s.settle(ctx, fineID, StatusPaid, &method, in.Notes, actor)
}

func (s *Service) Waive(ctx context.Context, fineID string, in WaiveRequest, actor auth.Actor) (FineResponse, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return FineResponse{}, apierr.ErrInvalid("reason is required")
	}
	return s.settle(ctx, fineID, StatusWaived, nil, &reason, actor)
}

func (s *Service) settle(ctx context.Context, fineID string, to Status, method, notes *string, actor auth.Actor) (FineResponse, error) {
	now := s.clock.Now()
	txType := TxPayment
	if to == StatusWaived {
		txType = TxWaiver
	}

	var out *Fine
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		f, err := s.store.Lock(ctx, tx, fineID)
		if err != nil {
			return err
		}
		if err := checkOwed(f); err != nil {
			return err
		}
		if err := s.store.Settle(ctx, tx, fineID, to, method, now); err != nil {
			return err
		}
		if err := s.store.InsertTransaction(ctx, tx, &Transaction{
			TransactionID: s.id.NewULID(now),
			FineID:        fineID,
			Type:          txType,
			Amount:        f.FineAmount,
			PaymentMethod: method,
			Notes:         notes,
			Reference:     clock.NewReference(),
			ProcessedBy:   actor.UserID,
			CreatedAt:     now,
		}); err != nil {
			return err
		}
		out, err = s.store.Get(ctx, tx, fineID)
		return err
	})
	if err != nil {
		return FineResponse{}, s.wrap(err, "failed to settle fine")
	}

	logger.Log.WithFields(logrus.Fields{
		"fine_id": fineID, "user_id": out.UserID, "status": out.Status,
		"amount": out.FineAmount.StringFixed(2), "by": actor.UserID,
	}).Info("fine settled")

	title := "Fine paid"
	if to == StatusWaived {
		title = "Fine waived"
	}
	notify.Send(ctx, s.notifier, out.UserID, title,
		fmt.Sprintf("Your fine of %s has been %s.", notify.FormatAmount(s.currency, out.FineAmount), out.Status))
	return ToResponse(*out), nil
}

// SendReminder: 未確定の罰金のみ。reminder_count を増やして本人に通知
func (s *Service) SendReminder(ctx context.Context, fineID string, actor auth.Actor) (FineResponse, error) {
	now := s.clock.Now()
	var out *Fine
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		f, err := s.store.Lock(ctx, tx, fineID)
		if err != nil {
			return err
		}
		if err := checkOwed(f); err != nil {
			return err
		}
		if err := s.store.IncrementReminder(ctx, tx, fineID, now); err != nil {
			return err
		}
		out, err = s.store.Get(ctx, tx, fineID)
		return err
	})
	if err != nil {
		return FineResponse{}, s.wrap(err, "failed to send reminder")
	}

	logger.Log.WithField("fine_id", fineID).WithField("count", out.ReminderCount).WithField("by", actor.UserID).Info("fine reminder sent")
	notify.Send(ctx, s.notifier, out.UserID, "Fine reminder",
		fmt.Sprintf("You have an outstanding fine of %s (%d days overdue). Please pay at the circulation desk.",
			notify.FormatAmount(s.currency, out.FineAmount), out.DaysOverdue))
	return ToResponse(*out), nil
}

func (s *Service) Get(ctx context.Context, fineID string, actor auth.Actor) (FineDetailResponse, error) {
	f, err := s.store.Get(ctx, s.db, fineID)
	if err != nil {
		return FineDetailResponse{}, s.wrap(err, "failed to get fine")
	}
	if !actor.CanActFor(f.UserID) {
		// 他人の罰金は存在も見せない
		return FineDetailResponse{}, apierr.ErrNotFound("fine not found")
	}
	txs, err := s.store.ListTransactions(ctx, s.db, fineID)
	if err != nil {
		return FineDetailResponse{}, s.wrap(err, "failed to get fine")
	}
	res := FineDetailResponse{FineResponse: ToResponse(*f), Transactions: make([]TransactionResponse, 0, len(txs))}
	for _, t := range txs {
		res.Transactions = append(res.Transactions, toTxResponse(t))
	}
	return res, nil
}

func (s *Service) List(ctx context.Context, f Filter, p page.Page) (ListFinesResponse, error) {
	p = p.Normalize()
	if f.Status != nil {
		switch *f.Status {
		case StatusPending, StatusOverdue, StatusPaid, StatusWaived:
		default:
			return ListFinesResponse{}, apierr.ErrInvalid("invalid status")
		}
	}
	rows, total, err := s.store.List(ctx, s.db, f, p)
	if err != nil {
		return ListFinesResponse{}, s.wrap(err, "failed to list fines")
	}
	items := make([]FineResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, ToResponse(r))
	}
	return ListFinesResponse{Items: items, Total: total, NextOffset: p.Next(total)}, nil
}

// Statistics は毎回集計する（キャッシュしない）
func (s *Service) Statistics(ctx context.Context) (StatsResponse, error) {
	from := monthStart(s.clock.Now())
	st, err := s.store.Stats(ctx, s.db, from, from.AddDate(0, 1, 0))
	if err != nil {
		return StatsResponse{}, s.wrap(err, "failed to aggregate fines")
	}
	return StatsResponse{
		OutstandingTotal:   st.OutstandingTotal.StringFixed(2),
		OutstandingCount:   st.OutstandingCount,
		CollectedThisMonth: st.CollectedThisMonth.StringFixed(2),
		WaivedTotal:        st.WaivedTotal.StringFixed(2),
		AverageFine:        st.AverageFine.StringFixed(2),
		StudentsWithFines:  st.StudentsWithFines,
		Currency:           s.currency,
	}, nil
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// checkOwed: 支払い・免除・督促は未確定で金額が残っている行だけ
func checkOwed(f *Fine) error {
	if !f.Status.Unsettled() {
		return apierr.New(apierr.CodeFineAlreadySettled, fmt.Sprintf("fine is already %s", f.Status))
	}
	if !f.FineAmount.IsPositive() {
		return apierr.ErrConflict("nothing is owed on this fine")
	}
	return nil
}

func (s *Service) wrap(err error, msg string) error {
	if apierr.CodeOf(err) != apierr.CodeInternal {
		return err
	}
	logger.Log.WithError(err).Error(msg)
	return apierr.ErrInternal(msg)
}
