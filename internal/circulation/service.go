package circulation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"circulation-backend/internal/catalog"
	"circulation-backend/internal/finecalc"
	"circulation-backend/internal/fines"
	"circulation-backend/internal/notify"
	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/auth"
	"circulation-backend/internal/platform/clock"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/logger"
	"circulation-backend/internal/platform/page"
	"circulation-backend/internal/rates"
)

const MaxLoanDays = 365

// FineLedger: 罰金台帳のうち貸出処理が使う部分（*fines.Service）
type FineLedger interface {
	Record(ctx context.Context, q db.DBTX, a finecalc.Assessment, st fines.Status) (*fines.Fine, error)
	FindByIssue(ctx context.Context, q db.DBTX, issueID string) (*fines.Fine, error)
}

type Deps struct {
	DB       db.DBTX
	Tx       db.TxRunner
	Issues   IssueStore
	Requests RequestStore
	Catalog  catalog.Store
	Fines    FineLedger
	Settings rates.Source
	Notifier notify.Notifier
	Currency string
}

// Service は貸出・返却・延滞スイープと取り寄せ申請。
// 在庫数と貸出状態の変更は必ず同じトランザクションで行う。
type Service struct {
	db       db.DBTX
	tx       db.TxRunner
	issues   IssueStore
	requests RequestStore
	catalog  catalog.Store
	fines    FineLedger
	settings rates.Source
	notifier notify.Notifier
	currency string
	clock    clock.Clock
	id       clock.IDGen
}

func NewService(d Deps) *Service {
	return &Service{
		db:       d.DB,
		tx:       d.Tx,
		issues:   d.Issues,
		requests: d.Requests,
		catalog:  d.Catalog,
		fines:    d.Fines,
		settings: d.Settings,
		notifier: d.Notifier,
		currency: d.Currency,
		clock:    clock.Real{},
		id:       clock.ULIDGen{},
	}
}

// WithClock: テスト用
func (s *Service) WithClock(c clock.Clock) *Service { s.clock = c; return s }

func (s *Service) IssueBook(ctx context.Context, in IssueBookRequest, actor auth.Actor) (IssueResponse, error) {
	bookID, userID := strings.TrimSpace(in.BookID), strings.TrimSpace(in.UserID)
	if bookID == "" || userID == "" {
		return IssueResponse{}, apierr.ErrInvalid("book_id and user_id are required")
	}
	if in.LoanDays != nil && (*in.LoanDays <= 0 || *in.LoanDays > MaxLoanDays) {
		return IssueResponse{}, apierr.ErrInvalid(fmt.Sprintf("loan_days must be between 1 and %d", MaxLoanDays))
	}

	policy := LoadPolicy(ctx, s.settings)
	now := s.clock.Now()
	today := clock.DateOf(now)

	var out Issue
	var fulfilled *string
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		n, err := s.issues.CountActiveByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if n >= policy.MaxBooksPerUser {
			return apierr.New(apierr.CodeBorrowLimitExceeded,
				fmt.Sprintf("user already has %d of %d books", n, policy.MaxBooksPerUser))
		}
		has, err := s.issues.HasActive(ctx, tx, userID, bookID)
		if err != nil {
			return err
		}
		if has {
			return apierr.New(apierr.CodeAlreadyIssued, "user already holds this book")
		}

		av, err := s.catalog.LockAvailability(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if av.Available <= 0 {
			return apierr.New(apierr.CodeCopyUnavailable, "no copies available")
		}

		req, err := s.requests.FindApproved(ctx, tx, userID, bookID)
		if err != nil {
			return err
		}
		loanDays := policy.LoanDays
		switch {
		case in.LoanDays != nil:
			loanDays = *in.LoanDays
		case req != nil && req.RequestedDuration > 0:
			loanDays = req.RequestedDuration
		}

		if err := s.catalog.DecrementCopy(ctx, tx, bookID); err != nil {
			return err
		}
		out = Issue{
			IssueID:   s.id.NewULID(now),
			BookID:    bookID,
			UserID:    userID,
			IssueDate: today,
			DueDate:   today.AddDate(0, 0, loanDays),
			Status:    StatusIssued,
			IssuedBy:  actor.UserID,
			Category:  av.Category,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.issues.Insert(ctx, tx, &out); err != nil {
			return err
		}
		if req != nil {
			if err := s.requests.Fulfil(ctx, tx, req.RequestID, out.IssueID, now); err != nil {
				return err
			}
			fulfilled = &req.RequestID
		}
		return nil
	})
	if err != nil {
		return IssueResponse{}, s.wrap(err, "failed to issue book")
	}

	fields := logrus.Fields{"issue_id": out.IssueID, "user_id": userID, "book_id": bookID,
		"due_date": out.DueDate.Format(clock.DateLayout), "by": actor.UserID}
	if fulfilled != nil {
		fields["request_id"] = *fulfilled
	}
	logger.Log.WithFields(fields).Info("book issued")

	notify.Send(ctx, s.notifier, userID, "Book issued",
		fmt.Sprintf("%q has been issued to you. Please return it by %s.",
			s.bookTitle(ctx, bookID), out.DueDate.Format(clock.DateLayout)))
	return toIssueResponse(out), nil
}

// ReturnBook: 返却・在庫戻し・罰金確定を1トランザクションで行う
func (s *Service) ReturnBook(ctx context.Context, issueID string, in ReturnBookRequest, actor auth.Actor) (ReturnResponse, error) {
	now := s.clock.Now()
	today := clock.DateOf(now)
	returned := today
	if in.ReturnDate != nil && strings.TrimSpace(*in.ReturnDate) != "" {
		d, err := time.Parse(clock.DateLayout, strings.TrimSpace(*in.ReturnDate))
		if err != nil {
			return ReturnResponse{}, apierr.ErrInvalid("return_date must be YYYY-MM-DD")
		}
		returned = d
	}

	policy := LoadPolicy(ctx, s.settings)

	var (
		is   *Issue
		a    finecalc.Assessment
		fine *fines.Fine
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		is, err = s.issues.Lock(ctx, tx, issueID)
		if err != nil {
			return err
		}
		if !is.Status.Active() {
			return apierr.New(apierr.CodeAlreadyReturned, "issue is already returned")
		}
		if returned.Before(clock.DateOf(is.IssueDate)) || returned.After(today) {
			return apierr.New(apierr.CodeInvalidDateRange, "return_date must be between issue date and today")
		}

		if err := s.issues.MarkReturned(ctx, tx, issueID, returned, now); err != nil {
			return err
		}
		if _, err := s.catalog.LockAvailability(ctx, tx, is.BookID); err != nil {
			return err
		}
		if err := s.catalog.IncrementCopy(ctx, tx, is.BookID); err != nil {
			return err
		}
		is.Status, is.ReturnDate, is.UpdatedAt = StatusReturned, &returned, now

		a = finecalc.Calculate(assessInput(*is), policy.Rates, today)
		existing, err := s.fines.FindByIssue(ctx, tx, issueID)
		if err != nil {
			return err
		}
		// スイープで記録済みの行は 0 円でも最終値で上書きする
		if a.FineAmount.IsPositive() || existing != nil {
			fine, err = s.fines.Record(ctx, tx, a, fines.StatusPending)
			return err
		}
		return nil
	})
	if err != nil {
		return ReturnResponse{}, s.wrap(err, "failed to return book")
	}

	logger.Log.WithFields(logrus.Fields{
		"issue_id": issueID, "user_id": is.UserID, "book_id": is.BookID,
		"overdue_days": a.OverdueDays, "fine": a.FineAmount.StringFixed(2), "by": actor.UserID,
	}).Info("book returned")

	res := ReturnResponse{Issue: toIssueResponse(*is), Assessment: toAssessmentResponse(a)}
	if fine != nil {
		fr := fines.ToResponse(*fine)
		res.Fine = &fr
		if fine.Status.Unsettled() && fine.FineAmount.IsPositive() {
			notify.Send(ctx, s.notifier, is.UserID, "Fine assessed",
				fmt.Sprintf("A fine of %s was assessed for %d days overdue.",
					notify.FormatAmount(s.currency, fine.FineAmount), fine.DaysOverdue))
		}
	}
	return res, nil
}

// SweepOverdue は期限切れの貸出を overdue にし、今日時点の罰金で台帳を上書きする。
// 1件ずつ別トランザクション。失敗した分は数えて次へ進む。
func (s *Service) SweepOverdue(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now()
	today := clock.DateOf(now)
	res := SweepResult{RanAt: now}

	candidates, err := s.issues.ListOverdueCandidates(ctx, s.db, today)
	if err != nil {
		return res, s.wrap(err, "failed to list overdue issues")
	}
	policy := LoadPolicy(ctx, s.settings)

	var newlyOverdue []Issue
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Scanned++

		var transitioned, recorded bool
		err := s.tx.RunInTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			is, err := s.issues.Lock(ctx, tx, c.IssueID)
			if err != nil {
				return err
			}
			// 走査後に返却されたもの
			if !is.Status.Active() || is.ReturnDate != nil {
				return nil
			}
			transitioned, err = s.issues.MarkOverdue(ctx, tx, is.IssueID, now)
			if err != nil {
				return err
			}

			a := finecalc.Calculate(assessInput(*is), policy.Rates, today)
			existing, err := s.fines.FindByIssue(ctx, tx, is.IssueID)
			if err != nil {
				return err
			}
			if a.FineAmount.IsPositive() || existing != nil {
				if _, err := s.fines.Record(ctx, tx, a, fines.StatusOverdue); err != nil {
					return err
				}
				recorded = true
			}
			return nil
		})
		if err != nil {
			res.Failed++
			logger.Log.WithError(err).WithField("issue_id", c.IssueID).Error("overdue sweep: issue failed")
			continue
		}
		if transitioned {
			res.Transitioned++
			newlyOverdue = append(newlyOverdue, c)
		}
		if recorded {
			res.FinesRecorded++
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"scanned": res.Scanned, "transitioned": res.Transitioned,
		"fines": res.FinesRecorded, "failed": res.Failed,
	}).Info("overdue sweep finished")

	for _, is := range newlyOverdue {
		notify.Send(ctx, s.notifier, is.UserID, "Book overdue",
			fmt.Sprintf("%q was due on %s. Please return it as soon as possible.",
				s.bookTitle(ctx, is.BookID), is.DueDate.Format(clock.DateLayout)))
	}
	return res, nil
}

// PreviewFine: 副作用なしで asOf 時点の罰金を計算する。返却済みなら確定値と同じ
func (s *Service) PreviewFine(ctx context.Context, issueID string, asOf *string, actor auth.Actor) (AssessmentResponse, error) {
	at := clock.Today(s.clock)
	if asOf != nil && strings.TrimSpace(*asOf) != "" {
		d, err := time.Parse(clock.DateLayout, strings.TrimSpace(*asOf))
		if err != nil {
			return AssessmentResponse{}, apierr.ErrInvalid("as_of must be YYYY-MM-DD")
		}
		at = d
	}

	is, err := s.issues.Get(ctx, s.db, issueID)
	if err != nil {
		return AssessmentResponse{}, s.wrap(err, "failed to get issue")
	}
	if !actor.CanActFor(is.UserID) {
		return AssessmentResponse{}, errIssueNotFound()
	}
	if at.Before(clock.DateOf(is.IssueDate)) {
		return AssessmentResponse{}, apierr.New(apierr.CodeInvalidDateRange, "as_of is before the issue date")
	}

	policy := LoadPolicy(ctx, s.settings)
	return toAssessmentResponse(finecalc.Calculate(assessInput(*is), policy.Rates, at)), nil
}

func (s *Service) GetIssue(ctx context.Context, issueID string, actor auth.Actor) (IssueResponse, error) {
	is, err := s.issues.Get(ctx, s.db, issueID)
	if err != nil {
		return IssueResponse{}, s.wrap(err, "failed to get issue")
	}
	if !actor.CanActFor(is.UserID) {
		return IssueResponse{}, errIssueNotFound()
	}
	return toIssueResponse(*is), nil
}

func (s *Service) ListIssues(ctx context.Context, f IssueFilter, p page.Page) (ListIssuesResponse, error) {
	p = p.Normalize()
	if f.Status != nil {
		switch *f.Status {
		case StatusIssued, StatusOverdue, StatusReturned:
		default:
			return ListIssuesResponse{}, apierr.ErrInvalid("invalid status")
		}
	}
	rows, total, err := s.issues.List(ctx, s.db, f, p)
	if err != nil {
		return ListIssuesResponse{}, s.wrap(err, "failed to list issues")
	}
	items := make([]IssueResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, toIssueResponse(r))
	}
	return ListIssuesResponse{Items: items, Total: total, NextOffset: p.Next(total)}, nil
}

func assessInput(is Issue) finecalc.Input {
	return finecalc.Input{
		IssueID:    is.IssueID,
		UserID:     is.UserID,
		BookID:     is.BookID,
		Category:   is.Category,
		DueDate:    is.DueDate,
		ReturnDate: is.ReturnDate,
	}
}

// bookTitle: 通知文用。取れなければ book_id
func (s *Service) bookTitle(ctx context.Context, bookID string) string {
	b, err := s.catalog.Get(ctx, s.db, bookID)
	if err != nil || b == nil {
		return bookID
	}
	return b.Title
}

func (s *Service) wrap(err error, msg string) error {
	if apierr.CodeOf(err) != apierr.CodeInternal {
		return err
	}
	logger.Log.WithError(err).Error(msg)
	return apierr.ErrInternal(msg)
}
