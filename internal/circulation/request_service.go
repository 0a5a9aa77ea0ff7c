package circulation

import (
	"context"
	"fmt"
	"strings"

	"circulation-backend/internal/notify"
	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/auth"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/logger"
	"circulation-backend/internal/platform/page"
)

// CreateRequest: 利用者ごとの pending 上限と、同じ本への有効な申請は1件まで
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestRequest, actor auth.Actor) (RequestResponse, error) {
	bookID := strings.TrimSpace(in.BookID)
	if bookID == "" {
		return RequestResponse{}, apierr.ErrInvalid("book_id is required")
	}
	if in.RequestedDuration < 0 || in.RequestedDuration > MaxLoanDays {
		return RequestResponse{}, apierr.ErrInvalid(fmt.Sprintf("requested_duration must be between 0 and %d", MaxLoanDays))
	}
	prio := PriorityNormal
	switch Priority(strings.ToLower(strings.TrimSpace(in.Priority))) {
	case "", PriorityNormal:
	case PriorityHigh:
		prio = PriorityHigh
	default:
		return RequestResponse{}, apierr.ErrInvalid("priority must be normal or high")
	}

	policy := LoadPolicy(ctx, s.settings)
	now := s.clock.Now()
	r := BookRequest{
		RequestID:         s.id.NewULID(now),
		BookID:            bookID,
		UserID:            actor.UserID,
		Status:            RequestPending,
		RequestedDuration: in.RequestedDuration,
		Priority:          prio,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := s.catalog.GetAvailability(ctx, tx, bookID); err != nil {
			return err
		}
		n, err := s.requests.CountPending(ctx, tx, actor.UserID)
		if err != nil {
			return err
		}
		if n >= policy.MaxPendingRequests {
			return apierr.New(apierr.CodeRequestCapExceeded,
				fmt.Sprintf("%d of %d pending requests already open", n, policy.MaxPendingRequests))
		}
		dup, err := s.requests.HasActive(ctx, tx, actor.UserID, bookID)
		if err != nil {
			return err
		}
		if dup {
			return apierr.New(apierr.CodeDuplicateRequest, "an active request for this book already exists")
		}
		return s.requests.Insert(ctx, tx, &r)
	})
	if err != nil {
		return RequestResponse{}, s.wrap(err, "failed to create request")
	}
	logger.Log.WithField("request_id", r.RequestID).WithField("user_id", r.UserID).WithField("book_id", bookID).Info("book requested")
	return toRequestResponse(r), nil
}

// CancelRequest: 本人（または管理者）が pending の申請を取り消す
func (s *Service) CancelRequest(ctx context.Context, requestID string, actor auth.Actor) (RequestResponse, error) {
	return s.transition(ctx, requestID, RequestCancelled, nil, actor)
}

func (s *Service) ApproveRequest(ctx context.Context, requestID string, in ProcessRequestRequest, actor auth.Actor) (RequestResponse, error) {
	return s.transition(ctx, requestID, RequestApproved, in.AdminNotes, actor)
}

func (s *Service) RejectRequest(ctx context.Context, requestID string, in ProcessRequestRequest, actor auth.Actor) (RequestResponse, error) {
	return s.transition(ctx, requestID, RequestRejected, in.AdminNotes, actor)
}

func (s *Service) transition(ctx context.Context, requestID string, to RequestStatus, notes *string, actor auth.Actor) (RequestResponse, error) {
	now := s.clock.Now()
	var out *BookRequest
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r, err := s.requests.Lock(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !actor.CanActFor(r.UserID) {
			return errRequestNotFound()
		}
		if !canTransition(r.Status, to) {
			return apierr.New(apierr.CodeInvalidTransition, fmt.Sprintf("cannot move request from %s to %s", r.Status, to))
		}
		if err := s.requests.Transition(ctx, tx, requestID, r.Status, to, actor.UserID, notes, now); err != nil {
			return err
		}
		out, err = s.requests.Get(ctx, tx, requestID)
		return err
	})
	if err != nil {
		return RequestResponse{}, s.wrap(err, "failed to update request")
	}

	logger.Log.WithField("request_id", requestID).WithField("status", to).WithField("by", actor.UserID).Info("request updated")

	switch to {
	case RequestApproved:
		notify.Send(ctx, s.notifier, out.UserID, "Request approved",
			fmt.Sprintf("Your request for %q was approved. Collect it at the circulation desk.", s.bookTitle(ctx, out.BookID)))
	case RequestRejected:
		msg := fmt.Sprintf("Your request for %q was rejected.", s.bookTitle(ctx, out.BookID))
		if notes != nil && strings.TrimSpace(*notes) != "" {
			msg += " " + strings.TrimSpace(*notes)
		}
		notify.Send(ctx, s.notifier, out.UserID, "Request rejected", msg)
	case RequestCancelled:
		// 本人の取り消しは通知しない
		if actor.UserID != out.UserID {
			notify.Send(ctx, s.notifier, out.UserID, "Request cancelled",
				fmt.Sprintf("Your request for %q was cancelled by the library.", s.bookTitle(ctx, out.BookID)))
		}
	}
	return toRequestResponse(*out), nil
}

func (s *Service) ListRequests(ctx context.Context, f RequestFilter, p page.Page) (ListRequestsResponse, error) {
	p = p.Normalize()
	if f.Status != nil {
		switch *f.Status {
		case RequestPending, RequestApproved, RequestRejected, RequestFulfilled, RequestCancelled:
		default:
			return ListRequestsResponse{}, apierr.ErrInvalid("invalid status")
		}
	}
	rows, total, err := s.requests.List(ctx, s.db, f, p)
	if err != nil {
		return ListRequestsResponse{}, s.wrap(err, "failed to list requests")
	}
	items := make([]RequestResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, toRequestResponse(r))
	}
	return ListRequestsResponse{Items: items, Total: total, NextOffset: p.Next(total)}, nil
}
