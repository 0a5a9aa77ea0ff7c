package circulation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/page"
)

func TestCreateRequestCapAndDuplicate(t *testing.T) {
	fx := givenService(map[string]string{"max_pending_requests": "2"})
	ctx := context.Background()

	r, err := fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1"}, student)
	require.NoError(t, err)
	assert.Equal(t, RequestPending, r.Status)
	assert.Equal(t, PriorityNormal, r.Priority)
	assert.Equal(t, student.UserID, r.UserID)

	_, err = fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1"}, student)
	assert.True(t, apierr.Is(err, apierr.CodeDuplicateRequest), "got %v", err)

	_, err = fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b2", Priority: "HIGH"}, student)
	require.NoError(t, err)

	_, err = fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b3"}, student)
	assert.True(t, apierr.Is(err, apierr.CodeRequestCapExceeded), "got %v", err)

	// 他の利用者には影響しない
	_, err = fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1"}, other)
	assert.NoError(t, err)
}

func TestCreateRequestValidation(t *testing.T) {
	fx := givenService(nil)
	ctx := context.Background()

	_, err := fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "missing"}, student)
	assert.Equal(t, apierr.CodeNotFound, apierr.CodeOf(err))

	_, err = fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1", Priority: "urgent"}, student)
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))

	_, err = fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1", RequestedDuration: -1}, student)
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))
	assert.Empty(t, fx.requests.all())
}

func TestRequestTransitions(t *testing.T) {
	fx := givenService(nil)
	ctx := context.Background()
	r, err := fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1"}, student)
	require.NoError(t, err)

	notes := "collect by Friday"
	approved, err := fx.svc.ApproveRequest(ctx, r.RequestID, ProcessRequestRequest{AdminNotes: &notes}, librarian)
	require.NoError(t, err)
	assert.Equal(t, RequestApproved, approved.Status)
	assert.Equal(t, "lib01", *approved.ProcessedBy)
	assert.Equal(t, notes, *approved.AdminNotes)
	assert.Equal(t, "Request approved", (*fx.inbox)[len(*fx.inbox)-1].title)

	_, err = fx.svc.CancelRequest(ctx, r.RequestID, student)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidTransition), "got %v", err)
	_, err = fx.svc.RejectRequest(ctx, r.RequestID, ProcessRequestRequest{}, librarian)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidTransition), "got %v", err)

	// approved の間は同じ本を申請できない
	_, err = fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1"}, student)
	assert.True(t, apierr.Is(err, apierr.CodeDuplicateRequest), "got %v", err)
}

func TestCancelRequestOwnerOnly(t *testing.T) {
	fx := givenService(nil)
	ctx := context.Background()
	r, err := fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1"}, student)
	require.NoError(t, err)

	_, err = fx.svc.CancelRequest(ctx, r.RequestID, other)
	assert.Equal(t, apierr.CodeNotFound, apierr.CodeOf(err))

	res, err := fx.svc.CancelRequest(ctx, r.RequestID, student)
	require.NoError(t, err)
	assert.Equal(t, RequestCancelled, res.Status)
	assert.Empty(t, *fx.inbox)

	// 取り消し後は再申請できる
	_, err = fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1"}, student)
	assert.NoError(t, err)
}

func TestCancelByLibrarianNotifiesOwner(t *testing.T) {
	fx := givenService(nil)
	ctx := context.Background()
	r, err := fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b2"}, student)
	require.NoError(t, err)

	res, err := fx.svc.CancelRequest(ctx, r.RequestID, librarian)
	require.NoError(t, err)
	assert.Equal(t, RequestCancelled, res.Status)

	require.Len(t, *fx.inbox, 1)
	got := (*fx.inbox)[0]
	assert.Equal(t, student.UserID, got.userID)
	assert.Equal(t, "Request cancelled", got.title)
	assert.Contains(t, got.message, "Novel 2")
}

func TestRejectNotifiesWithNotes(t *testing.T) {
	fx := givenService(nil)
	ctx := context.Background()
	r, err := fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1"}, student)
	require.NoError(t, err)

	notes := "title withdrawn"
	res, err := fx.svc.RejectRequest(ctx, r.RequestID, ProcessRequestRequest{AdminNotes: &notes}, librarian)
	require.NoError(t, err)
	assert.Equal(t, RequestRejected, res.Status)

	last := (*fx.inbox)[len(*fx.inbox)-1]
	assert.Equal(t, student.UserID, last.userID)
	assert.Equal(t, "Request rejected", last.title)
	assert.Contains(t, last.message, "title withdrawn")
}

func TestIssueFulfilsApprovedRequest(t *testing.T) {
	fx := givenService(nil)
	ctx := context.Background()
	r, err := fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1", RequestedDuration: 7}, student)
	require.NoError(t, err)
	_, err = fx.svc.ApproveRequest(ctx, r.RequestID, ProcessRequestRequest{}, librarian)
	require.NoError(t, err)

	is := fx.issue(t, "b1", student.UserID)
	assert.Equal(t, "2026-03-09", is.DueDate)

	rows := fx.requests.all()
	require.Len(t, rows, 1)
	assert.Equal(t, RequestFulfilled, rows[0].Status)
	require.NotNil(t, rows[0].IssueID)
	assert.Equal(t, is.IssueID, *rows[0].IssueID)
}

func TestIssueFailureKeepsRequestApproved(t *testing.T) {
	fx := givenService(map[string]string{"max_books_per_user": "1"})
	ctx := context.Background()
	fx.issue(t, "b2", student.UserID)
	r, err := fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1"}, student)
	require.NoError(t, err)
	_, err = fx.svc.ApproveRequest(ctx, r.RequestID, ProcessRequestRequest{}, librarian)
	require.NoError(t, err)

	_, err = fx.svc.IssueBook(ctx, IssueBookRequest{BookID: "b1", UserID: student.UserID}, librarian)
	assert.True(t, apierr.Is(err, apierr.CodeBorrowLimitExceeded), "got %v", err)
	assert.Equal(t, RequestApproved, fx.requests.all()[0].Status)
}

func TestListRequests(t *testing.T) {
	fx := givenService(nil)
	ctx := context.Background()
	_, err := fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b1"}, student)
	require.NoError(t, err)
	_, err = fx.svc.CreateRequest(ctx, CreateRequestRequest{BookID: "b2"}, other)
	require.NoError(t, err)

	uid := other.UserID
	res, err := fx.svc.ListRequests(ctx, RequestFilter{UserID: &uid}, page.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, "b2", res.Items[0].BookID)
	assert.Nil(t, res.NextOffset)

	bad := RequestStatus("done")
	_, err = fx.svc.ListRequests(ctx, RequestFilter{Status: &bad}, page.Page{})
	assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err))
}
