package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrInvalid("bad"), http.StatusBadRequest},
		{New(CodeInvalidDateRange, "bad range"), http.StatusBadRequest},
		{ErrForbidden("no"), http.StatusForbidden},
		{New(CodeIssueNotFound, "missing"), http.StatusNotFound},
		{New(CodeBorrowLimitExceeded, "limit"), http.StatusConflict},
		{New(CodeFineAlreadySettled, "settled"), http.StatusConflict},
		{fmt.Errorf("wrapped: %w", New(CodeCopyUnavailable, "none")), http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToHTTPStatus(tc.err), tc.err.Error())
	}
}

func TestFromErr_HidesInternalDetail(t *testing.T) {
	body := FromErr(errors.New("dial tcp 10.0.0.1:3306: connection refused"))
	assert.Equal(t, CodeInternal, body.Error.Code)
	assert.Equal(t, "internal error", body.Error.Message)

	body = FromErr(New(CodeDuplicateRequest, "already requested"))
	assert.Equal(t, CodeDuplicateRequest, body.Error.Code)
	assert.Equal(t, "already requested", body.Error.Message)
}

func TestIsAndCodeOf(t *testing.T) {
	err := fmt.Errorf("issue: %w", New(CodeAlreadyReturned, "returned"))
	assert.True(t, Is(err, CodeAlreadyReturned))
	assert.False(t, Is(err, CodeConflict))
	assert.Equal(t, CodeAlreadyReturned, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("x")))
}
