package circulation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circulation-backend/internal/platform/auth"
)

func newTestRouter(fx fixture, actor auth.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.CtxUserIDKey, actor.UserID)
		c.Set(auth.CtxRoleKey, actor.Role)
		c.Next()
	})
	RegisterRoutes(r, fx.svc)
	RegisterAdminRoutes(r.Group("/admin"), fx.svc)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerIssueAndReturn(t *testing.T) {
	fx := givenService(nil)
	r := newTestRouter(fx, librarian)

	w := doJSON(r, http.MethodPost, "/admin/issues", `{"book_id":"b1","user_id":"s1001"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"due_date":"2026-03-16"`)

	issueID := fx.issues.all()[0].IssueID
	fx.clock.AddDays(19)

	w = doJSON(r, http.MethodPost, "/admin/issues/"+issueID+"/return", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"fine_amount":"3.00"`)

	w = doJSON(r, http.MethodPost, "/admin/issues/"+issueID+"/return", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_RETURNED")
}

func TestHandlerErrorsMapToStatus(t *testing.T) {
	fx := givenService(nil)
	r := newTestRouter(fx, librarian)

	w := doJSON(r, http.MethodPost, "/admin/issues", `{"book_id":"none","user_id":"s1001"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "COPY_UNAVAILABLE")

	w = doJSON(r, http.MethodPost, "/admin/issues", `{"book_id":"b1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/admin/issues/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ISSUE_NOT_FOUND")
}

func TestHandlerStudentRequests(t *testing.T) {
	fx := givenService(nil)
	r := newTestRouter(fx, student)

	w := doJSON(r, http.MethodPost, "/requests", `{"book_id":"b1","priority":"high"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"priority":"high"`)

	w = doJSON(r, http.MethodPost, "/requests", `{"book_id":"b1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_REQUEST")

	w = doJSON(r, http.MethodGet, "/me/requests", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	id := fx.requests.all()[0].RequestID
	w = doJSON(r, http.MethodPost, "/requests/"+id+"/cancel", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)
}

func TestHandlerSweep(t *testing.T) {
	fx := givenService(nil)
	fx.issue(t, "b1", student.UserID)
	fx.clock.AddDays(20)
	r := newTestRouter(fx, librarian)

	w := doJSON(r, http.MethodPost, "/admin/sweep", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"transitioned":1`)
	assert.Contains(t, w.Body.String(), `"fines_recorded":1`)
}
