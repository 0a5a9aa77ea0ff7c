package circulation

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/auth"
	"circulation-backend/internal/platform/page"
)

type Handler struct{ svc *Service }

// RegisterRoutes: ログイン済みなら誰でも（自分の貸出・申請）
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/me/issues", h.ListMyIssues)
	r.GET("/issues/:issue_id/fine-preview", h.PreviewFine)
	r.POST("/requests", h.CreateRequest)
	r.GET("/me/requests", h.ListMyRequests)
	r.POST("/requests/:request_id/cancel", h.CancelRequest)
}

// RegisterAdminRoutes: カウンタ業務
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/issues", h.IssueBook)
	r.POST("/issues/:issue_id/return", h.ReturnBook)
	r.GET("/issues", h.ListIssues)
	r.GET("/issues/:issue_id", h.GetIssue)
	r.POST("/sweep", h.Sweep)
	r.GET("/requests", h.ListRequests)
	r.POST("/requests/:request_id/approve", h.ApproveRequest)
	r.POST("/requests/:request_id/reject", h.RejectRequest)
}

func issueFilterFromQuery(c *gin.Context) IssueFilter {
	f := IssueFilter{}
	if v := c.Query("user_id"); v != "" {
		f.UserID = &v
	}
	if v := c.Query("book_id"); v != "" {
		f.BookID = &v
	}
	if v := c.Query("status"); v != "" {
		st := IssueStatus(v)
		f.Status = &st
	}
	return f
}

func requestFilterFromQuery(c *gin.Context) RequestFilter {
	f := RequestFilter{}
	if v := c.Query("user_id"); v != "" {
		f.UserID = &v
	}
	if v := c.Query("book_id"); v != "" {
		f.BookID = &v
	}
	if v := c.Query("status"); v != "" {
		st := RequestStatus(v)
		f.Status = &st
	}
	return f
}

// IssueBook godoc
// @Summary  貸出
// @Tags     issues
// @Accept   json
// @Produce  json
// @Param    body body IssueBookRequest true "book / user / loan days"
// @Success  201 {object} IssueResponse
// @Failure  409 {object} apierr.APIError "COPY_UNAVAILABLE / BORROW_LIMIT_EXCEEDED / ALREADY_ISSUED"
// @Router   /admin/issues [post]
func (h *Handler) IssueBook(c *gin.Context) {
	var req IssueBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "invalid json")
		return
	}
	res, err := h.svc.IssueBook(c.Request.Context(), req, auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ReturnBook godoc
// @Summary  返却（罰金はここで確定）
// @Tags     issues
// @Accept   json
// @Produce  json
// @Param    issue_id path string            true  "issue id"
// @Param    body     body ReturnBookRequest false "return_date (YYYY-MM-DD)"
// @Success  200 {object} ReturnResponse
// @Failure  409 {object} apierr.APIError "ALREADY_RETURNED"
// @Router   /admin/issues/{issue_id}/return [post]
func (h *Handler) ReturnBook(c *gin.Context) {
	var req ReturnBookRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.BadRequest(c, "invalid json")
			return
		}
	}
	res, err := h.svc.ReturnBook(c.Request.Context(), c.Param("issue_id"), req, auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListIssues(c *gin.Context) {
	res, err := h.svc.ListIssues(c.Request.Context(), issueFilterFromQuery(c), page.FromQuery(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListMyIssues(c *gin.Context) {
	f := issueFilterFromQuery(c)
	uid := auth.ActorFrom(c).UserID
	f.UserID = &uid
	res, err := h.svc.ListIssues(c.Request.Context(), f, page.FromQuery(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetIssue(c *gin.Context) {
	res, err := h.svc.GetIssue(c.Request.Context(), c.Param("issue_id"), auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PreviewFine godoc
// @Summary  現時点の罰金見込み（保存しない）
// @Tags     issues
// @Produce  json
// @Param    issue_id path  string true  "issue id"
// @Param    as_of    query string false "YYYY-MM-DD（既定は今日）"
// @Success  200 {object} AssessmentResponse
// @Router   /issues/{issue_id}/fine-preview [get]
func (h *Handler) PreviewFine(c *gin.Context) {
	var asOf *string
	if v, ok := c.GetQuery("as_of"); ok {
		asOf = &v
	}
	res, err := h.svc.PreviewFine(c.Request.Context(), c.Param("issue_id"), asOf, auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Sweep godoc
// @Summary  延滞スイープを今すぐ実行
// @Tags     issues
// @Produce  json
// @Success  200 {object} SweepResult
// @Router   /admin/sweep [post]
func (h *Handler) Sweep(c *gin.Context) {
	res, err := h.svc.SweepOverdue(c.Request.Context())
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CreateRequest godoc
// @Summary  取り寄せ・予約の申請
// @Tags     requests
// @Accept   json
// @Produce  json
// @Param    body body CreateRequestRequest true "book / duration / priority"
// @Success  201 {object} RequestResponse
// @Failure  409 {object} apierr.APIError "DUPLICATE_REQUEST / REQUEST_CAP_EXCEEDED"
// @Router   /requests [post]
func (h *Handler) CreateRequest(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "invalid json")
		return
	}
	res, err := h.svc.CreateRequest(c.Request.Context(), req, auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListMyRequests(c *gin.Context) {
	f := requestFilterFromQuery(c)
	uid := auth.ActorFrom(c).UserID
	f.UserID = &uid
	res, err := h.svc.ListRequests(c.Request.Context(), f, page.FromQuery(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListRequests(c *gin.Context) {
	res, err := h.svc.ListRequests(c.Request.Context(), requestFilterFromQuery(c), page.FromQuery(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CancelRequest(c *gin.Context) {
	res, err := h.svc.CancelRequest(c.Request.Context(), c.Param("request_id"), auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ApproveRequest(c *gin.Context) {
	h.process(c, h.svc.ApproveRequest)
}

func (h *Handler) RejectRequest(c *gin.Context) {
	h.process(c, h.svc.RejectRequest)
}

func (h *Handler) process(c *gin.Context, fn func(context.Context, string, ProcessRequestRequest, auth.Actor) (RequestResponse, error)) {
	var req ProcessRequestRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.BadRequest(c, "invalid json")
			return
		}
	}
	res, err := fn(c.Request.Context(), c.Param("request_id"), req, auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
