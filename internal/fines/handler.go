package fines

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/auth"
	"circulation-backend/internal/platform/page"
)

type Handler struct{ svc *Service }

// RegisterRoutes: 学生向け（自分の罰金）
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/me/fines", h.ListMine)
	r.GET("/me/fines/:fine_id", h.Get)
}

func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/fines", h.List)
	r.GET("/fines/stats", h.Stats)
	r.GET("/fines/:fine_id", h.Get)
	r.POST("/fines/:fine_id/pay", h.Pay)
	r.POST("/fines/:fine_id/waive", h.Waive)
	r.POST("/fines/:fine_id/remind", h.Remind)
}

func filterFromQuery(c *gin.Context) Filter {
	f := Filter{}
	if v := c.Query("user_id"); v != "" {
		f.UserID = &v
	}
	if v := c.Query("book_id"); v != "" {
		f.BookID = &v
	}
	if v := c.Query("status"); v != "" {
		st := Status(v)
		f.Status = &st
	}
	return f
}

// List godoc
// @Summary  罰金一覧
// @Tags     fines
// @Produce  json
// @Param    user_id query string false "user"
// @Param    status  query string false "pending|overdue|paid|waived"
// @Success  200 {object} ListFinesResponse
// @Router   /admin/fines [get]
func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), filterFromQuery(c), page.FromQuery(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListMine(c *gin.Context) {
	f := filterFromQuery(c)
	uid := auth.ActorFrom(c).UserID
	f.UserID = &uid
	res, err := h.svc.List(c.Request.Context(), f, page.FromQuery(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("fine_id"), auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Stats(c *gin.Context) {
	res, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Pay godoc
// @Summary  罰金の支払い（窓口での現金等）
// @Tags     fines
// @Accept   json
// @Produce  json
// @Param    fine_id path string     true "fine id"
// @Param    body    body PayRequest false "method / notes"
// @Success  200 {object} FineResponse
// @Failure  409 {object} apierr.APIError "FINE_ALREADY_SETTLED"
// @Router   /admin/fines/{fine_id}/pay [post]
func (h *Handler) Pay(c *gin.Context) {
	var req PayRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.BadRequest(c, "invalid json")
			return
		}
	}
	res, err := h.svc.Pay(c.Request.Context(), c.Param("fine_id"), req, auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Waive(c *gin.Context) {
	var req WaiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "reason is required")
		return
	}
	res, err := h.svc.Waive(c.Request.Context(), c.Param("fine_id"), req, auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Remind(c *gin.Context) {
	res, err := h.svc.SendReminder(c.Request.Context(), c.Param("fine_id"), auth.ActorFrom(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
