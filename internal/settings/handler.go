package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes: 管理者グループに載せる
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/settings", h.List)
	r.PUT("/settings/:key", h.Update)
}

// List godoc
// @Summary  実効設定の一覧
// @Tags     settings
// @Produce  json
// @Success  200 {array} SettingResponse
// @Router   /admin/settings [get]
func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context())
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Update godoc
// @Summary  設定値の更新
// @Tags     settings
// @Accept   json
// @Produce  json
// @Param    key  path string               true "setting key"
// @Param    body body UpdateSettingRequest true "value"
// @Success  200 {object} SettingResponse
// @Router   /admin/settings/{key} [put]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "invalid json")
		return
	}
	res, err := h.svc.Set(c.Request.Context(), c.Param("key"), req.Value, auth.ActorFrom(c).UserID)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
