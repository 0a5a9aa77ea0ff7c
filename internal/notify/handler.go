package notify

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/auth"
	"circulation-backend/internal/platform/logger"
	"circulation-backend/internal/platform/page"
)

type Handler struct {
	inbox *Inbox
	hub   *Hub
}

func RegisterRoutes(r gin.IRoutes, inbox *Inbox, hub *Hub) {
	h := &Handler{inbox: inbox, hub: hub}
	r.GET("/me/notifications", h.ListMine)
	r.POST("/notifications/:notification_id/read", h.MarkRead)
	if hub != nil {
		r.GET("/ws", h.Connect)
	}
}

func (h *Handler) ListMine(c *gin.Context) {
	actor := auth.ActorFrom(c)
	unreadOnly := c.Query("unread") == "true" || c.Query("unread") == "1"
	res, err := h.inbox.List(c.Request.Context(), actor.UserID, unreadOnly, page.FromQuery(c))
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", actor.UserID).Error("list notifications failed")
		apierr.Abort(c, apierr.ErrInternal("failed to list notifications"))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MarkRead(c *gin.Context) {
	actor := auth.ActorFrom(c)
	if err := h.inbox.MarkRead(c.Request.Context(), c.Param("notification_id"), actor.UserID); err != nil {
		if apierr.CodeOf(err) == apierr.CodeInternal {
			logger.Log.WithError(err).Error("mark notification read failed")
		}
		apierr.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Connect: GET /ws?token=... （ブラウザは Authorization ヘッダを付けられない）
func (h *Handler) Connect(c *gin.Context) {
	actor := auth.ActorFrom(c)
	if err := h.hub.Serve(c.Writer, c.Request, actor.UserID); err != nil {
		// Upgrade 失敗時は upgrader がレスポンスを書いている
		logger.Log.WithError(err).WithField("user_id", actor.UserID).Warn("ws: connect failed")
	}
}
