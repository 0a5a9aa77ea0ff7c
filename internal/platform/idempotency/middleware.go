package idempotency

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/auth"
	"circulation-backend/internal/platform/logger"
)

const (
	HeaderKey  = "Idempotency-Key"
	DefaultTTL = 24 * time.Hour
)

// Middleware は Idempotency-Key 付きの POST を一度だけ通す。
// キーは操作者とルート単位で予約し、処理が 2xx 以外で終わったら解放して再送を許す。
// ヘッダ無しはそのまま通す。ストア障害時も通す（WARN ログのみ）。
func Middleware(store Store, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderKey))
		if raw == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(raw) > 128 {
			apierr.BadRequest(c, "Idempotency-Key too long")
			return
		}

		key := scopedKey(c, raw)
		ok, err := store.Reserve(c.Request.Context(), key, ttl)
		if err != nil {
			logger.Log.WithError(err).WithField("key", key).Warn("idempotency store unavailable")
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict,
				apierr.Body(apierr.CodeDuplicateSubmission, "request with this Idempotency-Key was already submitted"))
			return
		}

		c.Next()

		if st := c.Writer.Status(); st < 200 || st >= 300 {
			// リクエストの ctx は終わっている可能性があるので切り離す
			if err := store.Release(context.WithoutCancel(c.Request.Context()), key); err != nil {
				logger.Log.WithError(err).WithField("key", key).Warn("idempotency release failed")
			}
		}
	}
}

func scopedKey(c *gin.Context, raw string) string {
	actor := auth.ActorFrom(c)
	return actor.UserID + "|" + c.Request.Method + " " + c.FullPath() + "|" + raw
}
