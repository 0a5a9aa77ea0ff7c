package idempotency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circulation-backend/internal/platform/auth"
)

func newRouter(store Store, status *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.CtxUserIDKey, c.GetHeader("X-Test-User"))
		c.Next()
	})
	r.POST("/issues", Middleware(store, time.Hour), func(c *gin.Context) {
		c.Status(*status)
	})
	return r
}

func post(r *gin.Engine, user, key string) int {
	req := httptest.NewRequest(http.MethodPost, "/issues", nil)
	req.Header.Set("X-Test-User", user)
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestMiddlewareRejectsReplay(t *testing.T) {
	status := http.StatusCreated
	r := newRouter(NewMemoryStore(), &status)

	assert.Equal(t, http.StatusCreated, post(r, "lib01", "k-1"))
	assert.Equal(t, http.StatusConflict, post(r, "lib01", "k-1"))
	// 別の操作者なら別キー
	assert.Equal(t, http.StatusCreated, post(r, "lib02", "k-1"))
	// ヘッダ無しは素通し
	assert.Equal(t, http.StatusCreated, post(r, "lib01", ""))
	assert.Equal(t, http.StatusCreated, post(r, "lib01", ""))
}

func TestMiddlewareReleasesOnFailure(t *testing.T) {
	status := http.StatusConflict
	r := newRouter(NewMemoryStore(), &status)

	assert.Equal(t, http.StatusConflict, post(r, "lib01", "k-2"))

	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, post(r, "lib01", "k-2"))
	assert.Equal(t, http.StatusConflict, post(r, "lib01", "k-2"))
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := s.Reserve(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = s.Reserve(ctx, "a", time.Minute)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = s.Reserve(ctx, "a", time.Minute)
	assert.True(t, ok)
}
