package auth

import (
	"net/http"
	"strings"

	"circulation-backend/internal/platform/apierr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

// Actor はリクエスト単位の操作者。サービス層にはこれを明示的に渡す
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanActFor: 管理者か本人のみ
func (a Actor) CanActFor(userID string) bool { return a.IsAdmin() || a.UserID == userID }

// ActorFrom は RequireAuth が詰めた値から Actor を組み立てる
func ActorFrom(c *gin.Context) Actor {
	return Actor{UserID: c.GetString(CtxUserIDKey), Role: c.GetString(CtxRoleKey)}
}

// RequireAuth: Authorization: Bearer <token> を検証して context に sub/role を詰める
// ブラウザの WebSocket はヘッダを付けられないので ?token= も受け付ける
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthorized, "missing or invalid Authorization header"))
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			// alg 固定（none攻撃とか回避）
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || token == nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthorized, "invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthorized, "invalid claims"))
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthorized, "invalid sub"))
			return
		}
		role, _ := claims["role"].(string)

		c.Set(CtxUserIDKey, sub)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		if q := strings.TrimSpace(c.Query("token")); q != "" {
			return q, true
		}
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tokenStr := strings.TrimSpace(parts[1])
	return tokenStr, tokenStr != ""
}

// RequireRole: 例) admin のみ許可したい時に追加
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, apierr.Body(apierr.CodeForbidden, "missing role"))
			return
		}
		if _, allowed := roleSet[role]; !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, apierr.Body(apierr.CodeForbidden, "forbidden"))
			return
		}
		c.Next()
	}
}
