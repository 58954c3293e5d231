package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/leon37/Inkpost/internal/api/response"
)

// ContextUserID gin.Context 中保存当前用户 id 的 key
const ContextUserID = "userID"

// TokenVerifier 校验 Token 并返回 userId
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTAuth 鉴权中间件
// Authorization 头直接携带 token，兼容 "Bearer <token>" 写法
func JWTAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "Access Denied. No token provided.")
			return
		}

		tokenString := authHeader
		if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokenString = strings.TrimSpace(parts[1])
		}

		userID, err := verifier.Verify(tokenString)
		if err != nil {
			slog.Debug("token rejected", "path", c.FullPath(), "err", err)
			response.Abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}
