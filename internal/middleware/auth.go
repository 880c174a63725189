package middleware

import (
	"net/http"
	"strings"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 只接受有效的 access 令牌，缺失/过期/类型不符一律 401，
// 绝不降级为匿名访问
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			util.Fail(c, http.StatusUnauthorized, util.CodeUnauthorized, "Authentication credentials were not provided")
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil || claims.TokenType != util.TokenTypeAccess {
			util.Fail(c, http.StatusUnauthorized, util.CodeInvalidToken, "Token is invalid or expired")
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// StaffMiddleware 仅限 staff 账号的管理接口
func StaffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !claims.IsStaff {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
