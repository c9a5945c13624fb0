package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/pkg/response"
	"github.com/kenerlee/navix-server/internal/service"
)

// Admin 管理员校验中间件，必须排在 Auth 之后
func Admin(profiles *service.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		p, err := profiles.Get(c.Request.Context(), userID)
		if err != nil {
			if err == service.ErrUserNotFound {
				response.AuthError(c, "")
			} else {
				response.ServerError(c, "")
			}
			c.Abort()
			return
		}

		if p.Role != model.RoleAdmin {
			response.PermissionError(c, "需要管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// Activated 激活用户校验中间件：guest 角色不得访问核心功能
func Activated(profiles *service.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		p, err := profiles.Get(c.Request.Context(), userID)
		if err != nil {
			if err == service.ErrUserNotFound {
				response.AuthError(c, "")
			} else {
				response.ServerError(c, "")
			}
			c.Abort()
			return
		}

		if p.Role == model.RoleGuest {
			response.PermissionError(c, "请先使用邀请码激活账号")
			c.Abort()
			return
		}

		c.Next()
	}
}
