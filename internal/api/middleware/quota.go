package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/pkg/response"
	"github.com/kenerlee/navix-server/internal/service"
)

// Quota 对话配额闸门。上下文没有用户 ID 时按匿名身份检查，
// 只拦截，不扣减；扣减在对话成功结束后由业务层完成。
func Quota(quota *service.QuotaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 未登录请求共用匿名身份
		userID, ok := GetUserID(c)
		if !ok {
			userID = model.AnonymousID
		}

		result, err := quota.CheckQuota(c.Request.Context(), userID)
		if err != nil {
			if err == service.ErrUserNotFound {
				response.AuthError(c, "")
			} else {
				response.ServerError(c, "配额检查失败")
			}
			c.Abort()
			return
		}

		if !result.Allowed {
			if result.IsExpired {
				response.QuotaError(c, "会员已到期，请续费后继续使用")
			} else {
				response.QuotaError(c, "")
			}
			c.Abort()
			return
		}

		c.Next()
	}
}
