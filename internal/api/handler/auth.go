package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/internal/api/middleware"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/pkg/response"
	"github.com/kenerlee/navix-server/internal/service"
)

type AuthHandler struct {
	authService   *service.AuthService
	inviteService *service.InviteService
}

func NewAuthHandler(authService *service.AuthService, inviteService *service.InviteService) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		inviteService: inviteService,
	}
}

// Register 邮箱注册
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrInviteNotFound),
			errors.Is(err, service.ErrInviteUsed),
			errors.Is(err, service.ErrInviteExpired):
			response.ParamError(c, err.Error())
		default:
			logrus.WithError(err).Error("注册失败")
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{"token": resp.Token, "user": resp.User})
}

// Login 邮箱登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.AuthError(c, err.Error())
			return
		}
		logrus.WithError(err).Error("登录失败")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"token": resp.Token, "user": resp.User})
}

// GetCaptcha 获取图形验证码
// GET /api/auth/captcha
func (h *AuthHandler) GetCaptcha(c *gin.Context) {
	challenge, err := h.authService.IssueCaptcha(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("生成图形验证码失败")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{
		"captcha_id": challenge.ID,
		"svg":        challenge.SVG,
	})
}

// VerifyCaptcha 校验图形验证码，换取短信发送令牌
// POST /api/auth/captcha
func (h *AuthHandler) VerifyCaptcha(c *gin.Context) {
	var req dto.CaptchaVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	token, err := h.authService.VerifyCaptcha(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCaptcha) {
			response.ParamError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"captcha_token": token})
}

// SendSMS 发送短信验证码
// POST /api/auth/sms/send
func (h *AuthHandler) SendSMS(c *gin.Context) {
	var req dto.SMSSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.authService.SendOTP(c.Request.Context(), &req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhone),
			errors.Is(err, service.ErrInvalidCaptcha):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrOTPCooldown):
			response.ParamError(c, err.Error())
		default:
			logrus.WithError(err).Error("短信发送失败")
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{"message": "验证码已发送"})
}

// VerifySMS 校验短信验证码并登录（未注册则自动建号）
// POST /api/auth/sms/verify
func (h *AuthHandler) VerifySMS(c *gin.Context) {
	var req dto.SMSVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.VerifyOTP(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhone),
			errors.Is(err, service.ErrInvalidOTP):
			response.ParamError(c, err.Error())
		default:
			logrus.WithError(err).Error("短信登录失败")
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{"token": resp.Token, "user": resp.User})
}

// ValidateInvite 校验邀请码（公开，不落座）
// POST /api/auth/invite/validate
func (h *AuthHandler) ValidateInvite(c *gin.Context) {
	var req dto.ValidateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	invite, err := h.inviteService.Validate(c.Request.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound),
			errors.Is(err, service.ErrInviteUsed),
			errors.Is(err, service.ErrInviteExpired):
			// 无效邀请码对外仍是 200，valid=false 带原因
			response.Success(c, gin.H{"valid": false, "error": err.Error()})
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{"valid": true, "code": invite.Code})
}

// ActivateInvite 使用邀请码激活当前账号
// POST /api/auth/invite/activate
func (h *AuthHandler) ActivateInvite(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.ActivateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	profile, err := h.inviteService.Activate(c.Request.Context(), req.Code, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound),
			errors.Is(err, service.ErrInviteUsed),
			errors.Is(err, service.ErrInviteExpired),
			errors.Is(err, service.ErrAlreadyActivated):
			response.ParamError(c, err.Error())
		default:
			logrus.WithError(err).Error("邀请码激活失败")
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{"user": profile})
}

// BootstrapAdmin 持引导令牌将当前账号提升为管理员
// POST /api/auth/bootstrap-admin
func (h *AuthHandler) BootstrapAdmin(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.BootstrapAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	profile, err := h.authService.BootstrapAdmin(c.Request.Context(), userID, req.Token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBootstrap) {
			response.PermissionError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"user": profile})
}
