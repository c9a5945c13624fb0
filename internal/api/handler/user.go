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

type UserHandler struct {
	profileService *service.ProfileService
	inviteService  *service.InviteService
}

func NewUserHandler(profileService *service.ProfileService, inviteService *service.InviteService) *UserHandler {
	return &UserHandler{
		profileService: profileService,
		inviteService:  inviteService,
	}
}

// Me 当前用户概要 + 配额快照
// GET /api/user/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		logrus.WithError(err).Error("获取用户信息失败")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{
		"user":  h.profileService.Summary(profile),
		"quota": h.profileService.QuotaInfo(profile),
	})
}

// Quota 配额快照
// GET /api/user/quota 与 GET /api/user/usage 共用
func (h *UserHandler) Quota(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"quota": h.profileService.QuotaInfo(profile)})
}

// UpdateProfile 更新个人资料
// PUT /api/user/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), userID, req.ToUpdate())
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"user": h.profileService.Summary(profile)})
}

// ListInvites 我的邀请码列表与统计
// GET /api/user/invites
func (h *UserHandler) ListInvites(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	invites, stats, err := h.inviteService.ListMine(c.Request.Context(), userID)
	if err != nil {
		logrus.WithError(err).Error("获取邀请码列表失败")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"invites": invites, "stats": stats})
}

// CreateInvite 生成一个新邀请码（受可用上限约束）
// POST /api/user/invites
func (h *UserHandler) CreateInvite(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	invite, err := h.inviteService.CreateUserInvite(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteLimit):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrNotActivated):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		default:
			logrus.WithError(err).Error("生成邀请码失败")
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{"invite": invite})
}
