package dto

import (
	"github.com/kenerlee/navix-server/internal/model"
)

// QuotaInfo 配额快照，/api/user/quota 与 /api/user/me 返回
type QuotaInfo struct {
	Limit       int     `json:"limit"`
	Used        int     `json:"used"`
	Remaining   int     `json:"remaining"` // -1 表示无限
	IsUnlimited bool    `json:"is_unlimited"`
	IsExpired   bool    `json:"is_expired"`
	Percentage  float64 `json:"percentage"`
	ResetDate   string  `json:"reset_date,omitempty"`
}

type UserSummary struct {
	ID            string `json:"id"`
	Email         string `json:"email,omitempty"`
	Mobile        string `json:"mobile,omitempty"`
	Level         string `json:"level"`
	Role          string `json:"role"`
	LevelExpireAt string `json:"level_expire_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// UpdateLevelRequest 管理员调整会员等级
type UpdateLevelRequest struct {
	Level      string `json:"level" binding:"required"`
	ExpireDays int    `json:"expire_days"`
}

// UpdateProfileRequest 用户自助修改资料，仅开放联系方式
type UpdateProfileRequest struct {
	Email  *string `json:"email" binding:"omitempty,email"`
	Mobile *string `json:"mobile"`
}

func (r *UpdateProfileRequest) ToUpdate() *model.ProfileUpdate {
	return &model.ProfileUpdate{
		Email:  r.Email,
		Mobile: r.Mobile,
	}
}
