package model

import (
	"time"
)

// 会员等级，决定配额额度
const (
	LevelFree  = "free"
	LevelPro   = "pro"
	LevelVIP   = "vip"
	LevelAdmin = "admin"
)

// 访问角色，决定路由权限（与会员等级相互独立）
const (
	RoleGuest = "guest"
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// QuotaUnlimited 无限配额的哨兵值
const QuotaUnlimited = -1

// AnonymousID 未登录用户共用的档案 ID
const AnonymousID = "anonymous"

// UserProfile 用户档案，每个认证身份一条记录
type UserProfile struct {
	ID     string `json:"id"`
	Email  string `json:"email,omitempty"`
	Mobile string `json:"mobile,omitempty"`
	Level  string `json:"level"`
	Role   string `json:"role"`

	QuotaLimit     int        `json:"quota_limit"` // -1 表示无限
	QuotaUsed      int        `json:"quota_used"`
	QuotaResetDate *time.Time `json:"quota_reset_date,omitempty"`
	LevelExpireAt  *time.Time `json:"level_expire_at,omitempty"`

	InvitedBy      string `json:"invited_by,omitempty"`
	InviteCodeUsed string `json:"invite_code_used,omitempty"`

	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsUnlimited 是否无限配额
func (p *UserProfile) IsUnlimited() bool {
	return p.QuotaLimit == QuotaUnlimited
}

// IsLevelExpired 付费会员是否已过期
func (p *UserProfile) IsLevelExpired(now time.Time) bool {
	if p.Level == LevelFree || p.Level == LevelAdmin {
		return false
	}
	return p.LevelExpireAt != nil && p.LevelExpireAt.Before(now)
}

// ValidLevel 判断等级取值是否合法
func ValidLevel(level string) bool {
	switch level {
	case LevelFree, LevelPro, LevelVIP, LevelAdmin:
		return true
	}
	return false
}

// ProfileUpdate 部分更新，nil 字段表示不修改
type ProfileUpdate struct {
	Email          *string
	Mobile         *string
	Level          *string
	Role           *string
	QuotaLimit     *int
	QuotaUsed      *int
	QuotaResetDate **time.Time
	LevelExpireAt  **time.Time
	InvitedBy      *string
	InviteCodeUsed *string
	PasswordHash   *string
}
