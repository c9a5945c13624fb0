package testutil

import (
	"fmt"
	"time"

	"github.com/kenerlee/navix-server/internal/model"
)

var fixtureSeq int64

func nextSeq() int64 {
	fixtureSeq++
	return fixtureSeq
}

// NewProfile 构造测试用户档案，可通过选项函数覆盖字段
func NewProfile(opts ...func(*model.UserProfile)) *model.UserProfile {
	seq := nextSeq()
	now := time.Now()
	p := &model.UserProfile{
		ID:         fmt.Sprintf("user_%d_%d", now.UnixNano(), seq),
		Email:      fmt.Sprintf("test_%d@example.com", seq),
		Level:      model.LevelFree,
		Role:       model.RoleUser,
		QuotaLimit: 3,
		QuotaUsed:  0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithLevel 设置会员等级并按默认配额填充上限
func WithLevel(level string) func(*model.UserProfile) {
	return func(p *model.UserProfile) {
		p.Level = level
		switch level {
		case model.LevelPro:
			p.QuotaLimit = 20
		case model.LevelVIP:
			p.QuotaLimit = 100
		case model.LevelAdmin:
			p.QuotaLimit = model.QuotaUnlimited
		default:
			p.QuotaLimit = 3
		}
	}
}

// WithRole 设置角色
func WithRole(role string) func(*model.UserProfile) {
	return func(p *model.UserProfile) {
		p.Role = role
	}
}

// WithMobile 设置手机号
func WithMobile(mobile string) func(*model.UserProfile) {
	return func(p *model.UserProfile) {
		p.Mobile = mobile
	}
}

// WithQuotaUsed 设置已用配额
func WithQuotaUsed(used int) func(*model.UserProfile) {
	return func(p *model.UserProfile) {
		p.QuotaUsed = used
	}
}

// WithLevelExpireAt 设置会员到期时间
func WithLevelExpireAt(at time.Time) func(*model.UserProfile) {
	return func(p *model.UserProfile) {
		p.LevelExpireAt = &at
	}
}

// NewInvite 构造测试邀请码
func NewInvite(createdBy string, opts ...func(*model.Invite)) *model.Invite {
	seq := nextSeq()
	now := time.Now()
	inv := &model.Invite{
		Code:      fmt.Sprintf("TESTCD%02d", seq%100),
		Kind:      model.InviteKindAdmin,
		CreatedBy: createdBy,
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// WithKind 设置邀请码来源
func WithKind(kind string) func(*model.Invite) {
	return func(inv *model.Invite) {
		inv.Kind = kind
	}
}

// WithCode 指定邀请码
func WithCode(code string) func(*model.Invite) {
	return func(inv *model.Invite) {
		inv.Code = code
	}
}

// WithExpiresAt 设置过期时间
func WithExpiresAt(at time.Time) func(*model.Invite) {
	return func(inv *model.Invite) {
		inv.ExpiresAt = at
	}
}

// WithUsedBy 标记为已使用
func WithUsedBy(userID string) func(*model.Invite) {
	return func(inv *model.Invite) {
		now := time.Now()
		inv.UsedBy = userID
		inv.UsedAt = &now
	}
}
