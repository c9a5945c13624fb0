package model

import (
	"time"
)

// 邀请码来源
const (
	InviteKindAdmin = "admin"
	InviteKindUser  = "user"
)

// Invite 邀请码记录，一码一条
type Invite struct {
	Code      string     `json:"code"`
	Kind      string     `json:"kind"`
	CreatedBy string     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedBy    string     `json:"usedBy,omitempty"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
}

// IsUsed 是否已被激活
func (i *Invite) IsUsed() bool {
	return i.UsedBy != ""
}

// IsExpired 是否已过期
func (i *Invite) IsExpired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// IsActive 未使用且未过期
func (i *Invite) IsActive(now time.Time) bool {
	return !i.IsUsed() && !i.IsExpired(now)
}

// InviteStats 用户邀请码统计
type InviteStats struct {
	TotalCreated int `json:"totalCreated"`
	TotalUsed    int `json:"totalUsed"`
	Available    int `json:"available"`
}
