package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kenerlee/navix-server/internal/model"
)

const (
	invitesAllKey = "invites:all"
)

func inviteKey(code string) string {
	return "invite:" + code
}

func userInvitesKey(userID string) string {
	return "user:invites:" + userID
}

func userInvitesActiveKey(userID string) string {
	return "user:invites:active:" + userID
}

type InviteRepository struct {
	rdb *redis.Client
}

func NewInviteRepository(rdb *redis.Client) *InviteRepository {
	return &InviteRepository{rdb: rdb}
}

// Exists 码是否已被占用
func (r *InviteRepository) Exists(ctx context.Context, code string) (bool, error) {
	n, err := r.rdb.Exists(ctx, inviteKey(code)).Result()
	return n > 0, err
}

// Create 写入邀请码并维护索引；用户邀请码同时计入创建者的未使用计数
func (r *InviteRepository) Create(ctx context.Context, inv *model.Invite) error {
	score := float64(inv.CreatedAt.UnixMilli())

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, inviteKey(inv.Code), serializeInvite(inv))
	pipe.ZAdd(ctx, invitesAllKey, &redis.Z{Score: score, Member: inv.Code})
	if inv.Kind == model.InviteKindUser {
		pipe.ZAdd(ctx, userInvitesKey(inv.CreatedBy), &redis.Z{Score: score, Member: inv.Code})
		pipe.Incr(ctx, userInvitesActiveKey(inv.CreatedBy))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Get 返回邀请码记录，不存在时返回 (nil, nil)
func (r *InviteRepository) Get(ctx context.Context, code string) (*model.Invite, error) {
	data, err := r.rdb.HGetAll(ctx, inviteKey(code)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return parseInvite(data), nil
}

// ClaimUse 原子地把邀请码标记为已使用。
// 依赖 HSETNX：并发激活时只有第一个调用者成功。
func (r *InviteRepository) ClaimUse(ctx context.Context, code, userID string, usedAt time.Time) (bool, error) {
	ok, err := r.rdb.HSetNX(ctx, inviteKey(code), "usedBy", userID).Result()
	if err != nil || !ok {
		return false, err
	}
	err = r.rdb.HSet(ctx, inviteKey(code), "usedAt", usedAt.Format(time.RFC3339)).Err()
	return true, err
}

// ListAll 全量邀请码，按创建时间倒序
func (r *InviteRepository) ListAll(ctx context.Context) ([]*model.Invite, error) {
	codes, err := r.rdb.ZRevRange(ctx, invitesAllKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, codes)
}

// ListByCreator 某用户签发的邀请码，按创建时间倒序
func (r *InviteRepository) ListByCreator(ctx context.Context, userID string) ([]*model.Invite, error) {
	codes, err := r.rdb.ZRevRange(ctx, userInvitesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, codes)
}

// ActiveCount 用户当前未使用且未过期的邀请码数量（维护型计数器）
func (r *InviteRepository) ActiveCount(ctx context.Context, userID string) (int, error) {
	n, err := r.rdb.Get(ctx, userInvitesActiveKey(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// ReleaseSlot 归还创建者的一个未使用名额（激活或过期时各调用一次）。
// slotReleased 哨兵字段保证同一个码只归还一次。
func (r *InviteRepository) ReleaseSlot(ctx context.Context, inv *model.Invite) error {
	if inv.Kind != model.InviteKindUser {
		return nil
	}

	first, err := r.rdb.HSetNX(ctx, inviteKey(inv.Code), "slotReleased", "1").Result()
	if err != nil || !first {
		return err
	}

	n, err := r.rdb.Decr(ctx, userInvitesActiveKey(inv.CreatedBy)).Result()
	if err != nil {
		return err
	}
	if n < 0 {
		return r.rdb.Set(ctx, userInvitesActiveKey(inv.CreatedBy), 0, 0).Err()
	}
	return nil
}

// SlotReleased 名额是否已归还过
func (r *InviteRepository) SlotReleased(ctx context.Context, code string) (bool, error) {
	v, err := r.rdb.HGet(ctx, inviteKey(code), "slotReleased").Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

// ListCreatorIDs 所有签发过用户邀请码的用户（供过期清扫使用）
func (r *InviteRepository) ListCreatorIDs(ctx context.Context) ([]string, error) {
	var (
		cursor   uint64
		creators []string
	)
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, "user:invites:*", 200).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			// 跳过计数器键 user:invites:active:*
			id := key[len("user:invites:"):]
			if len(id) > len("active:") && id[:len("active:")] == "active:" {
				continue
			}
			creators = append(creators, id)
		}
		cursor = next
		if cursor == 0 {
			return creators, nil
		}
	}
}

func (r *InviteRepository) collect(ctx context.Context, codes []string) ([]*model.Invite, error) {
	invites := make([]*model.Invite, 0, len(codes))
	for _, code := range codes {
		inv, err := r.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		if inv != nil {
			invites = append(invites, inv)
		}
	}
	return invites, nil
}

func serializeInvite(inv *model.Invite) map[string]interface{} {
	m := map[string]interface{}{
		"code":      inv.Code,
		"kind":      inv.Kind,
		"createdBy": inv.CreatedBy,
		"createdAt": inv.CreatedAt.Format(time.RFC3339),
		"expiresAt": inv.ExpiresAt.Format(time.RFC3339),
	}
	if inv.UsedBy != "" {
		m["usedBy"] = inv.UsedBy
	}
	if inv.UsedAt != nil {
		m["usedAt"] = inv.UsedAt.Format(time.RFC3339)
	}
	return m
}

func parseInvite(data map[string]string) *model.Invite {
	inv := &model.Invite{
		Code:      data["code"],
		Kind:      data["kind"],
		CreatedBy: data["createdBy"],
		UsedBy:    data["usedBy"],
	}
	inv.CreatedAt = parseTime(data["createdAt"])
	inv.ExpiresAt = parseTime(data["expiresAt"])
	inv.UsedAt = parseTimePtr(data["usedAt"])
	return inv
}
