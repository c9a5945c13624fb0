package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kenerlee/navix-server/internal/model"
)

// Redis key 规划
const (
	profilesAllKey = "user:profiles:all"
)

func profileKey(userID string) string {
	return "user:profile:" + userID
}

func mobileIndexKey(mobile string) string {
	return "user:profile:mobile:" + mobile
}

func emailIndexKey(email string) string {
	return "user:profile:email:" + email
}

type ProfileRepository struct {
	rdb *redis.Client
}

func NewProfileRepository(rdb *redis.Client) *ProfileRepository {
	return &ProfileRepository{rdb: rdb}
}

// Get 返回档案，不存在时返回 (nil, nil)
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	data, err := r.rdb.HGetAll(ctx, profileKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return parseProfile(data), nil
}

// Create 写入新档案并加入全局索引
func (r *ProfileRepository) Create(ctx context.Context, p *model.UserProfile) error {
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, profileKey(p.ID), serializeProfile(p))
	pipe.ZAdd(ctx, profilesAllKey, &redis.Z{
		Score:  float64(p.CreatedAt.UnixMilli()),
		Member: p.ID,
	})
	if p.Mobile != "" {
		pipe.HSet(ctx, mobileIndexKey(p.Mobile), "userId", p.ID)
	}
	if p.Email != "" {
		pipe.HSet(ctx, emailIndexKey(p.Email), "userId", p.ID)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Save 覆盖写整条档案；联系方式变化时迁移对应索引
func (r *ProfileRepository) Save(ctx context.Context, p *model.UserProfile, oldMobile, oldEmail string) error {
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, profileKey(p.ID), serializeProfile(p))
	if p.Mobile != oldMobile {
		if oldMobile != "" {
			pipe.Del(ctx, mobileIndexKey(oldMobile))
		}
		if p.Mobile != "" {
			pipe.HSet(ctx, mobileIndexKey(p.Mobile), "userId", p.ID)
		}
	}
	if p.Email != oldEmail {
		if oldEmail != "" {
			pipe.Del(ctx, emailIndexKey(oldEmail))
		}
		if p.Email != "" {
			pipe.HSet(ctx, emailIndexKey(p.Email), "userId", p.ID)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetByMobile 通过手机号索引查档案
func (r *ProfileRepository) GetByMobile(ctx context.Context, mobile string) (*model.UserProfile, error) {
	userID, err := r.rdb.HGet(ctx, mobileIndexKey(mobile), "userId").Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, userID)
}

// GetByEmail 通过邮箱索引查档案
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	userID, err := r.rdb.HGet(ctx, emailIndexKey(email), "userId").Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, userID)
}

// ListIDs 按创建时间倒序返回一页用户 ID
func (r *ProfileRepository) ListIDs(ctx context.Context, start, stop int64) ([]string, error) {
	return r.rdb.ZRevRange(ctx, profilesAllKey, start, stop).Result()
}

// Count 档案总数
func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	return r.rdb.ZCard(ctx, profilesAllKey).Result()
}

// IncrementQuotaUsed 原子递增已用配额，返回新值
func (r *ProfileRepository) IncrementQuotaUsed(ctx context.Context, userID string) (int64, error) {
	pipe := r.rdb.Pipeline()
	incr := pipe.HIncrBy(ctx, profileKey(userID), "quota_used", 1)
	pipe.HSet(ctx, profileKey(userID), "updated_at", time.Now().Format(time.RFC3339))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// ResetQuota 清零已用配额并推进重置时间
func (r *ProfileRepository) ResetQuota(ctx context.Context, userID string, nextReset time.Time) error {
	return r.rdb.HSet(ctx, profileKey(userID), map[string]interface{}{
		"quota_used":       "0",
		"quota_reset_date": nextReset.Format(time.RFC3339),
		"updated_at":       time.Now().Format(time.RFC3339),
	}).Err()
}

// serializeProfile 档案落库时所有值转为字符串
func serializeProfile(p *model.UserProfile) map[string]interface{} {
	return map[string]interface{}{
		"id":               p.ID,
		"email":            p.Email,
		"mobile":           p.Mobile,
		"level":            p.Level,
		"role":             p.Role,
		"quota_limit":      strconv.Itoa(p.QuotaLimit),
		"quota_used":       strconv.Itoa(p.QuotaUsed),
		"quota_reset_date": formatTimePtr(p.QuotaResetDate),
		"level_expire_at":  formatTimePtr(p.LevelExpireAt),
		"invited_by":       p.InvitedBy,
		"invite_code_used": p.InviteCodeUsed,
		"password_hash":    p.PasswordHash,
		"created_at":       p.CreatedAt.Format(time.RFC3339),
		"updated_at":       p.UpdatedAt.Format(time.RFC3339),
	}
}

func parseProfile(data map[string]string) *model.UserProfile {
	p := &model.UserProfile{
		ID:             data["id"],
		Email:          data["email"],
		Mobile:         data["mobile"],
		Level:          data["level"],
		Role:           data["role"],
		InvitedBy:      data["invited_by"],
		InviteCodeUsed: data["invite_code_used"],
		PasswordHash:   data["password_hash"],
	}
	if p.Level == "" {
		p.Level = model.LevelFree
	}
	if p.Role == "" {
		p.Role = model.RoleUser
	}
	p.QuotaLimit, _ = strconv.Atoi(data["quota_limit"])
	p.QuotaUsed, _ = strconv.Atoi(data["quota_used"])
	p.QuotaResetDate = parseTimePtr(data["quota_reset_date"])
	p.LevelExpireAt = parseTimePtr(data["level_expire_at"])
	p.CreatedAt = parseTime(data["created_at"])
	p.UpdatedAt = parseTime(data["updated_at"])
	return p
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseTimePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
