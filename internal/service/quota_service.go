package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/config"
	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/repository"
)

// QuotaCheckResult 单次配额检查的结论
type QuotaCheckResult struct {
	Allowed     bool `json:"allowed"`
	Remaining   int  `json:"remaining"` // -1 表示无限
	IsUnlimited bool `json:"is_unlimited"`
	IsExpired   bool `json:"is_expired"` // 付费会员已到期
}

type QuotaService struct {
	profiles *ProfileService
	repo     *repository.ProfileRepository
	cfg      *config.Config
}

func NewQuotaService(profiles *ProfileService, repo *repository.ProfileRepository, cfg *config.Config) *QuotaService {
	return &QuotaService{
		profiles: profiles,
		repo:     repo,
		cfg:      cfg,
	}
}

// CheckQuota 判断用户能否再发起一次对话。
// 匿名身份首次访问时补建共享档案；基础设施故障时按 fail_open 配置决定放行还是拒绝。
func (s *QuotaService) CheckQuota(ctx context.Context, userID string) (*QuotaCheckResult, error) {
	var (
		p   *model.UserProfile
		err error
	)
	if userID == model.AnonymousID {
		p, err = s.profiles.GetOrCreate(ctx, model.AnonymousID, "", "")
	} else {
		p, err = s.profiles.Get(ctx, userID)
	}
	if err != nil {
		if err == ErrUserNotFound {
			return &QuotaCheckResult{Allowed: false}, ErrUserNotFound
		}
		return s.failOpen(userID, err)
	}

	if p.IsUnlimited() {
		return &QuotaCheckResult{Allowed: true, Remaining: model.QuotaUnlimited, IsUnlimited: true}, nil
	}

	// 会员到期只拒绝不降级，提示用户续费
	if p.IsLevelExpired(time.Now()) {
		return &QuotaCheckResult{Allowed: false, IsExpired: true}, nil
	}

	remaining := p.QuotaLimit - p.QuotaUsed
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaCheckResult{Allowed: remaining > 0, Remaining: remaining}, nil
}

// DeductQuota 成功完成一次对话后扣减一次配额。
// HINCRBY 原子递增，并发请求不会互相覆盖。无限配额直接跳过。
func (s *QuotaService) DeductQuota(ctx context.Context, userID string) error {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrUserNotFound
	}
	if p.IsUnlimited() {
		return nil
	}

	used, err := s.repo.IncrementQuotaUsed(ctx, userID)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"used":    used,
		"limit":   p.QuotaLimit,
	}).Debug("配额已扣减")
	return nil
}

func (s *QuotaService) failOpen(userID string, err error) (*QuotaCheckResult, error) {
	if s.cfg.Quota.FailOpen {
		logrus.WithError(err).WithField("user_id", userID).Warn("配额检查失败，按配置放行")
		return &QuotaCheckResult{Allowed: true, Remaining: model.QuotaUnlimited, IsUnlimited: true}, nil
	}
	return &QuotaCheckResult{Allowed: false}, err
}
