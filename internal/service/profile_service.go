package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/config"
	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/pkg/email"
	"github.com/kenerlee/navix-server/internal/repository"
)

var (
	ErrUserNotFound = errors.New("用户不存在")
	ErrInvalidLevel = errors.New("无效的会员等级")
)

type ProfileService struct {
	repo    *repository.ProfileRepository
	emailer *email.Service
	cfg     *config.Config
}

func NewProfileService(repo *repository.ProfileRepository, emailer *email.Service, cfg *config.Config) *ProfileService {
	return &ProfileService{
		repo:    repo,
		emailer: emailer,
		cfg:     cfg,
	}
}

// GetOrCreate 按认证身份取档案，不存在时创建。
// 重复调用幂等；已有档案时同步本次登录携带的邮箱/手机号。
func (s *ProfileService) GetOrCreate(ctx context.Context, userID, userEmail, mobile string) (*model.UserProfile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if p == nil {
		now := time.Now()
		p = &model.UserProfile{
			ID:         userID,
			Email:      userEmail,
			Mobile:     mobile,
			Level:      model.LevelFree,
			Role:       model.RoleGuest,
			QuotaLimit: s.levelConfig(model.LevelFree).QuotaLimit,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if s.isAdminEmail(userEmail) {
			s.applyLevel(p, model.LevelAdmin, 0)
			p.Role = model.RoleAdmin
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"user_id": userID, "role": p.Role}).Info("用户档案已创建")
		return p, nil
	}

	dirty := false
	oldMobile, oldEmail := p.Mobile, p.Email
	if userEmail != "" && userEmail != p.Email {
		p.Email = userEmail
		dirty = true
	}
	if mobile != "" && mobile != p.Mobile {
		p.Mobile = mobile
		dirty = true
	}
	// 配置的管理员邮箱每次登录都兜底提权，防止配置晚于注册生效
	if s.isAdminEmail(p.Email) && p.Role != model.RoleAdmin {
		s.applyLevel(p, model.LevelAdmin, 0)
		p.Role = model.RoleAdmin
		dirty = true
	}
	if dirty {
		p.UpdatedAt = time.Now()
		if err := s.repo.Save(ctx, p, oldMobile, oldEmail); err != nil {
			return nil, err
		}
	}

	return s.Refresh(ctx, p)
}

// Get 取档案，不存在时返回 ErrUserNotFound
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrUserNotFound
	}
	return s.Refresh(ctx, p)
}

// Refresh 落地月配额重置：pro/vip 过了重置日清零用量。
// 付费会员到期不在这里降级，读路径只呈现过期状态，
// 配额检查据此拒绝，降级由每日定时任务完成。
func (s *ProfileService) Refresh(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error) {
	now := time.Now()

	if p.IsLevelExpired(now) {
		return p, nil
	}

	if s.monthlyQuota(p.Level) && p.QuotaResetDate != nil && !p.QuotaResetDate.After(now) {
		nextReset := firstOfNextMonth(now)
		if err := s.repo.ResetQuota(ctx, p.ID, nextReset); err != nil {
			return nil, err
		}
		p.QuotaUsed = 0
		p.QuotaResetDate = &nextReset
	}

	return p, nil
}

// Update 部分更新档案，nil 字段不动
func (s *ProfileService) Update(ctx context.Context, userID string, upd *model.ProfileUpdate) (*model.UserProfile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrUserNotFound
	}

	oldMobile, oldEmail := p.Mobile, p.Email
	if upd.Email != nil {
		p.Email = *upd.Email
	}
	if upd.Mobile != nil {
		p.Mobile = *upd.Mobile
	}
	if upd.Level != nil {
		if !model.ValidLevel(*upd.Level) {
			return nil, ErrInvalidLevel
		}
		p.Level = *upd.Level
	}
	if upd.Role != nil {
		p.Role = *upd.Role
	}
	if upd.QuotaLimit != nil {
		p.QuotaLimit = *upd.QuotaLimit
	}
	if upd.QuotaUsed != nil {
		p.QuotaUsed = *upd.QuotaUsed
	}
	if upd.QuotaResetDate != nil {
		p.QuotaResetDate = *upd.QuotaResetDate
	}
	if upd.LevelExpireAt != nil {
		p.LevelExpireAt = *upd.LevelExpireAt
	}
	if upd.InvitedBy != nil {
		p.InvitedBy = *upd.InvitedBy
	}
	if upd.InviteCodeUsed != nil {
		p.InviteCodeUsed = *upd.InviteCodeUsed
	}
	if upd.PasswordHash != nil {
		p.PasswordHash = *upd.PasswordHash
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, p, oldMobile, oldEmail); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateLevel 管理员调整会员等级。等级变化时重算配额并通知用户。
func (s *ProfileService) UpdateLevel(ctx context.Context, userID, level string, expireDays int) (*model.UserProfile, error) {
	if !model.ValidLevel(level) {
		return nil, ErrInvalidLevel
	}

	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrUserNotFound
	}

	oldMobile, oldEmail := p.Mobile, p.Email
	s.applyLevel(p, level, expireDays)
	p.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, p, oldMobile, oldEmail); err != nil {
		return nil, err
	}

	if p.Email != "" && s.emailer != nil {
		if err := s.emailer.SendLevelChanged(p.Email, level); err != nil {
			logrus.WithError(err).Warn("等级变更邮件发送失败")
		}
	}
	return p, nil
}

// List 管理员分页列表；search 非空时按 ID/邮箱/手机号子串过滤
func (s *ProfileService) List(ctx context.Context, page, pageSize int, search string) ([]*model.UserProfile, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	if search != "" {
		ids, err := s.repo.ListIDs(ctx, 0, -1)
		if err != nil {
			return nil, 0, err
		}
		var matched []*model.UserProfile
		needle := strings.ToLower(search)
		for _, id := range ids {
			p, err := s.repo.Get(ctx, id)
			if err != nil {
				return nil, 0, err
			}
			if p == nil {
				continue
			}
			if strings.Contains(strings.ToLower(p.ID), needle) ||
				strings.Contains(strings.ToLower(p.Email), needle) ||
				strings.Contains(p.Mobile, search) {
				matched = append(matched, p)
			}
		}
		total := int64(len(matched))
		start := (page - 1) * pageSize
		if start >= len(matched) {
			return []*model.UserProfile{}, total, nil
		}
		end := start + pageSize
		if end > len(matched) {
			end = len(matched)
		}
		return matched[start:end], total, nil
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	start := int64((page - 1) * pageSize)
	ids, err := s.repo.ListIDs(ctx, start, start+int64(pageSize)-1)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]*model.UserProfile, 0, len(ids))
	for _, id := range ids {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		if p != nil {
			profiles = append(profiles, p)
		}
	}
	return profiles, total, nil
}

// QuotaInfo 组装配额快照
func (s *ProfileService) QuotaInfo(p *model.UserProfile) *dto.QuotaInfo {
	info := &dto.QuotaInfo{
		Limit:     p.QuotaLimit,
		Used:      p.QuotaUsed,
		IsExpired: p.IsLevelExpired(time.Now()),
	}
	if p.IsUnlimited() {
		info.Remaining = model.QuotaUnlimited
		info.IsUnlimited = true
		return info
	}

	remaining := p.QuotaLimit - p.QuotaUsed
	if remaining < 0 {
		remaining = 0
	}
	info.Remaining = remaining
	if p.QuotaLimit > 0 {
		info.Percentage = float64(p.QuotaUsed) / float64(p.QuotaLimit) * 100
		if info.Percentage > 100 {
			info.Percentage = 100
		}
	}
	if p.QuotaResetDate != nil {
		info.ResetDate = p.QuotaResetDate.Format(time.RFC3339)
	}
	return info
}

// Summary 组装用户概要
func (s *ProfileService) Summary(p *model.UserProfile) *dto.UserSummary {
	sum := &dto.UserSummary{
		ID:        p.ID,
		Email:     p.Email,
		Mobile:    p.Mobile,
		Level:     p.Level,
		Role:      p.Role,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
	if p.LevelExpireAt != nil {
		sum.LevelExpireAt = p.LevelExpireAt.Format(time.RFC3339)
	}
	return sum
}

// applyLevel 切换会员等级：重算配额上限、清零用量、重排重置日和到期时间
func (s *ProfileService) applyLevel(p *model.UserProfile, level string, expireDays int) {
	lc := s.levelConfig(level)
	now := time.Now()

	p.Level = level
	p.QuotaLimit = lc.QuotaLimit
	p.QuotaUsed = 0

	if s.monthlyQuota(level) {
		reset := firstOfNextMonth(now)
		p.QuotaResetDate = &reset

		days := expireDays
		if days <= 0 {
			days = lc.ExpireDays
		}
		if days > 0 {
			expire := now.AddDate(0, 0, days)
			p.LevelExpireAt = &expire
		} else {
			p.LevelExpireAt = nil
		}
	} else {
		// free 是终身额度，admin 不限量，都没有月度重置
		p.QuotaResetDate = nil
		p.LevelExpireAt = nil
	}
}

func (s *ProfileService) monthlyQuota(level string) bool {
	return level == model.LevelPro || level == model.LevelVIP
}

func (s *ProfileService) levelConfig(level string) config.LevelConfig {
	if lc, ok := s.cfg.Quota.Levels[level]; ok {
		return lc
	}
	return s.cfg.Quota.Levels[model.LevelFree]
}

func (s *ProfileService) isAdminEmail(userEmail string) bool {
	if userEmail == "" {
		return false
	}
	for _, e := range s.cfg.Admin.Emails {
		if strings.EqualFold(e, userEmail) {
			return true
		}
	}
	return false
}

// firstOfNextMonth 下个月一号零点（服务器时区）
func firstOfNextMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
}
