package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/config"
	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/pkg/email"
	"github.com/kenerlee/navix-server/internal/repository"
)

// 邀请码字符集，去掉了易混淆的 I/O/0/1
const (
	inviteAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeLength = 8
	inviteMinLength  = 6

	// 生成碰撞时的重试上限
	maxGenerateAttempts = 5
)

var (
	ErrInviteNotFound     = errors.New("邀请码不存在")
	ErrInviteUsed         = errors.New("邀请码已被使用")
	ErrInviteExpired      = errors.New("邀请码已过期")
	ErrInviteLimit        = errors.New("可用邀请码数量已达上限")
	ErrAlreadyActivated   = errors.New("账号已激活，无需重复使用邀请码")
	ErrCodeGenerateFailed = errors.New("邀请码生成失败，请重试")
	ErrNotActivated       = errors.New("账号尚未激活，无法生成邀请码")
)

type InviteService struct {
	repo     *repository.InviteRepository
	profiles *ProfileService
	emailer  *email.Service
	cfg      *config.Config
}

func NewInviteService(repo *repository.InviteRepository, profiles *ProfileService, emailer *email.Service, cfg *config.Config) *InviteService {
	return &InviteService{
		repo:     repo,
		profiles: profiles,
		emailer:  emailer,
		cfg:      cfg,
	}
}

// CreateAdminBatch 管理员批量生成邀请码
func (s *InviteService) CreateAdminBatch(ctx context.Context, adminID string, count int) ([]*model.Invite, error) {
	if count < 1 {
		count = 1
	}
	if count > s.cfg.Invite.AdminBatchMax {
		count = s.cfg.Invite.AdminBatchMax
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 0, s.cfg.Invite.AdminExpireDays)

	invites := make([]*model.Invite, 0, count)
	for i := 0; i < count; i++ {
		code, err := s.generateCode(ctx)
		if err != nil {
			return nil, err
		}
		inv := &model.Invite{
			Code:      code,
			Kind:      model.InviteKindAdmin,
			CreatedBy: adminID,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		}
		if err := s.repo.Create(ctx, inv); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}

	logrus.WithFields(logrus.Fields{"admin_id": adminID, "count": len(invites)}).Info("管理员批量生成邀请码")
	return invites, nil
}

// CreateUserInvite 已激活用户生成一个邀请码，未使用数量受上限约束
func (s *InviteService) CreateUserInvite(ctx context.Context, userID string) (*model.Invite, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Role == model.RoleGuest {
		return nil, ErrNotActivated
	}

	active, err := s.repo.ActiveCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active >= s.cfg.Invite.UserMaxActive {
		return nil, ErrInviteLimit
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inv := &model.Invite{
		Code:      code,
		Kind:      model.InviteKindUser,
		CreatedBy: userID,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, s.cfg.Invite.UserExpireDays),
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Validate 校验邀请码可用性。大小写不敏感，输入先归一化。
func (s *InviteService) Validate(ctx context.Context, code string) (*model.Invite, error) {
	code = NormalizeCode(code)
	if len(code) < inviteMinLength {
		return nil, ErrInviteNotFound
	}

	inv, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInviteNotFound
	}
	if inv.IsUsed() {
		return nil, ErrInviteUsed
	}
	if inv.IsExpired(time.Now()) {
		return nil, ErrInviteExpired
	}
	return inv, nil
}

// Activate 用户使用邀请码激活账号。
// HSETNX 抢占保证同一个码并发激活只成功一次。
func (s *InviteService) Activate(ctx context.Context, code, userID string) (*model.UserProfile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Role != model.RoleGuest {
		return nil, ErrAlreadyActivated
	}

	inv, err := s.Validate(ctx, code)
	if err != nil {
		return nil, err
	}

	claimed, err := s.repo.ClaimUse(ctx, inv.Code, userID, time.Now())
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrInviteUsed
	}

	role := model.RoleUser
	p, err = s.profiles.Update(ctx, userID, &model.ProfileUpdate{
		Role:           &role,
		InvitedBy:      &inv.CreatedBy,
		InviteCodeUsed: &inv.Code,
	})
	if err != nil {
		return nil, err
	}

	// 用户邀请码被消耗后立即归还创建者名额
	if err := s.repo.ReleaseSlot(ctx, inv); err != nil {
		logrus.WithError(err).WithField("code", inv.Code).Warn("邀请名额归还失败")
	}

	if p.Email != "" && s.emailer != nil {
		if err := s.emailer.SendWelcome(p.Email); err != nil {
			logrus.WithError(err).Warn("欢迎邮件发送失败")
		}
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "code": inv.Code}).Info("邀请码激活成功")
	return p, nil
}

// ListMine 用户自己签发的邀请码及统计
func (s *InviteService) ListMine(ctx context.Context, userID string) ([]*model.Invite, *model.InviteStats, error) {
	invites, err := s.repo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	active, err := s.repo.ActiveCount(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	stats := &model.InviteStats{TotalCreated: len(invites)}
	for _, inv := range invites {
		if inv.IsUsed() {
			stats.TotalUsed++
		}
	}
	stats.Available = s.cfg.Invite.UserMaxActive - active
	if stats.Available < 0 {
		stats.Available = 0
	}
	return invites, stats, nil
}

// ListAll 管理员查看全量邀请码
func (s *InviteService) ListAll(ctx context.Context) ([]*model.Invite, error) {
	return s.repo.ListAll(ctx)
}

// SweepExpired 清扫过期未使用的用户邀请码并归还名额，返回归还数量。
// 定时任务调用，可重复执行。
func (s *InviteService) SweepExpired(ctx context.Context) (int, error) {
	creators, err := s.repo.ListCreatorIDs(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	released := 0
	for _, creatorID := range creators {
		invites, err := s.repo.ListByCreator(ctx, creatorID)
		if err != nil {
			return released, err
		}
		for _, inv := range invites {
			if inv.IsUsed() || !inv.IsExpired(now) {
				continue
			}
			done, err := s.repo.SlotReleased(ctx, inv.Code)
			if err != nil {
				return released, err
			}
			if done {
				continue
			}
			if err := s.repo.ReleaseSlot(ctx, inv); err != nil {
				return released, err
			}
			released++
		}
	}
	return released, nil
}

// NormalizeCode 邀请码输入归一化：去空白、转大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateCode 随机生成邀请码，碰撞时重新生成
func (s *InviteService) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := randomCode(inviteCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := s.repo.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeGenerateFailed
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(inviteAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = inviteAlphabet[n.Int64()]
	}
	return string(buf), nil
}
