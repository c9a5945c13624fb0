package cron

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/pkg/email"
	"github.com/kenerlee/navix-server/internal/service"
)

// 会员到期前提醒窗口
const expiringNoticeDays = 3

type Service struct {
	inviteService  *service.InviteService
	profileService *service.ProfileService
	emailer        *email.Service
	stopChan       chan struct{}
}

func NewService(
	inviteService *service.InviteService,
	profileService *service.ProfileService,
	emailer *email.Service,
) *Service {
	return &Service{
		inviteService:  inviteService,
		profileService: profileService,
		emailer:        emailer,
		stopChan:       make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runInviteSweep()
	go s.runMembershipScan()
	logrus.Info("定时任务已启动（邀请码清扫 + 会员到期扫描）")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	logrus.Info("定时任务已停止")
}

// runInviteSweep 每小时归还过期未使用的邀请名额
func (s *Service) runInviteSweep() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweepInvites()
		}
	}
}

func (s *Service) sweepInvites() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	released, err := s.inviteService.SweepExpired(ctx)
	if err != nil {
		logrus.WithError(err).Error("邀请码清扫失败")
		return
	}
	if released > 0 {
		logrus.WithField("released", released).Info("已归还过期邀请名额")
	}
}

// runMembershipScan 每日零点扫描会员到期情况
func (s *Service) runMembershipScan() {
	now := time.Now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	timer := time.NewTimer(nextMidnight.Sub(now))
	defer timer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-timer.C:
			s.scanMemberships()
			timer.Reset(24 * time.Hour)
		}
	}
}

// scanMemberships 过期会员降级，临期会员发提醒邮件
func (s *Service) scanMemberships() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	profiles, _, err := s.profileService.List(ctx, 1, 10000, "")
	if err != nil {
		logrus.WithError(err).Error("会员扫描失败")
		return
	}

	now := time.Now()
	downgraded, notified := 0, 0
	for _, p := range profiles {
		if p.Level != model.LevelPro && p.Level != model.LevelVIP {
			continue
		}
		if p.LevelExpireAt == nil {
			continue
		}

		if p.IsLevelExpired(now) {
			if _, err := s.profileService.UpdateLevel(ctx, p.ID, model.LevelFree, 0); err != nil {
				logrus.WithError(err).WithField("user_id", p.ID).Error("会员降级失败")
				continue
			}
			downgraded++
			continue
		}

		daysLeft := int(p.LevelExpireAt.Sub(now).Hours() / 24)
		if daysLeft < expiringNoticeDays && p.Email != "" && s.emailer != nil {
			if err := s.emailer.SendMembershipExpiring(p.Email, p.Level, daysLeft+1); err != nil {
				logrus.WithError(err).WithField("user_id", p.ID).Warn("到期提醒邮件发送失败")
				continue
			}
			notified++
		}
	}

	logrus.WithFields(logrus.Fields{
		"scanned":    len(profiles),
		"downgraded": downgraded,
		"notified":   notified,
	}).Info("会员到期扫描完成")
}
