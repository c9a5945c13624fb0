package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/config"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/pkg/skills"
)

var (
	ErrQuotaExceeded = errors.New("对话配额已用完")
	ErrLevelExpired  = errors.New("会员已到期，请续费后继续使用")
)

type ChatService struct {
	skillsClient *skills.Client
	quota        *QuotaService
	cfg          *config.Config
}

func NewChatService(skillsClient *skills.Client, quota *QuotaService, cfg *config.Config) *ChatService {
	return &ChatService{
		skillsClient: skillsClient,
		quota:        quota,
		cfg:          cfg,
	}
}

// StreamChat 发起一轮对话：先过配额闸，转发上游流式事件，
// 整轮成功结束后才扣减配额（失败的对话不计费）。
func (s *ChatService) StreamChat(ctx context.Context, userID string, req *dto.ChatRequest, onEvent func(skills.StreamEvent) error) error {
	check, err := s.quota.CheckQuota(ctx, userID)
	if err != nil {
		return err
	}
	if !check.Allowed {
		if check.IsExpired {
			return ErrLevelExpired
		}
		return ErrQuotaExceeded
	}

	messages := make([]skills.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, skills.Message{Role: m.Role, Content: m.Content})
	}

	if err := s.skillsClient.StreamChat(ctx, req.Model, messages, onEvent); err != nil {
		return err
	}

	if err := s.quota.DeductQuota(ctx, userID); err != nil {
		// 对话已经送达，扣减失败只记日志不回滚
		logrus.WithError(err).WithField("user_id", userID).Error("配额扣减失败")
	}
	return nil
}
