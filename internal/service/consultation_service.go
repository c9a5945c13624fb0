package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/repository"
)

var (
	ErrConsultationNotFound = errors.New("咨询记录不存在")
	ErrInvalidConsultType   = errors.New("无效的咨询类型")
	ErrInvalidConsultStatus = errors.New("无效的处理状态")
)

type ConsultationService struct {
	repo *repository.ConsultationRepository
}

func NewConsultationService(repo *repository.ConsultationRepository) *ConsultationService {
	return &ConsultationService{repo: repo}
}

// Create 公开表单提交咨询线索
func (s *ConsultationService) Create(ctx context.Context, req *dto.CreateConsultationRequest) (*model.Consultation, error) {
	if !model.ValidConsultationType(req.ConsultationType) {
		return nil, ErrInvalidConsultType
	}

	now := time.Now()
	c := &model.Consultation{
		ID:               "consult_" + uuid.NewString(),
		Name:             req.Name,
		Company:          req.Company,
		Phone:            req.Phone,
		Email:            req.Email,
		ConsultationType: req.ConsultationType,
		Description:      req.Description,
		Status:           model.ConsultationPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"id": c.ID, "type": c.ConsultationType}).Info("新咨询线索")
	return c, nil
}

// List 管理员分页查看咨询线索
func (s *ConsultationService) List(ctx context.Context, page, pageSize int) ([]*model.Consultation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
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

	items := make([]*model.Consultation, 0, len(ids))
	for _, id := range ids {
		c, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		if c != nil {
			items = append(items, c)
		}
	}
	return items, total, nil
}

// Update 管理员更新处理状态和备注
func (s *ConsultationService) Update(ctx context.Context, id string, req *dto.UpdateConsultationRequest) (*model.Consultation, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrConsultationNotFound
	}

	if req.Status != "" {
		if !model.ValidConsultationStatus(req.Status) {
			return nil, ErrInvalidConsultStatus
		}
		c.Status = req.Status
	}
	if req.AdminNotes != "" {
		c.AdminNotes = req.AdminNotes
	}
	c.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
