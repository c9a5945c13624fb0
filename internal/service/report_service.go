package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/repository"
)

var (
	ErrReportNotFound = errors.New("报告不存在")
	ErrNotReportOwner = errors.New("无权操作该报告")
)

type ReportService struct {
	repo *repository.ReportRepository
}

func NewReportService(repo *repository.ReportRepository) *ReportService {
	return &ReportService{repo: repo}
}

// Create 保存用户的研究报告文档
func (s *ReportService) Create(ctx context.Context, userID string, req *dto.CreateReportRequest) (*model.Report, error) {
	now := time.Now()
	rep := &model.Report{
		ID:         "report_" + uuid.NewString(),
		UserID:     userID,
		Title:      req.Title,
		Content:    req.Content,
		CoverImage: req.CoverImage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Metadata != nil {
		rep.Metadata = *req.Metadata
	}

	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// Get 取报告，只有所有者可见
func (s *ReportService) Get(ctx context.Context, userID, reportID string) (*model.Report, error) {
	rep, err := s.repo.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, ErrReportNotFound
	}
	if rep.UserID != userID {
		return nil, ErrNotReportOwner
	}
	return rep, nil
}

// Update 更新报告，nil 字段不动
func (s *ReportService) Update(ctx context.Context, userID, reportID string, req *dto.UpdateReportRequest) (*model.Report, error) {
	rep, err := s.Get(ctx, userID, reportID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		rep.Title = *req.Title
	}
	if req.Content != nil {
		rep.Content = *req.Content
	}
	if req.CoverImage != nil {
		rep.CoverImage = *req.CoverImage
	}
	if req.Metadata != nil {
		rep.Metadata = *req.Metadata
	}
	rep.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// Delete 删除报告
func (s *ReportService) Delete(ctx context.Context, userID, reportID string) error {
	rep, err := s.Get(ctx, userID, reportID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, rep)
}

// List 用户的报告列表，按创建时间倒序
func (s *ReportService) List(ctx context.Context, userID string) ([]*model.Report, error) {
	return s.repo.ListByUser(ctx, userID)
}
