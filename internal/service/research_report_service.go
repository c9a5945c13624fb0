package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/internal/model"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/pkg/oss"
	"github.com/kenerlee/navix-server/internal/repository"
)

var (
	ErrResearchReportNotFound = errors.New("调研报告不存在")
	ErrInvalidCategory        = errors.New("无效的报告分类")
	ErrStorageUnavailable     = errors.New("对象存储未配置")
)

type ResearchReportService struct {
	repo      *repository.ResearchReportRepository
	ossClient *oss.Client
}

func NewResearchReportService(repo *repository.ResearchReportRepository, ossClient *oss.Client) *ResearchReportService {
	return &ResearchReportService{
		repo:      repo,
		ossClient: ossClient,
	}
}

// Create 管理员上传 PDF 调研报告，文件落 OSS，元数据落 Redis
func (s *ResearchReportService) Create(ctx context.Context, adminID string, req *dto.CreateResearchReportRequest,
	pdfData []byte, pdfFilename string, coverData []byte, coverFilename string) (*model.ResearchReport, error) {

	if !model.ValidCategory(req.Category) {
		return nil, ErrInvalidCategory
	}
	if s.ossClient == nil {
		return nil, ErrStorageUnavailable
	}

	reportID := "research_" + uuid.NewString()

	pdfURL, err := s.ossClient.UploadReportPDF(reportID, pdfData, pdfFilename)
	if err != nil {
		return nil, err
	}

	coverURL := ""
	if len(coverData) > 0 {
		coverURL, err = s.ossClient.UploadCover(reportID, coverData, coverFilename)
		if err != nil {
			logrus.WithError(err).Warn("封面上传失败，报告继续保存")
		}
	}

	now := time.Now()
	rep := &model.ResearchReport{
		ID:          reportID,
		Title:       req.Title,
		Description: req.Description,
		PDFURL:      pdfURL,
		PDFFileName: pdfFilename,
		PDFFileSize: int64(len(pdfData)),
		CoverImage:  coverURL,
		Category:    req.Category,
		Tags:        splitTags(req.Tags),
		Author:      req.Author,
		IsPublic:    req.IsPublic,
		CreatedBy:   adminID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.PublishDate != "" {
		if t, err := time.Parse(time.RFC3339, req.PublishDate); err == nil {
			rep.PublishDate = &t
		}
	}

	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"id": reportID, "title": rep.Title}).Info("调研报告已上传")
	return rep, nil
}

// ListPublic 公开报告列表（Discovery 页）
func (s *ResearchReportService) ListPublic(ctx context.Context) ([]*model.ResearchReport, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	public := make([]*model.ResearchReport, 0, len(all))
	for _, rep := range all {
		if rep.IsPublic {
			public = append(public, rep)
		}
	}
	return public, nil
}

// ListAll 管理员视角的全量列表
func (s *ResearchReportService) ListAll(ctx context.Context) ([]*model.ResearchReport, error) {
	return s.repo.List(ctx)
}

// GetPublic 查看公开报告详情并累计浏览数
func (s *ResearchReportService) GetPublic(ctx context.Context, id string) (*model.ResearchReport, error) {
	rep, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep == nil || !rep.IsPublic {
		return nil, ErrResearchReportNotFound
	}

	n, err := s.repo.IncrViewCount(ctx, id)
	if err != nil {
		return nil, err
	}
	rep.ViewCount = n
	return rep, nil
}

// Download 返回 PDF 地址并累计下载数
func (s *ResearchReportService) Download(ctx context.Context, id string) (string, error) {
	rep, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if rep == nil || !rep.IsPublic {
		return "", ErrResearchReportNotFound
	}

	if _, err := s.repo.IncrDownloadCount(ctx, id); err != nil {
		return "", err
	}

	// 私有 bucket 场景下换成带签名的临时链接
	if s.ossClient != nil {
		if key := objectKeyFromURL(rep.PDFURL); key != "" {
			if signed, err := s.ossClient.GetSignedURL(key); err == nil {
				return signed, nil
			}
		}
	}
	return rep.PDFURL, nil
}

// Delete 管理员删除报告，OSS 文件尽力清理
func (s *ResearchReportService) Delete(ctx context.Context, id string) error {
	rep, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rep == nil {
		return ErrResearchReportNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.ossClient != nil {
		if key := objectKeyFromURL(rep.PDFURL); key != "" {
			if err := s.ossClient.Delete(key); err != nil {
				logrus.WithError(err).WithField("key", key).Warn("OSS 文件删除失败")
			}
		}
	}
	return nil
}

// TogglePublic 管理员上下架报告
func (s *ResearchReportService) TogglePublic(ctx context.Context, id string, isPublic bool) (*model.ResearchReport, error) {
	rep, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, ErrResearchReportNotFound
	}

	rep.IsPublic = isPublic
	rep.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// objectKeyFromURL 从完整 URL 中还原 OSS object key
func objectKeyFromURL(url string) string {
	idx := strings.Index(url, "research-reports/")
	if idx < 0 {
		return ""
	}
	return url[idx:]
}
