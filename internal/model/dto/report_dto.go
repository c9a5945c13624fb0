package dto

import (
	"github.com/kenerlee/navix-server/internal/model"
)

type CreateReportRequest struct {
	Title      string                `json:"title" binding:"required"`
	Content    string                `json:"content" binding:"required"`
	CoverImage string                `json:"cover_image"`
	Metadata   *model.ReportMetadata `json:"metadata"`
}

type UpdateReportRequest struct {
	Title      *string               `json:"title"`
	Content    *string               `json:"content"`
	CoverImage *string               `json:"cover_image"`
	Metadata   *model.ReportMetadata `json:"metadata"`
}

// CreateResearchReportRequest 管理员上传 PDF 调研报告的表单字段
type CreateResearchReportRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required"`
	Category    string `form:"category" binding:"required"`
	Tags        string `form:"tags"` // 逗号分隔
	Author      string `form:"author"`
	PublishDate string `form:"publish_date"` // RFC3339
	IsPublic    bool   `form:"is_public"`
}
