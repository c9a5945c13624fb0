package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/internal/api/middleware"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/pkg/response"
	"github.com/kenerlee/navix-server/internal/service"
)

// 上传文件大小上限
const (
	maxPDFSize   = 50 * 1024 * 1024
	maxCoverSize = 5 * 1024 * 1024
)

type AdminHandler struct {
	profileService      *service.ProfileService
	inviteService       *service.InviteService
	consultationService *service.ConsultationService
	researchService     *service.ResearchReportService
}

func NewAdminHandler(
	profileService *service.ProfileService,
	inviteService *service.InviteService,
	consultationService *service.ConsultationService,
	researchService *service.ResearchReportService,
) *AdminHandler {
	return &AdminHandler{
		profileService:      profileService,
		inviteService:       inviteService,
		consultationService: consultationService,
		researchService:     researchService,
	}
}

// ListUsers 用户列表，支持分页与关键字搜索
// GET /api/admin/users?page=1&page_size=20&search=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	search := c.Query("search")

	users, total, err := h.profileService.List(c.Request.Context(), page, pageSize, search)
	if err != nil {
		logrus.WithError(err).Error("获取用户列表失败")
		response.ServerError(c, "")
		return
	}

	summaries := make([]*dto.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, h.profileService.Summary(u))
	}

	response.Success(c, gin.H{
		"users": summaries,
		"total": total,
		"page":  page,
	})
}

// UpdateUserLevel 调整会员等级
// PUT /api/admin/users/:id/level
func (h *AdminHandler) UpdateUserLevel(c *gin.Context) {
	targetID := c.Param("id")

	var req dto.UpdateLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	profile, err := h.profileService.UpdateLevel(c.Request.Context(), targetID, req.Level, req.ExpireDays)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrInvalidLevel):
			response.ParamError(c, err.Error())
		default:
			logrus.WithError(err).Error("调整会员等级失败")
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{"user": h.profileService.Summary(profile)})
}

// ListInvites 全部邀请码
// GET /api/admin/invites
func (h *AdminHandler) ListInvites(c *gin.Context) {
	invites, err := h.inviteService.ListAll(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("获取邀请码列表失败")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"invites": invites, "total": len(invites)})
}

// CreateInvites 批量生成管理员邀请码
// POST /api/admin/invites
func (h *AdminHandler) CreateInvites(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateAdminInvitesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	invites, err := h.inviteService.CreateAdminBatch(c.Request.Context(), adminID, req.Count)
	if err != nil {
		logrus.WithError(err).Error("批量生成邀请码失败")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"invites": invites, "count": len(invites)})
}

// ListConsultations 咨询工单列表
// GET /api/admin/consultations
func (h *AdminHandler) ListConsultations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := h.consultationService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		logrus.WithError(err).Error("获取咨询列表失败")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{
		"consultations": items,
		"total":         total,
		"page":          page,
	})
}

// UpdateConsultation 更新咨询处理状态
// PUT /api/admin/consultations/:id
func (h *AdminHandler) UpdateConsultation(c *gin.Context) {
	var req dto.UpdateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.consultationService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConsultationNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrInvalidConsultStatus):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{"consultation": item})
}

// CreateResearchReport 上传 PDF 调研报告（multipart 表单）
// POST /api/admin/research-reports
func (h *AdminHandler) CreateResearchReport(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateResearchReportRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	pdfFile, err := c.FormFile("pdf")
	if err != nil {
		response.ParamError(c, "请上传 PDF 文件")
		return
	}
	if pdfFile.Size > maxPDFSize {
		response.ParamError(c, "PDF 文件不能超过50MB")
		return
	}
	if !strings.EqualFold(filepath.Ext(pdfFile.Filename), ".pdf") {
		response.ParamError(c, "仅支持 PDF 格式")
		return
	}

	pdfData, err := readUpload(pdfFile)
	if err != nil {
		response.ServerError(c, "文件读取失败")
		return
	}

	var coverData []byte
	coverFilename := ""
	if coverFile, err := c.FormFile("cover"); err == nil {
		if coverFile.Size > maxCoverSize {
			response.ParamError(c, "封面图片不能超过5MB")
			return
		}
		coverData, err = readUpload(coverFile)
		if err != nil {
			response.ServerError(c, "文件读取失败")
			return
		}
		coverFilename = coverFile.Filename
	}

	report, err := h.researchService.Create(c.Request.Context(), adminID, &req,
		pdfData, pdfFile.Filename, coverData, coverFilename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCategory):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrStorageUnavailable):
			response.ServerError(c, err.Error())
		default:
			logrus.WithError(err).Error("调研报告上传失败")
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{"report": report})
}

// ListResearchReports 全部调研报告（含未公开）
// GET /api/admin/research-reports
func (h *AdminHandler) ListResearchReports(c *gin.Context) {
	reports, err := h.researchService.ListAll(c.Request.Context())
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"reports": reports, "total": len(reports)})
}

// ToggleResearchReport 切换调研报告公开状态
// PUT /api/admin/research-reports/:id/visibility
func (h *AdminHandler) ToggleResearchReport(c *gin.Context) {
	var req struct {
		IsPublic bool `json:"is_public"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	report, err := h.researchService.TogglePublic(c.Request.Context(), c.Param("id"), req.IsPublic)
	if err != nil {
		if errors.Is(err, service.ErrResearchReportNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"report": report})
}

// DeleteResearchReport 删除调研报告（连同 OSS 文件）
// DELETE /api/admin/research-reports/:id
func (h *AdminHandler) DeleteResearchReport(c *gin.Context) {
	if err := h.researchService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrResearchReportNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		logrus.WithError(err).Error("删除调研报告失败")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
