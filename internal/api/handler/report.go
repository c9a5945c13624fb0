package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/internal/api/middleware"
	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/pkg/response"
	"github.com/kenerlee/navix-server/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Create 保存用户报告
// POST /api/reports
func (h *ReportHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	report, err := h.reportService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		logrus.WithError(err).Error("保存报告失败")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"report": report})
}

// List 我的报告列表
// GET /api/reports
func (h *ReportHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	reports, err := h.reportService.List(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"reports": reports, "total": len(reports)})
}

// Get 报告详情（仅本人）
// GET /api/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	report, err := h.reportService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Success(c, gin.H{"report": report})
}

// Update 更新报告
// PUT /api/reports/:id
func (h *ReportHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	report, err := h.reportService.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Success(c, gin.H{"report": report})
}

// Delete 删除报告
// DELETE /api/reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	if err := h.reportService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrNotReportOwner):
		response.PermissionError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
