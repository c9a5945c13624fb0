package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/internal/pkg/response"
	"github.com/kenerlee/navix-server/internal/service"
)

// DiscoveryHandler 发现页：对外公开的调研报告库
type DiscoveryHandler struct {
	researchService *service.ResearchReportService
}

func NewDiscoveryHandler(researchService *service.ResearchReportService) *DiscoveryHandler {
	return &DiscoveryHandler{researchService: researchService}
}

// List 公开报告列表，可按分类过滤
// GET /api/discovery?category=
func (h *DiscoveryHandler) List(c *gin.Context) {
	reports, err := h.researchService.ListPublic(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("获取报告库失败")
		response.ServerError(c, "")
		return
	}

	if category := c.Query("category"); category != "" {
		filtered := reports[:0]
		for _, r := range reports {
			if r.Category == category {
				filtered = append(filtered, r)
			}
		}
		reports = filtered
	}

	response.Success(c, gin.H{"reports": reports, "total": len(reports)})
}

// Get 报告详情，访问计入浏览数
// GET /api/discovery/:id
func (h *DiscoveryHandler) Get(c *gin.Context) {
	report, err := h.researchService.GetPublic(c.Request.Context(), c.Param("id"))
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

// Download 获取 PDF 下载链接，计入下载数
// GET /api/discovery/:id/download
func (h *DiscoveryHandler) Download(c *gin.Context) {
	url, err := h.researchService.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrResearchReportNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"url": url})
}
