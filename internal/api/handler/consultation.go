package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/internal/model/dto"
	"github.com/kenerlee/navix-server/internal/pkg/response"
	"github.com/kenerlee/navix-server/internal/service"
)

type ConsultationHandler struct {
	consultationService *service.ConsultationService
}

func NewConsultationHandler(consultationService *service.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{consultationService: consultationService}
}

// Create 提交咨询意向（公开接口，走限流）
// POST /api/consultations
func (h *ConsultationHandler) Create(c *gin.Context) {
	var req dto.CreateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.consultationService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidConsultType) {
			response.ParamError(c, err.Error())
			return
		}
		logrus.WithError(err).Error("提交咨询失败")
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"consultation": item})
}
