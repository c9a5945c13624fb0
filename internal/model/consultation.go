package model

import (
	"time"
)

// 咨询类型
const (
	ConsultationMarketResearch    = "market-research"
	ConsultationDueDiligence      = "due-diligence"
	ConsultationOverseasExpansion = "overseas-expansion"
	ConsultationCustomReport      = "custom-report"
	ConsultationMembership        = "membership"
	ConsultationOther             = "other"
)

// 咨询处理状态
const (
	ConsultationPending   = "pending"
	ConsultationContacted = "contacted"
	ConsultationCompleted = "completed"
	ConsultationCancelled = "cancelled"
)

// Consultation 专家咨询线索（公开表单提交）
type Consultation struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Company          string    `json:"company,omitempty"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	ConsultationType string    `json:"consultation_type"`
	Description      string    `json:"description,omitempty"`
	Status           string    `json:"status"`
	AdminNotes       string    `json:"admin_notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ValidConsultationType 判断咨询类型取值是否合法
func ValidConsultationType(t string) bool {
	switch t {
	case ConsultationMarketResearch, ConsultationDueDiligence,
		ConsultationOverseasExpansion, ConsultationCustomReport,
		ConsultationMembership, ConsultationOther:
		return true
	}
	return false
}

// ValidConsultationStatus 判断处理状态取值是否合法
func ValidConsultationStatus(s string) bool {
	switch s {
	case ConsultationPending, ConsultationContacted,
		ConsultationCompleted, ConsultationCancelled:
		return true
	}
	return false
}
