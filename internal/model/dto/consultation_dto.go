package dto

type CreateConsultationRequest struct {
	Name             string `json:"name" binding:"required"`
	Company          string `json:"company"`
	Phone            string `json:"phone" binding:"required"`
	Email            string `json:"email"`
	ConsultationType string `json:"consultation_type" binding:"required"`
	Description      string `json:"description"`
}

type UpdateConsultationRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}
