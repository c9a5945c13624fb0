package dto

type ValidateInviteRequest struct {
	Code string `json:"code" binding:"required"`
}

type ActivateInviteRequest struct {
	Code string `json:"code" binding:"required"`
}

// CreateAdminInvitesRequest 管理员批量生成邀请码
type CreateAdminInvitesRequest struct {
	Count int `json:"count"`
}
