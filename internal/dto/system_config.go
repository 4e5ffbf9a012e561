package dto

// ── 系统配置模块 DTO ──

// UpdateSystemConfigRequest 更新系统配置请求
// clear_choice_deadline=true 时取消截止时间
type UpdateSystemConfigRequest struct {
	MaxChoicesPerStudent *int    `json:"max_choices_per_student" binding:"omitempty,min=1,max=5"`
	ChoiceDeadline       *string `json:"choice_deadline"         binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ClearChoiceDeadline  bool    `json:"clear_choice_deadline"`
	NotifyOnAssignment   *bool   `json:"notify_on_assignment"`
}

// SystemConfigResponse 系统配置响应
type SystemConfigResponse struct {
	MaxChoicesPerStudent int     `json:"max_choices_per_student"`
	ChoiceDeadline       *string `json:"choice_deadline"`
	NotifyOnAssignment   bool    `json:"notify_on_assignment"`
	UpdatedAt            string  `json:"updated_at"`
}
