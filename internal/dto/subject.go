package dto

// ── 选题 / 志愿 DTO ──

// CreateSubjectRequest 教师或管理员发布选题
// 教师发布时 supervisor_id 忽略，强制为本人
type CreateSubjectRequest struct {
	Title        string   `json:"title"         binding:"required,min=2,max=200"`
	Description  string   `json:"description"   binding:"omitempty,max=5000"`
	Domain       string   `json:"domain"        binding:"omitempty,max=100"`
	Difficulty   string   `json:"difficulty"    binding:"omitempty,oneof=easy medium hard"`
	Technologies []string `json:"technologies"  binding:"omitempty,max=20,dive,min=1,max=50"`
	SupervisorID *string  `json:"supervisor_id" binding:"omitempty,uuid"`
}

// UpdateSubjectRequest 修改选题（仅待审核状态可改）
type UpdateSubjectRequest struct {
	Title        *string  `json:"title"         binding:"omitempty,min=2,max=200"`
	Description  *string  `json:"description"   binding:"omitempty,max=5000"`
	Domain       *string  `json:"domain"        binding:"omitempty,max=100"`
	Difficulty   *string  `json:"difficulty"    binding:"omitempty,oneof=easy medium hard"`
	Technologies []string `json:"technologies"  binding:"omitempty,max=20,dive,min=1,max=50"`
	SupervisorID *string  `json:"supervisor_id" binding:"omitempty,uuid"`
}

// ProposeSubjectRequest 学生自拟选题申报
type ProposeSubjectRequest struct {
	Title        string   `json:"title"         binding:"required,min=2,max=200"`
	Description  string   `json:"description"   binding:"omitempty,max=5000"`
	Domain       string   `json:"domain"        binding:"omitempty,max=100"`
	Technologies []string `json:"technologies"  binding:"omitempty,max=20,dive,min=1,max=50"`
	SupervisorID *string  `json:"supervisor_id" binding:"omitempty,uuid"`
	PartnerID    *string  `json:"partner_id"    binding:"omitempty,uuid"`
}

// SubjectListRequest 选题列表过滤
type SubjectListRequest struct {
	Status       string `form:"status"        binding:"omitempty,subject_status"`
	Origin       string `form:"origin"        binding:"omitempty,oneof=proposal standard"`
	SupervisorID string `form:"supervisor_id" binding:"omitempty,uuid"`
	Unassigned   bool   `form:"unassigned"`
}

// SubjectResponse 选题信息
type SubjectResponse struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Domain            string       `json:"domain"`
	Difficulty        string       `json:"difficulty"`
	Technologies      []string     `json:"technologies"`
	ProposedAt        string       `json:"proposed_at"`
	Status            string       `json:"status"`
	StatusLabel       string       `json:"status_label"`
	IsStudentProposal bool         `json:"is_student_proposal"`
	Supervisor        *PersonBrief `json:"supervisor,omitempty"`
}

// SubjectStatsResponse 选题统计
type SubjectStatsResponse struct {
	Total            int64 `json:"total"`
	Pending          int64 `json:"pending"`
	Approved         int64 `json:"approved"`
	Rejected         int64 `json:"rejected"`
	DistinctTeachers int64 `json:"distinct_teachers"`
}

// ProposalResponse 自拟选题申报结果
type ProposalResponse struct {
	Subject SubjectResponse `json:"subject"`
	Choice  ChoiceResponse  `json:"choice"`
}

// CreateChoiceRequest 填报志愿
// student_id 仅管理员代填时使用，学生本人填报时取登录身份
type CreateChoiceRequest struct {
	StudentID      string  `json:"student_id"      binding:"omitempty,uuid"`
	SubjectID      string  `json:"subject_id"      binding:"required,uuid"`
	PreferenceRank int     `json:"preference_rank" binding:"required,preference_rank"`
	PartnerID      *string `json:"partner_id"      binding:"omitempty,uuid"`
}

// ChoiceResponse 志愿信息
type ChoiceResponse struct {
	ID             string       `json:"id"`
	StudentID      string       `json:"student_id"`
	SubjectID      string       `json:"subject_id"`
	SubjectTitle   string       `json:"subject_title,omitempty"`
	PreferenceRank int          `json:"preference_rank"`
	Partner        *PersonBrief `json:"partner,omitempty"`
	IsProposal     bool         `json:"is_proposal"`
	CreatedAt      string       `json:"created_at"`
}
