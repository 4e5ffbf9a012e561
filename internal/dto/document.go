package dto

// ── 文档 / 实习 DTO ──

// UploadDocumentRequest 文档上传表单字段（文件本身为 multipart "file"）
type UploadDocumentRequest struct {
	Type         string `form:"type"          binding:"required,oneof=report poster attestation other"`
	StudentID    string `form:"student_id"    binding:"omitempty,uuid"`
	InternshipID string `form:"internship_id" binding:"omitempty,uuid"`
}

// DocumentListRequest 文档列表过滤
type DocumentListRequest struct {
	Status   string `form:"status"   binding:"omitempty,oneof=pending validated rejected"`
	Attached *bool  `form:"attached"`
}

// RejectDocumentRequest 驳回文档
type RejectDocumentRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// DocumentResponse 文档信息
type DocumentResponse struct {
	ID           string  `json:"id"`
	FileName     string  `json:"file_name"`
	ContentType  string  `json:"content_type"`
	Size         int64   `json:"size"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	RejectReason *string `json:"reject_reason,omitempty"`
	UploadedAt   string  `json:"uploaded_at"`
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name,omitempty"`
	InternshipID *string `json:"internship_id,omitempty"`
}

// CreateInternshipRequest 登记实习
type CreateInternshipRequest struct {
	StudentID               string `json:"student_id"                binding:"omitempty,uuid"`
	Company                 string `json:"company"                   binding:"required,min=1,max=200"`
	Project                 string `json:"project"                   binding:"required,min=1,max=200"`
	StartDate               string `json:"start_date"                binding:"required,datetime=2006-01-02"`
	EndDate                 string `json:"end_date"                  binding:"required,datetime=2006-01-02"`
	Location                string `json:"location"                  binding:"omitempty,max=200"`
	ExternalSupervisor      string `json:"external_supervisor"       binding:"omitempty,max=100"`
	ExternalSupervisorEmail string `json:"external_supervisor_email" binding:"omitempty,email"`
	Description             string `json:"description"               binding:"omitempty,max=5000"`
}

// UpdateInternshipStatusRequest 修改实习状态
type UpdateInternshipStatusRequest struct {
	Status  string `json:"status"  binding:"required,oneof=pending in_progress validated cancelled"`
	Version int    `json:"version" binding:"required,min=1"`
}

// InternshipResponse 实习信息
type InternshipResponse struct {
	ID                      string             `json:"id"`
	Company                 string             `json:"company"`
	Project                 string             `json:"project"`
	StartDate               string             `json:"start_date"`
	EndDate                 string             `json:"end_date"`
	Location                string             `json:"location"`
	ExternalSupervisor      string             `json:"external_supervisor"`
	ExternalSupervisorEmail string             `json:"external_supervisor_email"`
	Description             string             `json:"description"`
	Status                  string             `json:"status"`
	ReportStatus            string             `json:"report_status"`
	StudentID               string             `json:"student_id"`
	StudentName             string             `json:"student_name,omitempty"`
	Documents               []DocumentResponse `json:"documents,omitempty"`
	Version                 int                `json:"version"`
}

// InternshipStatsResponse 实习统计
type InternshipStatsResponse struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Validated  int64 `json:"validated"`
	Cancelled  int64 `json:"cancelled"`
}
