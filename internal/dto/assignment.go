package dto

// ── 选题分配 DTO ──

// AssignmentResponse 分配的扁平视图（以姓名代替对象引用）
type AssignmentResponse struct {
	ID           string  `json:"id"`
	SubjectID    string  `json:"subject_id"`
	SubjectTitle string  `json:"subject_title"`
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name"`
	PartnerID    *string `json:"partner_id,omitempty"`
	PartnerName  *string `json:"partner_name,omitempty"`
	SupervisorID *string `json:"supervisor_id,omitempty"`
	Supervisor   string  `json:"supervisor"`
	AssignedAt   string  `json:"assigned_at"`
}

// 单个选题在一次自动分配中的处理结果
const (
	OutcomeAssigned     = "assigned"
	OutcomePending      = "pending"       // 自拟选题仍待审核
	OutcomeRejected     = "rejected"      // 自拟选题已被驳回
	OutcomeAlreadyTaken = "already_taken" // 选题或学生已被分配
	OutcomeNoCandidate  = "no_candidate"  // 无可用志愿
	OutcomeConflict     = "conflict"      // 并发写入触发唯一约束
	OutcomeFailed       = "failed"
)

// AssignmentRunItem 单条处理记录
type AssignmentRunItem struct {
	Phase        int    `json:"phase"`
	SubjectID    string `json:"subject_id"`
	StudentID    string `json:"student_id,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason,omitempty"`
}

// AssignmentRunResponse 一次自动分配的汇总
// Status: completed（无失败）| partial（存在失败，其余选题已照常处理）
type AssignmentRunResponse struct {
	Status      string               `json:"status"`
	Created     int                  `json:"created"`
	Failed      int                  `json:"failed"`
	Items       []AssignmentRunItem  `json:"items"`
	Assignments []AssignmentResponse `json:"assignments"`
}

// SupervisedProjectResponse 教师指导的项目
type SupervisedProjectResponse struct {
	AssignmentID string   `json:"assignment_id"`
	SubjectID    string   `json:"subject_id"`
	SubjectTitle string   `json:"subject_title"`
	Students     string   `json:"students"`
	StudentIDs   []string `json:"student_ids"`
	StartDate    string   `json:"start_date"`
	ExpectedEnd  string   `json:"expected_end"`
}
