package dto

// ── 学生 / 教师 / 管理员 DTO ──

// CreateStudentRequest 创建学生请求
type CreateStudentRequest struct {
	FirstName    string   `json:"first_name"    binding:"required,min=1,max=50"`
	LastName     string   `json:"last_name"     binding:"required,min=1,max=50"`
	Email        string   `json:"email"         binding:"required,email"`
	Password     string   `json:"password"      binding:"required,min=8,max=64"`
	Section      string   `json:"section"       binding:"omitempty,max=50"`
	Group        string   `json:"group"         binding:"omitempty,max=50"`
	Average      *float64 `json:"average"       binding:"omitempty,grade"`
	SupervisorID *string  `json:"supervisor_id" binding:"omitempty,uuid"`
}

// UpdateStudentRequest 部分更新学生（nil 字段保持不变）
type UpdateStudentRequest struct {
	FirstName    *string  `json:"first_name"    binding:"omitempty,min=1,max=50"`
	LastName     *string  `json:"last_name"     binding:"omitempty,min=1,max=50"`
	Email        *string  `json:"email"         binding:"omitempty,email"`
	Password     *string  `json:"password"      binding:"omitempty,min=8,max=64"`
	Section      *string  `json:"section"       binding:"omitempty,max=50"`
	Group        *string  `json:"group"         binding:"omitempty,max=50"`
	Average      *float64 `json:"average"       binding:"omitempty,grade"`
	SupervisorID *string  `json:"supervisor_id" binding:"omitempty,uuid"`
}

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	PaginationRequest
	Section      string `form:"section"       binding:"omitempty,max=50"`
	Group        string `form:"group"         binding:"omitempty,max=50"`
	SupervisorID string `form:"supervisor_id" binding:"omitempty,uuid"`
	Keyword      string `form:"keyword"       binding:"omitempty,max=50"`
}

// StudentResponse 学生信息
type StudentResponse struct {
	ID         string       `json:"id"`
	FirstName  string       `json:"first_name"`
	LastName   string       `json:"last_name"`
	FullName   string       `json:"full_name"`
	Email      string       `json:"email"`
	Section    string       `json:"section"`
	Group      string       `json:"group"`
	Average    *float64     `json:"average"`
	MeritRank  *int         `json:"merit_rank"`
	Supervisor *PersonBrief `json:"supervisor,omitempty"`
	CreatedAt  string       `json:"created_at"`
}

// PersonBrief 人员简要信息
type PersonBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ImportStudentsResponse Excel 导入结果
type ImportStudentsResponse struct {
	Total   int           `json:"total"`
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Failed  int           `json:"failed"`
	Errors  []ImportError `json:"errors,omitempty"`
}

// ImportError 导入错误详情
type ImportError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// CreateTeacherRequest 创建教师请求
type CreateTeacherRequest struct {
	FirstName  string `json:"first_name" binding:"required,min=1,max=50"`
	LastName   string `json:"last_name"  binding:"required,min=1,max=50"`
	Email      string `json:"email"      binding:"required,email"`
	Password   string `json:"password"   binding:"required,min=8,max=64"`
	Department string `json:"department" binding:"omitempty,max=100"`
	Position   string `json:"position"   binding:"omitempty,max=100"`
	Office     string `json:"office"     binding:"omitempty,max=50"`
}

// UpdateTeacherRequest 部分更新教师
type UpdateTeacherRequest struct {
	FirstName  *string `json:"first_name" binding:"omitempty,min=1,max=50"`
	LastName   *string `json:"last_name"  binding:"omitempty,min=1,max=50"`
	Email      *string `json:"email"      binding:"omitempty,email"`
	Password   *string `json:"password"   binding:"omitempty,min=8,max=64"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	Position   *string `json:"position"   binding:"omitempty,max=100"`
	Office     *string `json:"office"     binding:"omitempty,max=50"`
}

// TeacherResponse 教师信息
type TeacherResponse struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Position   string `json:"position"`
	Office     string `json:"office"`
	CreatedAt  string `json:"created_at"`
}

// TeacherStatsResponse 教师工作量统计
type TeacherStatsResponse struct {
	SubjectsTotal      int64 `json:"subjects_total"`
	SubjectsPending    int64 `json:"subjects_pending"`
	SubjectsApproved   int64 `json:"subjects_approved"`
	SubjectsAssigned   int64 `json:"subjects_assigned"`
	StudentsSupervised int64 `json:"students_supervised"`
}

// CreateAdminRequest 创建管理员请求
type CreateAdminRequest struct {
	FirstName string `json:"first_name" binding:"required,min=1,max=50"`
	LastName  string `json:"last_name"  binding:"required,min=1,max=50"`
	Email     string `json:"email"      binding:"required,email"`
	Password  string `json:"password"   binding:"required,min=8,max=64"`
}

// AdminResponse 管理员信息
type AdminResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}
