package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/service"
	"pfe-hub/backend/pkg/response"
)

// StudentHandler 学生模块 HTTP 处理器
type StudentHandler struct {
	studentSvc    service.StudentService
	assignmentSvc service.AssignmentService
	choiceSvc     service.ChoiceService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService, assignmentSvc service.AssignmentService, choiceSvc service.ChoiceService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc, assignmentSvc: assignmentSvc, choiceSvc: choiceSvc}
}

// ListStudents 学生列表（分页）
// GET /api/v1/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badBinding(c, err)
		return
	}

	list, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetStudent 学生详情
// GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := h.visibleStudentID(c)
	if !ok {
		return
	}

	st, err := h.studentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, st)
}

// CreateStudent 创建学生
// POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	st, err := h.studentSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.Created(c, st)
}

// UpdateStudent 部分更新学生
// PATCH /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := mustParam(c, "id", "学生ID")
	if !ok {
		return
	}
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	st, err := h.studentSvc.Update(c.Request.Context(), id, &req, callerID, role)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, st)
}

// DeleteStudent 删除学生
// DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := mustParam(c, "id", "学生ID")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, nil)
}

// Ranking 重新计算并返回成绩排名
// GET /api/v1/students/ranking
func (h *StudentHandler) Ranking(c *gin.Context) {
	list, err := h.studentSvc.Ranking(c.Request.Context())
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OKList(c, list)
}

// CountStudents 学生总数
// GET /api/v1/students/count
func (h *StudentHandler) CountStudents(c *gin.Context) {
	n, err := h.studentSvc.Count(c.Request.Context())
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, dto.CountResponse{Count: n})
}

// ImportGrades Excel 导入成绩（multipart 字段 file）
// POST /api/v1/students/import
func (h *StudentHandler) ImportGrades(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "请上传 Excel 文件")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	rows, err := h.studentSvc.ParseImportFile(f)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	result, err := h.studentSvc.Import(c.Request.Context(), rows, callerID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, result)
}

// GetAssignment 学生的分配结果；未分配时 data 为 null
// GET /api/v1/students/:id/assignment
func (h *StudentHandler) GetAssignment(c *gin.Context) {
	id, ok := h.visibleStudentID(c)
	if !ok {
		return
	}

	a, err := h.assignmentSvc.FindByStudent(c.Request.Context(), id)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, a)
}

// ListChoices 学生的志愿列表
// GET /api/v1/students/:id/choices
func (h *StudentHandler) ListChoices(c *gin.Context) {
	id, ok := h.visibleStudentID(c)
	if !ok {
		return
	}

	list, err := h.choiceSvc.ListByStudent(c.Request.Context(), id)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OKList(c, list)
}

// visibleStudentID 学生只能访问本人；"me" 解析为当前登录学生
func (h *StudentHandler) visibleStudentID(c *gin.Context) (string, bool) {
	id, ok := mustParam(c, "id", "学生ID")
	if !ok {
		return "", false
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return "", false
	}
	if id == "me" {
		id = callerID
	}
	if role == model.RoleStudent && id != callerID {
		response.Forbidden(c, 12003, "只能查看本人信息")
		return "", false
	}
	return id, true
}

func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, "学生不存在")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 12002, "邮箱已被使用")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 12003, "无权操作")
	case errors.Is(err, service.ErrStudentAssigned):
		response.Conflict(c, 12004, "学生已有分配，不能删除")
	case errors.Is(err, service.ErrSupervisorNotFound):
		response.BadRequest(c, 12005, "指导教师不存在")
	case errors.Is(err, service.ErrImportNoData),
		errors.Is(err, service.ErrImportBadHeader),
		errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 12006, err.Error())
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
