package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/service"
	"pfe-hub/backend/pkg/response"
)

// TeacherHandler 教师模块 HTTP 处理器（含指导反馈与会议）
type TeacherHandler struct {
	teacherSvc     service.TeacherService
	supervisionSvc service.SupervisionService
}

// NewTeacherHandler 创建 TeacherHandler
func NewTeacherHandler(teacherSvc service.TeacherService, supervisionSvc service.SupervisionService) *TeacherHandler {
	return &TeacherHandler{teacherSvc: teacherSvc, supervisionSvc: supervisionSvc}
}

// ListTeachers 教师列表
// GET /api/v1/teachers?department=xxx
func (h *TeacherHandler) ListTeachers(c *gin.Context) {
	list, err := h.teacherSvc.List(c.Request.Context(), c.Query("department"))
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OKList(c, list)
}

// GetTeacher 教师详情
// GET /api/v1/teachers/:id
func (h *TeacherHandler) GetTeacher(c *gin.Context) {
	id, ok := h.teacherID(c)
	if !ok {
		return
	}

	t, err := h.teacherSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, t)
}

// CreateTeacher 创建教师
// POST /api/v1/teachers
func (h *TeacherHandler) CreateTeacher(c *gin.Context) {
	var req dto.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	t, err := h.teacherSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.Created(c, t)
}

// UpdateTeacher 部分更新教师
// PATCH /api/v1/teachers/:id
func (h *TeacherHandler) UpdateTeacher(c *gin.Context) {
	id, ok := h.teacherID(c)
	if !ok {
		return
	}
	var req dto.UpdateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	t, err := h.teacherSvc.Update(c.Request.Context(), id, &req, callerID, role)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, t)
}

// DeleteTeacher 删除教师
// DELETE /api/v1/teachers/:id
func (h *TeacherHandler) DeleteTeacher(c *gin.Context) {
	id, ok := mustParam(c, "id", "教师ID")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.teacherSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, nil)
}

// ProposedSubjects 教师发布的选题
// GET /api/v1/teachers/:id/subjects
func (h *TeacherHandler) ProposedSubjects(c *gin.Context) {
	id, ok := h.teacherID(c)
	if !ok {
		return
	}

	list, err := h.teacherSvc.ProposedSubjects(c.Request.Context(), id)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OKList(c, list)
}

// SupervisedProjects 教师指导的项目
// GET /api/v1/teachers/:id/projects
func (h *TeacherHandler) SupervisedProjects(c *gin.Context) {
	id, ok := h.teacherID(c)
	if !ok {
		return
	}

	list, err := h.teacherSvc.SupervisedProjects(c.Request.Context(), id)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OKList(c, list)
}

// TeacherStats 教师工作量统计
// GET /api/v1/teachers/:id/stats
func (h *TeacherHandler) TeacherStats(c *gin.Context) {
	id, ok := h.teacherID(c)
	if !ok {
		return
	}

	stats, err := h.teacherSvc.Stats(c.Request.Context(), id)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, stats)
}

// ── 指导反馈 / 会议 ──

// AddFeedback 指导教师提交反馈
// POST /api/v1/subjects/:id/feedback
func (h *TeacherHandler) AddFeedback(c *gin.Context) {
	subjectID, ok := mustParam(c, "id", "选题ID")
	if !ok {
		return
	}
	var req dto.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fb, err := h.supervisionSvc.AddFeedback(c.Request.Context(), subjectID, &req, callerID)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.Created(c, fb)
}

// ListFeedback 选题的反馈记录
// GET /api/v1/subjects/:id/feedback
func (h *TeacherHandler) ListFeedback(c *gin.Context) {
	subjectID, ok := mustParam(c, "id", "选题ID")
	if !ok {
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.supervisionSvc.ListFeedback(c.Request.Context(), subjectID, callerID, role)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OKList(c, list)
}

// ScheduleMeeting 安排指导会议
// POST /api/v1/subjects/:id/meetings
func (h *TeacherHandler) ScheduleMeeting(c *gin.Context) {
	subjectID, ok := mustParam(c, "id", "选题ID")
	if !ok {
		return
	}
	var req dto.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	m, err := h.supervisionSvc.ScheduleMeeting(c.Request.Context(), subjectID, &req, callerID)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.Created(c, m)
}

// ListMeetings 选题的会议记录
// GET /api/v1/subjects/:id/meetings
func (h *TeacherHandler) ListMeetings(c *gin.Context) {
	subjectID, ok := mustParam(c, "id", "选题ID")
	if !ok {
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.supervisionSvc.ListMeetings(c.Request.Context(), subjectID, callerID, role)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OKList(c, list)
}

// teacherID "me" 解析为当前登录教师
func (h *TeacherHandler) teacherID(c *gin.Context) (string, bool) {
	id, ok := mustParam(c, "id", "教师ID")
	if !ok {
		return "", false
	}
	if id != "me" {
		return id, true
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return "", false
	}
	if role != model.RoleTeacher {
		response.BadRequest(c, 10001, "当前账号不是教师")
		return "", false
	}
	return callerID, true
}

func (h *TeacherHandler) handleTeacherError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 13001, "教师不存在")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 13002, "邮箱已被使用")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 13003, "无权操作")
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 14001, "选题不存在")
	case errors.Is(err, service.ErrNotSupervisor):
		response.Forbidden(c, 14005, "非该选题的指导教师")
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
