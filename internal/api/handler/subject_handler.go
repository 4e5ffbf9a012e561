package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/service"
	"pfe-hub/backend/pkg/response"
)

// SubjectHandler 选题模块 HTTP 处理器
type SubjectHandler struct {
	subjectSvc service.SubjectService
	choiceSvc  service.ChoiceService
}

// NewSubjectHandler 创建 SubjectHandler
func NewSubjectHandler(subjectSvc service.SubjectService, choiceSvc service.ChoiceService) *SubjectHandler {
	return &SubjectHandler{subjectSvc: subjectSvc, choiceSvc: choiceSvc}
}

// ListSubjects 选题列表
// GET /api/v1/subjects?status=&origin=&supervisor_id=&unassigned=
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	var req dto.SubjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badBinding(c, err)
		return
	}

	list, err := h.subjectSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}
	response.OKList(c, list)
}

// GetSubject 选题详情
// GET /api/v1/subjects/:id
func (h *SubjectHandler) GetSubject(c *gin.Context) {
	id, ok := mustParam(c, "id", "选题ID")
	if !ok {
		return
	}

	s, err := h.subjectSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}
	response.OK(c, s)
}

// SubjectStats 选题统计
// GET /api/v1/subjects/stats
func (h *SubjectHandler) SubjectStats(c *gin.Context) {
	stats, err := h.subjectSvc.Stats(c.Request.Context())
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}
	response.OK(c, stats)
}

// CreateSubject 教师或管理员发布选题（状态强制为待审核）
// POST /api/v1/subjects
func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	s, err := h.subjectSvc.Create(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}
	response.Created(c, s)
}

// ProposeSubject 学生自拟选题
// POST /api/v1/subjects/proposals
func (h *SubjectHandler) ProposeSubject(c *gin.Context) {
	var req dto.ProposeSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.subjectSvc.Propose(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateSubject 修改待审核选题
// PATCH /api/v1/subjects/:id
func (h *SubjectHandler) UpdateSubject(c *gin.Context) {
	id, ok := mustParam(c, "id", "选题ID")
	if !ok {
		return
	}
	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	s, err := h.subjectSvc.Update(c.Request.Context(), id, &req, callerID, role)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}
	response.OK(c, s)
}

// ApproveSubject 审核通过
// PUT /api/v1/subjects/:id/approve
func (h *SubjectHandler) ApproveSubject(c *gin.Context) {
	h.review(c, h.subjectSvc.Approve)
}

// RejectSubject 审核驳回
// PUT /api/v1/subjects/:id/reject
func (h *SubjectHandler) RejectSubject(c *gin.Context) {
	h.review(c, h.subjectSvc.Reject)
}

func (h *SubjectHandler) review(c *gin.Context, fn func(ctx context.Context, id, callerID string) (*dto.SubjectResponse, error)) {
	id, ok := mustParam(c, "id", "选题ID")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	s, err := fn(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}
	response.OK(c, s)
}

// DeleteSubject 删除选题（已分配时拒绝）
// DELETE /api/v1/subjects/:id
func (h *SubjectHandler) DeleteSubject(c *gin.Context) {
	id, ok := mustParam(c, "id", "选题ID")
	if !ok {
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.subjectSvc.Delete(c.Request.Context(), id, callerID, role); err != nil {
		h.handleSubjectError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListChoices 选题收到的志愿（指导教师或管理员）
// GET /api/v1/subjects/:id/choices
func (h *SubjectHandler) ListChoices(c *gin.Context) {
	id, ok := mustParam(c, "id", "选题ID")
	if !ok {
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.choiceSvc.ListBySubject(c.Request.Context(), id, callerID, role)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}
	response.OKList(c, list)
}

func (h *SubjectHandler) handleSubjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 14001, "选题不存在")
	case errors.Is(err, service.ErrSubjectNotPending):
		response.Conflict(c, 14002, "仅待审核的选题可以修改")
	case errors.Is(err, service.ErrSubjectAssigned):
		response.Conflict(c, 14003, "选题已分配，不能执行该操作")
	case errors.Is(err, service.ErrSupervisorNotFound):
		response.BadRequest(c, 14004, "指导教师不存在")
	case errors.Is(err, service.ErrNotSupervisor):
		response.Forbidden(c, 14005, "非该选题的指导教师")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, "学生不存在")
	case errors.Is(err, service.ErrInvalidPartner):
		response.BadRequest(c, 15004, "搭档无效")
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
