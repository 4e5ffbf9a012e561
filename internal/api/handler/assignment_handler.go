package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/internal/service"
	"pfe-hub/backend/pkg/response"
)

// AssignmentHandler 分配模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// RunAutomatic 触发自动分配，返回逐选题的运行报告
// POST /api/v1/assignments/auto
func (h *AssignmentHandler) RunAutomatic(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.assignmentSvc.RunAutomatic(c.Request.Context(), callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// ListAssignments 全部分配结果
// GET /api/v1/assignments
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	list, err := h.assignmentSvc.List(c.Request.Context())
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OKList(c, list)
}

// GetAssignment 分配详情
// GET /api/v1/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	id, ok := mustParam(c, "id", "分配ID")
	if !ok {
		return
	}

	a, err := h.assignmentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, a)
}

// DeleteAssignment 取消分配并通知相关人员
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	id, ok := mustParam(c, "id", "分配ID")
	if !ok {
		return
	}

	if err := h.assignmentSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 17001, "分配记录不存在")
	case errors.Is(err, service.ErrAssignmentRunInProgress):
		response.Conflict(c, 17002, "自动分配正在进行中，请稍后再试")
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
