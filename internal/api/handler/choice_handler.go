package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/service"
	"pfe-hub/backend/pkg/response"
)

// ChoiceHandler 志愿模块 HTTP 处理器
type ChoiceHandler struct {
	choiceSvc service.ChoiceService
}

// NewChoiceHandler 创建 ChoiceHandler
func NewChoiceHandler(choiceSvc service.ChoiceService) *ChoiceHandler {
	return &ChoiceHandler{choiceSvc: choiceSvc}
}

// CreateChoice 填报志愿（学生为本人填报；管理员需指定 student_id）
// POST /api/v1/choices
func (h *ChoiceHandler) CreateChoice(c *gin.Context) {
	var req dto.CreateChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	choice, err := h.choiceSvc.Create(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleChoiceError(c, err)
		return
	}
	response.Created(c, choice)
}

// DeleteChoice 撤回志愿
// DELETE /api/v1/choices/:id
func (h *ChoiceHandler) DeleteChoice(c *gin.Context) {
	id, ok := mustParam(c, "id", "志愿ID")
	if !ok {
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.choiceSvc.Delete(c.Request.Context(), id, callerID, role); err != nil {
		h.handleChoiceError(c, err)
		return
	}
	response.OK(c, nil)
}

// CountStudents 已填报志愿的学生数
// GET /api/v1/choices/students/count
func (h *ChoiceHandler) CountStudents(c *gin.Context) {
	n, err := h.choiceSvc.CountDistinctStudents(c.Request.Context())
	if err != nil {
		h.handleChoiceError(c, err)
		return
	}
	response.OK(c, dto.CountResponse{Count: n})
}

func (h *ChoiceHandler) handleChoiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChoiceNotFound):
		response.NotFound(c, 15001, "志愿不存在")
	case errors.Is(err, service.ErrDuplicateChoice):
		response.Conflict(c, 15002, "已填报过该选题")
	case errors.Is(err, service.ErrTooManyChoices):
		response.BadRequest(c, 15003, "志愿数量已达上限")
	case errors.Is(err, service.ErrInvalidPartner):
		response.BadRequest(c, 15004, "搭档无效")
	case errors.Is(err, service.ErrInvalidRank):
		response.BadRequest(c, 15005, "志愿序号必须在 1 到 5 之间")
	case errors.Is(err, service.ErrChoicesClosed):
		response.Conflict(c, 15006, "志愿填报已截止")
	case errors.Is(err, service.ErrSubjectNotApproved):
		response.Conflict(c, 15007, "选题尚未通过审核")
	case errors.Is(err, service.ErrChoiceStudentNeeded):
		response.BadRequest(c, 15008, "需指定学生")
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(c, 15009, "只能操作本人的数据")
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 14001, "选题不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, "学生不存在")
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
