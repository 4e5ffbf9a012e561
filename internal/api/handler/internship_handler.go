package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/service"
	"pfe-hub/backend/pkg/response"
)

// InternshipHandler 实习模块 HTTP 处理器
type InternshipHandler struct {
	internshipSvc service.InternshipService
}

// NewInternshipHandler 创建 InternshipHandler
func NewInternshipHandler(internshipSvc service.InternshipService) *InternshipHandler {
	return &InternshipHandler{internshipSvc: internshipSvc}
}

// CreateInternship 登记实习（状态强制为 pending）
// POST /api/v1/internships
func (h *InternshipHandler) CreateInternship(c *gin.Context) {
	var req dto.CreateInternshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	in, err := h.internshipSvc.Create(c.Request.Context(), &req, callerID, role)
	if err != nil {
		h.handleInternshipError(c, err)
		return
	}
	response.Created(c, in)
}

// ListInternships 实习列表；学生只能看到本人
// GET /api/v1/internships?student_id=&status=
func (h *InternshipHandler) ListInternships(c *gin.Context) {
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}
	studentID := c.Query("student_id")
	if role == model.RoleStudent {
		studentID = callerID
	}
	status := c.Query("status")
	if status != "" && !model.InternshipStatus(status).Valid() {
		response.BadRequest(c, 10001, "无效的实习状态")
		return
	}

	list, err := h.internshipSvc.List(c.Request.Context(), studentID, status)
	if err != nil {
		h.handleInternshipError(c, err)
		return
	}
	response.OKList(c, list)
}

// GetInternship 实习详情（含文档与报告提交状态）
// GET /api/v1/internships/:id
func (h *InternshipHandler) GetInternship(c *gin.Context) {
	id, ok := mustParam(c, "id", "实习ID")
	if !ok {
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	in, err := h.internshipSvc.GetByID(c.Request.Context(), id, callerID, role)
	if err != nil {
		h.handleInternshipError(c, err)
		return
	}
	response.OK(c, in)
}

// ValidateInternship 验收实习
// PUT /api/v1/internships/:id/validate
func (h *InternshipHandler) ValidateInternship(c *gin.Context) {
	id, ok := mustParam(c, "id", "实习ID")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	in, err := h.internshipSvc.Validate(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleInternshipError(c, err)
		return
	}
	response.OK(c, in)
}

// UpdateStatus 修改实习状态（携带 version 做乐观锁）
// PUT /api/v1/internships/:id/status
func (h *InternshipHandler) UpdateStatus(c *gin.Context) {
	id, ok := mustParam(c, "id", "实习ID")
	if !ok {
		return
	}
	var req dto.UpdateInternshipStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	in, err := h.internshipSvc.UpdateStatus(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleInternshipError(c, err)
		return
	}
	response.OK(c, in)
}

// InternshipStats 实习统计
// GET /api/v1/internships/stats
func (h *InternshipHandler) InternshipStats(c *gin.Context) {
	stats, err := h.internshipSvc.Stats(c.Request.Context())
	if err != nil {
		h.handleInternshipError(c, err)
		return
	}
	response.OK(c, stats)
}

func (h *InternshipHandler) handleInternshipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInternshipNotFound):
		response.NotFound(c, 18101, "实习不存在")
	case errors.Is(err, service.ErrInternshipDateRange):
		response.BadRequest(c, 18102, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrInternshipStatus):
		response.BadRequest(c, 18103, "无效的实习状态")
	case errors.Is(err, service.ErrChoiceStudentNeeded):
		response.BadRequest(c, 18104, "需指定学生")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, "学生不存在")
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(c, 15009, "只能操作本人的数据")
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
