package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/service"
	"pfe-hub/backend/pkg/response"
)

// AdminHandler 管理员账号 HTTP 处理器
type AdminHandler struct {
	adminSvc service.AdminService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// ListAdmins 管理员列表
// GET /api/v1/admins
func (h *AdminHandler) ListAdmins(c *gin.Context) {
	list, err := h.adminSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKList(c, list)
}

// CreateAdmin 创建管理员
// POST /api/v1/admins
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	var req dto.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	admin, err := h.adminSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.Created(c, admin)
}

// DeleteAdmin 删除管理员
// DELETE /api/v1/admins/:id
func (h *AdminHandler) DeleteAdmin(c *gin.Context) {
	id, ok := mustParam(c, "id", "管理员ID")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.adminSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAdminNotFound):
		response.NotFound(c, 13101, "管理员不存在")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 13102, "邮箱已被使用")
	case errors.Is(err, service.ErrAdminSelfDelete):
		response.Conflict(c, 13103, "不能删除自己")
	case errors.Is(err, service.ErrLastAdmin):
		response.Conflict(c, 13104, "至少保留一名管理员")
	default:
		response.InternalError(c)
	}
}
