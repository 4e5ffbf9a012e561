package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
	"pfe-hub/backend/internal/service"
	"pfe-hub/backend/pkg/response"
)

// DocumentHandler 文档模块 HTTP 处理器
type DocumentHandler struct {
	documentSvc service.DocumentService
}

// NewDocumentHandler 创建 DocumentHandler
func NewDocumentHandler(documentSvc service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentSvc: documentSvc}
}

// UploadDocument 上传文档（multipart：file + type [+ student_id, internship_id]）
// POST /api/v1/documents
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	var req dto.UploadDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		badBinding(c, err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "请选择要上传的文件")
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	doc, err := h.documentSvc.Upload(c.Request.Context(), &service.UploadInput{
		Type:         req.Type,
		StudentID:    req.StudentID,
		InternshipID: req.InternshipID,
		FileName:     fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Body:         f,
	}, callerID, role)
	if err != nil {
		h.handleDocumentError(c, err)
		return
	}
	response.Created(c, doc)
}

// ListDocuments 文档列表；学生只能看到本人文档
// GET /api/v1/documents?status=&attached=&student_id=&internship_id=
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var req dto.DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	filter := repository.DocumentFilter{
		StudentID:    c.Query("student_id"),
		InternshipID: c.Query("internship_id"),
		Status:       model.DocumentStatus(req.Status),
		Attached:     req.Attached,
	}
	if role == model.RoleStudent {
		filter.StudentID = callerID
	}

	list, err := h.documentSvc.List(c.Request.Context(), filter)
	if err != nil {
		h.handleDocumentError(c, err)
		return
	}
	response.OKList(c, list)
}

// GetDocument 文档详情
// GET /api/v1/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := mustParam(c, "id", "文档ID")
	if !ok {
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	doc, err := h.documentSvc.GetByID(c.Request.Context(), id, callerID, role)
	if err != nil {
		h.handleDocumentError(c, err)
		return
	}
	response.OK(c, doc)
}

// DownloadDocument 下载文档文件
// GET /api/v1/documents/:id/download
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id, ok := mustParam(c, "id", "文档ID")
	if !ok {
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	file, err := h.documentSvc.Download(c.Request.Context(), id, callerID, role)
	if err != nil {
		h.handleDocumentError(c, err)
		return
	}
	defer file.Body.Close()

	response.Attachment(c, file.FileName, file.ContentType, file.Size, file.Body)
}

// ValidateDocument 审核通过
// PUT /api/v1/documents/:id/validate
func (h *DocumentHandler) ValidateDocument(c *gin.Context) {
	id, ok := mustParam(c, "id", "文档ID")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	doc, err := h.documentSvc.Validate(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleDocumentError(c, err)
		return
	}
	response.OK(c, doc)
}

// RejectDocument 驳回文档
// PUT /api/v1/documents/:id/reject
func (h *DocumentHandler) RejectDocument(c *gin.Context) {
	id, ok := mustParam(c, "id", "文档ID")
	if !ok {
		return
	}
	var req dto.RejectDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	doc, err := h.documentSvc.Reject(c.Request.Context(), id, req.Reason, callerID)
	if err != nil {
		h.handleDocumentError(c, err)
		return
	}
	response.OK(c, doc)
}

// DeleteDocument 删除文档
// DELETE /api/v1/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, ok := mustParam(c, "id", "文档ID")
	if !ok {
		return
	}
	callerID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.documentSvc.Delete(c.Request.Context(), id, callerID, role); err != nil {
		h.handleDocumentError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *DocumentHandler) handleDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		response.NotFound(c, 18001, "文档不存在")
	case errors.Is(err, service.ErrDocumentType):
		response.BadRequest(c, 18002, "不支持的文档类型")
	case errors.Is(err, service.ErrDocumentExtension):
		response.BadRequest(c, 18003, "不支持的文件格式")
	case errors.Is(err, service.ErrDocumentFileMissing):
		response.NotFound(c, 18004, "文档文件已丢失")
	case errors.Is(err, service.ErrDocumentNotPending):
		response.Conflict(c, 18005, "文档已审核，不能重复操作")
	case errors.Is(err, service.ErrInternshipNotOwned):
		response.BadRequest(c, 18006, "实习不属于该学生")
	case errors.Is(err, service.ErrDocumentStudentEmpty):
		response.BadRequest(c, 18007, "需指定学生")
	case errors.Is(err, service.ErrInternshipNotFound):
		response.NotFound(c, 18101, "实习不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, "学生不存在")
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(c, 15009, "只能操作本人的数据")
	default:
		response.InternalError(c)
	}
}
