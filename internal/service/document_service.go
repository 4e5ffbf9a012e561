package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
	"pfe-hub/backend/pkg/storage"
)

// ── 文档模块业务错误 ──

var (
	ErrDocumentNotFound     = errors.New("文档不存在")
	ErrDocumentType         = errors.New("不支持的文档类型")
	ErrDocumentExtension    = errors.New("不支持的文件格式")
	ErrDocumentFileMissing  = errors.New("文档文件已丢失")
	ErrDocumentNotPending   = errors.New("文档已审核，不能重复操作")
	ErrInternshipNotOwned   = errors.New("实习不属于该学生")
	ErrDocumentStudentEmpty = errors.New("需指定学生")
)

// 允许上传的文件扩展名
var allowedDocumentExt = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".png": true, ".jpg": true, ".jpeg": true, ".zip": true,
}

// UploadInput 上传参数（文件流由 Handler 打开并负责关闭）
type UploadInput struct {
	Type         string
	StudentID    string
	InternshipID string
	FileName     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// DocumentFile 下载用的文件句柄，调用方负责关闭 Body
type DocumentFile struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// DocumentService 文档业务接口
type DocumentService interface {
	Upload(ctx context.Context, in *UploadInput, callerID, callerRole string) (*dto.DocumentResponse, error)
	GetByID(ctx context.Context, id, callerID, callerRole string) (*dto.DocumentResponse, error)
	List(ctx context.Context, filter repository.DocumentFilter) ([]dto.DocumentResponse, error)
	Download(ctx context.Context, id, callerID, callerRole string) (*DocumentFile, error)
	Validate(ctx context.Context, id, callerID string) (*dto.DocumentResponse, error)
	Reject(ctx context.Context, id, reason, callerID string) (*dto.DocumentResponse, error)
	Delete(ctx context.Context, id, callerID, callerRole string) error
}

type documentService struct {
	repo    *repository.Repository
	storage storage.Storage
	policy  InternshipPolicy
	logger  *zap.Logger
}

// NewDocumentService 创建 DocumentService 实例
// policy 可为 nil，此时审核通过不联动实习状态
func NewDocumentService(repo *repository.Repository, store storage.Storage, policy InternshipPolicy, logger *zap.Logger) DocumentService {
	return &documentService{repo: repo, storage: store, policy: policy, logger: logger}
}

// ────────────────────── Upload ──────────────────────

func (s *documentService) Upload(ctx context.Context, in *UploadInput, callerID, callerRole string) (*dto.DocumentResponse, error) {
	docType := model.DocumentType(in.Type)
	if !docType.Valid() {
		return nil, ErrDocumentType
	}
	ext := strings.ToLower(filepath.Ext(in.FileName))
	if !allowedDocumentExt[ext] {
		return nil, ErrDocumentExtension
	}

	studentID := in.StudentID
	if callerRole == model.RoleStudent {
		studentID = callerID
	}
	if studentID == "" {
		return nil, ErrDocumentStudentEmpty
	}
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	var internshipID *string
	if in.InternshipID != "" {
		internship, err := s.repo.Internship.GetByID(ctx, in.InternshipID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInternshipNotFound
			}
			return nil, err
		}
		if internship.StudentID != studentID {
			return nil, ErrInternshipNotOwned
		}
		internshipID = &internship.InternshipID
	}

	key := "documents/" + studentID + "/" + uuid.NewString() + ext
	if err := s.storage.Put(ctx, key, in.Body); err != nil {
		s.logger.Error("保存文档文件失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	doc := &model.Document{
		FileName:     filepath.Base(in.FileName),
		StorageKey:   key,
		ContentType:  contentType,
		Size:         in.Size,
		Type:         docType,
		Status:       model.DocumentPending,
		UploadedAt:   time.Now().UTC(),
		StudentID:    studentID,
		InternshipID: internshipID,
	}
	doc.StampCreated(callerID)

	if err := s.repo.Document.Create(ctx, doc); err != nil {
		s.logger.Error("创建文档记录失败", zap.Error(err))
		// 记录写入失败时清理已上传的文件
		if derr := s.storage.Delete(ctx, key); derr != nil {
			s.logger.Warn("清理文档文件失败", zap.String("key", key), zap.Error(derr))
		}
		return nil, err
	}

	resp := toDocumentResponse(doc)
	return &resp, nil
}

// ────────────────────── 查询 / 下载 ──────────────────────

func (s *documentService) GetByID(ctx context.Context, id, callerID, callerRole string) (*dto.DocumentResponse, error) {
	doc, err := s.loadVisible(ctx, id, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	resp := toDocumentResponse(doc)
	return &resp, nil
}

func (s *documentService) List(ctx context.Context, filter repository.DocumentFilter) ([]dto.DocumentResponse, error) {
	docs, err := s.repo.Document.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出文档失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		result = append(result, toDocumentResponse(&docs[i]))
	}
	return result, nil
}

func (s *documentService) Download(ctx context.Context, id, callerID, callerRole string) (*DocumentFile, error) {
	doc, err := s.loadVisible(ctx, id, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	body, err := s.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrDocumentFileMissing
		}
		s.logger.Error("读取文档文件失败", zap.String("key", doc.StorageKey), zap.Error(err))
		return nil, err
	}
	return &DocumentFile{
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		Body:        body,
	}, nil
}

// ────────────────────── 审核 ──────────────────────

func (s *documentService) Validate(ctx context.Context, id, callerID string) (*dto.DocumentResponse, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == model.DocumentValidated {
		resp := toDocumentResponse(doc)
		return &resp, nil
	}

	doc.Status = model.DocumentValidated
	doc.RejectReason = nil
	doc.StampUpdated(callerID)
	if err := s.repo.Document.UpdateStatus(ctx, doc); err != nil {
		s.logger.Error("更新文档状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 联动失败不影响审核结果
	if s.policy != nil {
		if err := s.policy.OnDocumentValidated(ctx, doc); err != nil {
			s.logger.Warn("实习状态联动失败", zap.String("document_id", id), zap.Error(err))
		}
	}

	resp := toDocumentResponse(doc)
	return &resp, nil
}

func (s *documentService) Reject(ctx context.Context, id, reason, callerID string) (*dto.DocumentResponse, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == model.DocumentValidated {
		return nil, ErrDocumentNotPending
	}

	doc.Status = model.DocumentRejected
	doc.RejectReason = &reason
	doc.StampUpdated(callerID)
	if err := s.repo.Document.UpdateStatus(ctx, doc); err != nil {
		s.logger.Error("更新文档状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toDocumentResponse(doc)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *documentService) Delete(ctx context.Context, id, callerID, callerRole string) error {
	doc, err := s.loadVisible(ctx, id, callerID, callerRole)
	if err != nil {
		return err
	}
	if callerRole == model.RoleStudent && doc.Status == model.DocumentValidated {
		return ErrDocumentNotPending
	}

	if err := s.repo.Document.Delete(ctx, id); err != nil {
		s.logger.Error("删除文档失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := s.storage.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn("删除文档文件失败", zap.String("key", doc.StorageKey), zap.Error(err))
	}
	return nil
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *documentService) load(ctx context.Context, id string) (*model.Document, error) {
	doc, err := s.repo.Document.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		s.logger.Error("查询文档失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return doc, nil
}

// loadVisible 学生只能访问自己的文档
func (s *documentService) loadVisible(ctx context.Context, id, callerID, callerRole string) (*model.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == model.RoleStudent && doc.StudentID != callerID {
		return nil, ErrNotOwner
	}
	return doc, nil
}

func toDocumentResponse(d *model.Document) dto.DocumentResponse {
	resp := dto.DocumentResponse{
		ID:           d.DocumentID,
		FileName:     d.FileName,
		ContentType:  d.ContentType,
		Size:         d.Size,
		Type:         string(d.Type),
		Status:       string(d.Status),
		RejectReason: d.RejectReason,
		UploadedAt:   dto.FormatTime(d.UploadedAt),
		StudentID:    d.StudentID,
		InternshipID: d.InternshipID,
	}
	if d.Student != nil {
		resp.StudentName = d.Student.FullName()
	}
	return resp
}
