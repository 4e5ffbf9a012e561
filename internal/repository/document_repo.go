package repository

import (
	"context"

	"gorm.io/gorm"

	"pfe-hub/backend/internal/model"
)

// DocumentFilter 文档列表过滤条件
// Attached: nil 不过滤；true 仅关联实习的文档；false 仅未关联实习的文档
type DocumentFilter struct {
	StudentID    string
	InternshipID string
	Status       model.DocumentStatus
	Attached     *bool
}

// DocumentRepository 文档数据访问接口
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id string) (*model.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]model.Document, error)
	UpdateStatus(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id string) error
}

type documentRepo struct {
	db *gorm.DB
}

// NewDocumentRepo 创建 DocumentRepository 实例
func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Omit("Student", "Internship").Create(doc).Error
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("document_id = ?", id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := r.db.WithContext(ctx).Model(&model.Document{}).Preload("Student")

	if filter.StudentID != "" {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.InternshipID != "" {
		query = query.Where("internship_id = ?", filter.InternshipID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Attached != nil {
		if *filter.Attached {
			query = query.Where("internship_id IS NOT NULL")
		} else {
			query = query.Where("internship_id IS NULL")
		}
	}

	var docs []model.Document
	err := query.Order("uploaded_at DESC").Find(&docs).Error
	return docs, err
}

func (r *documentRepo) UpdateStatus(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("document_id = ?", doc.DocumentID).
		Updates(map[string]interface{}{
			"status":        doc.Status,
			"reject_reason": doc.RejectReason,
			"updated_by":    doc.UpdatedBy,
		}).Error
}

func (r *documentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("document_id = ?", id).Delete(&model.Document{}).Error
}
