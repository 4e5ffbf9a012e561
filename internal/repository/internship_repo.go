package repository

import (
	"context"

	"gorm.io/gorm"

	"pfe-hub/backend/internal/model"
	pkgerrors "pfe-hub/backend/pkg/errors"
)

// InternshipRepository 实习数据访问接口
type InternshipRepository interface {
	Create(ctx context.Context, internship *model.Internship) error
	GetByID(ctx context.Context, id string) (*model.Internship, error)
	List(ctx context.Context, studentID string, status model.InternshipStatus) ([]model.Internship, error)
	Update(ctx context.Context, internship *model.Internship) error
	CountByStatus(ctx context.Context) (map[model.InternshipStatus]int64, error)
}

type internshipRepo struct {
	db *gorm.DB
}

// NewInternshipRepo 创建 InternshipRepository 实例
func NewInternshipRepo(db *gorm.DB) InternshipRepository {
	return &internshipRepo{db: db}
}

func (r *internshipRepo) Create(ctx context.Context, internship *model.Internship) error {
	return r.db.WithContext(ctx).Omit("Student", "Documents").Create(internship).Error
}

func (r *internshipRepo) GetByID(ctx context.Context, id string) (*model.Internship, error) {
	var internship model.Internship
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at DESC") }).
		Where("internship_id = ?", id).
		First(&internship).Error
	if err != nil {
		return nil, err
	}
	return &internship, nil
}

func (r *internshipRepo) List(ctx context.Context, studentID string, status model.InternshipStatus) ([]model.Internship, error) {
	query := r.db.WithContext(ctx).Model(&model.Internship{}).Preload("Student").Preload("Documents")
	if studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var list []model.Internship
	err := query.Order("start_date DESC").Find(&list).Error
	return list, err
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *internshipRepo) Update(ctx context.Context, internship *model.Internship) error {
	oldVersion := internship.Version
	result := r.db.WithContext(ctx).
		Model(&model.Internship{}).
		Where("internship_id = ? AND version = ?", internship.InternshipID, oldVersion).
		Updates(map[string]interface{}{
			"company":                   internship.Company,
			"project":                   internship.Project,
			"start_date":                internship.StartDate,
			"end_date":                  internship.EndDate,
			"location":                  internship.Location,
			"external_supervisor":       internship.ExternalSupervisor,
			"external_supervisor_email": internship.ExternalSupervisorEmail,
			"description":               internship.Description,
			"status":                    internship.Status,
			"updated_by":                internship.UpdatedBy,
			"version":                   oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	internship.Version = oldVersion + 1
	return nil
}

func (r *internshipRepo) CountByStatus(ctx context.Context) (map[model.InternshipStatus]int64, error) {
	var rows []struct {
		Status model.InternshipStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Internship{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.InternshipStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
