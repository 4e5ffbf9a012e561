package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"pfe-hub/backend/internal/model"
)

// StudentFilter 学生列表过滤条件（零值字段不参与过滤）
type StudentFilter struct {
	Section      string
	Group        string
	SupervisorID string
	Keyword      string
	Offset       int
	Limit        int
}

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByEmail(ctx context.Context, email string) (*model.Student, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]model.Student, int64, error)
	ListRanked(ctx context.Context) ([]model.Student, error)
	Update(ctx context.Context, student *model.Student) error
	UpdateMeritRanks(ctx context.Context, ranks map[string]int) error
	Delete(ctx context.Context, id, deletedBy string) error
	Count(ctx context.Context) (int64, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Omit("Supervisor").Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("Supervisor").
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(email)).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Student, error) {
	var students []model.Student
	if len(ids) == 0 {
		return students, nil
	}
	err := r.db.WithContext(ctx).
		Where("student_id IN ?", ids).
		Find(&students).Error
	return students, err
}

func (r *studentRepo) List(ctx context.Context, filter StudentFilter) ([]model.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Student{})

	if filter.Section != "" {
		query = query.Where("section = ?", filter.Section)
	}
	if filter.Group != "" {
		query = query.Where("group_name = ?", filter.Group)
	}
	if filter.SupervisorID != "" {
		query = query.Where("supervisor_id = ?", filter.SupervisorID)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", kw, kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []model.Student
	q := query.Preload("Supervisor").Order("last_name ASC, first_name ASC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := q.Find(&students).Error; err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// ListRanked 按平均分降序（未录入成绩排最后）返回全部学生
func (r *studentRepo) ListRanked(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Order("average DESC NULLS LAST, last_name ASC, first_name ASC, student_id ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).
		Model(student).
		Where("student_id = ?", student.StudentID).
		Updates(map[string]interface{}{
			"first_name":    student.FirstName,
			"last_name":     student.LastName,
			"email":         student.Email,
			"password_hash": student.PasswordHash,
			"section":       student.Section,
			"group_name":    student.Group,
			"average":       student.Average,
			"merit_rank":    student.MeritRank,
			"supervisor_id": student.SupervisorID,
			"updated_by":    student.UpdatedBy,
		}).Error
}

// UpdateMeritRanks 批量写入排名（在一个事务内完成）
func (r *studentRepo) UpdateMeritRanks(ctx context.Context, ranks map[string]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, rank := range ranks {
			if err := tx.Model(&model.Student{}).
				Where("student_id = ?", id).
				Update("merit_rank", rank).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *studentRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Student{}).
			Where("student_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("student_id = ?", id).Delete(&model.Student{}).Error
	})
}

func (r *studentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).Count(&n).Error
	return n, err
}
