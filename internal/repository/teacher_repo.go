package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"pfe-hub/backend/internal/model"
)

// TeacherRepository 教师数据访问接口
type TeacherRepository interface {
	Create(ctx context.Context, teacher *model.Teacher) error
	GetByID(ctx context.Context, id string) (*model.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*model.Teacher, error)
	List(ctx context.Context, department string) ([]model.Teacher, error)
	Update(ctx context.Context, teacher *model.Teacher) error
	Delete(ctx context.Context, id, deletedBy string) error
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) Create(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepo) GetByID(ctx context.Context, id string) (*model.Teacher, error) {
	var teacher model.Teacher
	err := r.db.WithContext(ctx).Where("teacher_id = ?", id).First(&teacher).Error
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *teacherRepo) GetByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	var teacher model.Teacher
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(email)).
		First(&teacher).Error
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *teacherRepo) List(ctx context.Context, department string) ([]model.Teacher, error) {
	query := r.db.WithContext(ctx).Model(&model.Teacher{})
	if department != "" {
		query = query.Where("department = ?", department)
	}
	var teachers []model.Teacher
	err := query.Order("last_name ASC, first_name ASC").Find(&teachers).Error
	return teachers, err
}

func (r *teacherRepo) Update(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).
		Model(teacher).
		Where("teacher_id = ?", teacher.TeacherID).
		Updates(map[string]interface{}{
			"first_name":    teacher.FirstName,
			"last_name":     teacher.LastName,
			"email":         teacher.Email,
			"password_hash": teacher.PasswordHash,
			"department":    teacher.Department,
			"position":      teacher.Position,
			"office":        teacher.Office,
			"updated_by":    teacher.UpdatedBy,
		}).Error
}

func (r *teacherRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Teacher{}).
			Where("teacher_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("teacher_id = ?", id).Delete(&model.Teacher{}).Error
	})
}
