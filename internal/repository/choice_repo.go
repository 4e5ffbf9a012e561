package repository

import (
	"context"

	"gorm.io/gorm"

	"pfe-hub/backend/internal/model"
)

// ChoiceRepository 学生志愿数据访问接口
type ChoiceRepository interface {
	Create(ctx context.Context, choice *model.Choice) error
	GetByID(ctx context.Context, id string) (*model.Choice, error)
	Delete(ctx context.Context, id string) error
	ListByStudent(ctx context.Context, studentID string) ([]model.Choice, error)
	ListBySubject(ctx context.Context, subjectID string) ([]model.Choice, error)
	ListProposals(ctx context.Context) ([]model.Choice, error)
	ExistsByStudentAndSubject(ctx context.Context, studentID, subjectID string) (bool, error)
	CountByStudent(ctx context.Context, studentID string) (int64, error)
	CountDistinctStudents(ctx context.Context) (int64, error)
}

type choiceRepo struct {
	db *gorm.DB
}

// NewChoiceRepo 创建 ChoiceRepository 实例
func NewChoiceRepo(db *gorm.DB) ChoiceRepository {
	return &choiceRepo{db: db}
}

func (r *choiceRepo) Create(ctx context.Context, choice *model.Choice) error {
	return r.db.WithContext(ctx).Omit("Student", "Subject", "Partner").Create(choice).Error
}

func (r *choiceRepo) GetByID(ctx context.Context, id string) (*model.Choice, error) {
	var choice model.Choice
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("choice_id = ?", id).
		First(&choice).Error
	if err != nil {
		return nil, err
	}
	return &choice, nil
}

func (r *choiceRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("choice_id = ?", id).Delete(&model.Choice{}).Error
}

func (r *choiceRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Choice, error) {
	var choices []model.Choice
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Partner").
		Where("student_id = ?", studentID).
		Order("preference_rank ASC, created_at ASC").
		Find(&choices).Error
	return choices, err
}

// ListBySubject 某选题的全部志愿
// 顺序：志愿序号升序 → 提交时间升序 → choice_id，作为同分候选人的稳定次序
func (r *choiceRepo) ListBySubject(ctx context.Context, subjectID string) ([]model.Choice, error) {
	var choices []model.Choice
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Partner").
		Where("subject_id = ?", subjectID).
		Order("preference_rank ASC, created_at ASC, choice_id ASC").
		Find(&choices).Error
	return choices, err
}

// ListProposals 全部自拟选题申报，按提交先后返回
func (r *choiceRepo) ListProposals(ctx context.Context) ([]model.Choice, error) {
	var choices []model.Choice
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Student").
		Preload("Partner").
		Where("is_proposal = ?", true).
		Order("created_at ASC, choice_id ASC").
		Find(&choices).Error
	return choices, err
}

func (r *choiceRepo) ExistsByStudentAndSubject(ctx context.Context, studentID, subjectID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Choice{}).
		Where("student_id = ? AND subject_id = ?", studentID, subjectID).
		Count(&n).Error
	return n > 0, err
}

func (r *choiceRepo) CountByStudent(ctx context.Context, studentID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Choice{}).Where("student_id = ?", studentID).Count(&n).Error
	return n, err
}

func (r *choiceRepo) CountDistinctStudents(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Choice{}).Distinct("student_id").Count(&n).Error
	return n, err
}
