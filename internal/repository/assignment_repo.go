package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pfe-hub/backend/internal/model"
)

// AssignmentRepository 选题分配数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	GetBySubject(ctx context.Context, subjectID string) (*model.Assignment, error)
	FindByStudent(ctx context.Context, studentID string) (*model.Assignment, error)
	AssignedStudentIDs(ctx context.Context, studentIDs []string) ([]string, error)
	List(ctx context.Context) ([]model.Assignment, error)
	ListBySupervisor(ctx context.Context, teacherID string) ([]model.Assignment, error)
	Delete(ctx context.Context, id string) error
	CountStudentsBySupervisor(ctx context.Context, teacherID string) (int64, error)
	CountSubjectsBySupervisor(ctx context.Context, teacherID string) (int64, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

// preloadAll 预加载展示与通知所需的全部关联
func preloadAll(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Subject").
		Preload("Student").
		Preload("Partner").
		Preload("Supervisor")
}

// Create 写入分配及其成员行
// 成员行逐条插入且不走关联自动保存，唯一冲突（23505）原样返回给调用方
func (r *assignmentRepo) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(assignment).Error; err != nil {
			return err
		}

		members := []model.AssignmentMember{{
			StudentID:    assignment.StudentID,
			AssignmentID: assignment.AssignmentID,
			Role:         model.MemberPrimary,
		}}
		if assignment.PartnerID != nil && *assignment.PartnerID != "" {
			members = append(members, model.AssignmentMember{
				StudentID:    *assignment.PartnerID,
				AssignmentID: assignment.AssignmentID,
				Role:         model.MemberPartner,
			})
		}
		if err := tx.Create(&members).Error; err != nil {
			return err
		}
		assignment.Members = members
		return nil
	})
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var a model.Assignment
	if err := preloadAll(r.db.WithContext(ctx)).Where("assignment_id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) GetBySubject(ctx context.Context, subjectID string) (*model.Assignment, error) {
	var a model.Assignment
	if err := preloadAll(r.db.WithContext(ctx)).Where("subject_id = ?", subjectID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByStudent 查找包含该学生（主学生或搭档）的分配
func (r *assignmentRepo) FindByStudent(ctx context.Context, studentID string) (*model.Assignment, error) {
	var a model.Assignment
	db := r.db.WithContext(ctx)
	members := db.Model(&model.AssignmentMember{}).Select("assignment_id").Where("student_id = ?", studentID)
	err := preloadAll(db).Where("assignment_id IN (?)", members).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AssignedStudentIDs 返回 studentIDs 中已属于某条分配的学生
func (r *assignmentRepo) AssignedStudentIDs(ctx context.Context, studentIDs []string) ([]string, error) {
	var ids []string
	if len(studentIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&model.AssignmentMember{}).
		Where("student_id IN ?", studentIDs).
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *assignmentRepo) List(ctx context.Context) ([]model.Assignment, error) {
	var list []model.Assignment
	err := preloadAll(r.db.WithContext(ctx)).
		Order("assigned_at DESC, created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListBySupervisor(ctx context.Context, teacherID string) ([]model.Assignment, error) {
	var list []model.Assignment
	err := preloadAll(r.db.WithContext(ctx)).
		Where("supervisor_id = ?", teacherID).
		Order("assigned_at DESC").
		Find(&list).Error
	return list, err
}

// Delete 删除分配；assignment_members 通过外键级联删除
func (r *assignmentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("assignment_id = ?", id).Delete(&model.Assignment{}).Error
}

// CountStudentsBySupervisor 该教师指导的不同学生数（含搭档）
func (r *assignmentRepo) CountStudentsBySupervisor(ctx context.Context, teacherID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.AssignmentMember{}).
		Joins("JOIN assignments a ON a.assignment_id = assignment_members.assignment_id").
		Where("a.supervisor_id = ?", teacherID).
		Distinct("assignment_members.student_id").
		Count(&n).Error
	return n, err
}

// CountSubjectsBySupervisor 该教师名下已分配的不同选题数
func (r *assignmentRepo) CountSubjectsBySupervisor(ctx context.Context, teacherID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("supervisor_id = ?", teacherID).
		Distinct("subject_id").
		Count(&n).Error
	return n, err
}
