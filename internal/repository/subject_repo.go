package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pfe-hub/backend/internal/model"
)

// SubjectFilter 选题列表过滤条件
// Status 为空不过滤；Proposal 为 nil 不过滤；Unassigned=true 仅返回尚无分配的选题
type SubjectFilter struct {
	Status       model.SubjectStatus
	Proposal     *bool
	SupervisorID string
	Unassigned   bool
}

// SubjectStatusCount 按状态统计结果
type SubjectStatusCount map[model.SubjectStatus]int64

// SubjectRepository 选题数据访问接口
type SubjectRepository interface {
	Create(ctx context.Context, subject *model.Subject) error
	GetByID(ctx context.Context, id string) (*model.Subject, error)
	GetForUpdate(ctx context.Context, id string) (*model.Subject, error)
	List(ctx context.Context, filter SubjectFilter) ([]model.Subject, error)
	ListApprovedUnassigned(ctx context.Context) ([]model.Subject, error)
	Update(ctx context.Context, subject *model.Subject) error
	UpdateStatus(ctx context.Context, id string, status model.SubjectStatus, updatedBy string) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, supervisorID string) (SubjectStatusCount, error)
	CountDistinctSupervisors(ctx context.Context) (int64, error)
}

type subjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo 创建 SubjectRepository 实例
func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

// 尚无分配的选题（反向关系通过 assignments.subject_id 查询）
const unassignedCond = "NOT EXISTS (SELECT 1 FROM assignments a WHERE a.subject_id = subjects.subject_id)"

func (r *subjectRepo) Create(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).Omit("Supervisor").Create(subject).Error
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Preload("Supervisor").
		Where("subject_id = ?", id).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// GetForUpdate 加行锁读取选题（SELECT ... FOR UPDATE），须在事务内调用
func (r *subjectRepo) GetForUpdate(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("subject_id = ?", id).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) List(ctx context.Context, filter SubjectFilter) ([]model.Subject, error) {
	query := r.db.WithContext(ctx).Model(&model.Subject{}).Preload("Supervisor")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Proposal != nil {
		query = query.Where("is_student_proposal = ?", *filter.Proposal)
	}
	if filter.SupervisorID != "" {
		query = query.Where("supervisor_id = ?", filter.SupervisorID)
	}
	if filter.Unassigned {
		query = query.Where(unassignedCond)
	}

	var subjects []model.Subject
	err := query.Order("proposed_at DESC, created_at DESC").Find(&subjects).Error
	return subjects, err
}

// ListApprovedUnassigned 已通过且尚未分配的选题，按创建顺序返回（自动分配第二阶段的输入顺序）
func (r *subjectRepo) ListApprovedUnassigned(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.WithContext(ctx).
		Preload("Supervisor").
		Where("status = ?", model.SubjectApproved).
		Where(unassignedCond).
		Order("created_at ASC, subject_id ASC").
		Find(&subjects).Error
	return subjects, err
}

func (r *subjectRepo) Update(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).
		Model(subject).
		Where("subject_id = ?", subject.SubjectID).
		Updates(map[string]interface{}{
			"title":         subject.Title,
			"description":   subject.Description,
			"domain":        subject.Domain,
			"difficulty":    subject.Difficulty,
			"technologies":  subject.Technologies,
			"supervisor_id": subject.SupervisorID,
			"updated_by":    subject.UpdatedBy,
		}).Error
}

func (r *subjectRepo) UpdateStatus(ctx context.Context, id string, status model.SubjectStatus, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Subject{}).
		Where("subject_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		}).Error
}

func (r *subjectRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("subject_id = ?", id).Delete(&model.Subject{}).Error
}

// CountByStatus 按状态统计；supervisorID 非空时仅统计该教师的选题
func (r *subjectRepo) CountByStatus(ctx context.Context, supervisorID string) (SubjectStatusCount, error) {
	var rows []struct {
		Status model.SubjectStatus
		Total  int64
	}
	query := r.db.WithContext(ctx).Model(&model.Subject{}).Select("status, COUNT(*) AS total")
	if supervisorID != "" {
		query = query.Where("supervisor_id = ?", supervisorID)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := SubjectStatusCount{}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *subjectRepo) CountDistinctSupervisors(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Subject{}).
		Where("supervisor_id IS NOT NULL").
		Distinct("supervisor_id").
		Count(&n).Error
	return n, err
}
