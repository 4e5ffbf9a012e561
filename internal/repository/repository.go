package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Student      StudentRepository
	Teacher      TeacherRepository
	Admin        AdminRepository
	Subject      SubjectRepository
	Choice       ChoiceRepository
	Assignment   AssignmentRepository
	Document     DocumentRepository
	Internship   InternshipRepository
	Notification NotificationRepository
	Feedback     FeedbackRepository
	Meeting      MeetingRepository
	SystemConfig SystemConfigRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Student:      NewStudentRepo(db),
		Teacher:      NewTeacherRepo(db),
		Admin:        NewAdminRepo(db),
		Subject:      NewSubjectRepo(db),
		Choice:       NewChoiceRepo(db),
		Assignment:   NewAssignmentRepo(db),
		Document:     NewDocumentRepo(db),
		Internship:   NewInternshipRepo(db),
		Notification: NewNotificationRepo(db),
		Feedback:     NewFeedbackRepo(db),
		Meeting:      NewMeetingRepo(db),
		SystemConfig: NewSystemConfigRepo(db),
	}
}

// WithTx 返回绑定到指定事务的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在单个数据库事务中执行 fn
// fn 返回错误或 panic 时整体回滚；未绑定数据库连接（内存替身）时直接在当前实例上执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
