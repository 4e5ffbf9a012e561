package repository

import (
	"context"

	"gorm.io/gorm"

	"pfe-hub/backend/internal/model"
)

// FeedbackRepository 指导反馈数据访问接口
type FeedbackRepository interface {
	Create(ctx context.Context, fb *model.Feedback) error
	ListBySubject(ctx context.Context, subjectID string) ([]model.Feedback, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

// NewFeedbackRepo 创建 FeedbackRepository 实例
func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	return r.db.WithContext(ctx).Omit("Teacher").Create(fb).Error
}

func (r *feedbackRepo) ListBySubject(ctx context.Context, subjectID string) ([]model.Feedback, error) {
	var list []model.Feedback
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// MeetingRepository 指导会议数据访问接口
type MeetingRepository interface {
	Create(ctx context.Context, m *model.Meeting) error
	ListBySubject(ctx context.Context, subjectID string) ([]model.Meeting, error)
}

type meetingRepo struct {
	db *gorm.DB
}

// NewMeetingRepo 创建 MeetingRepository 实例
func NewMeetingRepo(db *gorm.DB) MeetingRepository {
	return &meetingRepo{db: db}
}

func (r *meetingRepo) Create(ctx context.Context, m *model.Meeting) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *meetingRepo) ListBySubject(ctx context.Context, subjectID string) ([]model.Meeting, error) {
	var list []model.Meeting
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("scheduled_at ASC").
		Find(&list).Error
	return list, err
}
