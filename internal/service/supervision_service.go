package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
)

// SupervisionService 指导反馈与会议
// 只有选题的指导教师可以写入；管理员可查看全部
type SupervisionService interface {
	AddFeedback(ctx context.Context, subjectID string, req *dto.CreateFeedbackRequest, teacherID string) (*dto.FeedbackResponse, error)
	ListFeedback(ctx context.Context, subjectID, callerID, callerRole string) ([]dto.FeedbackResponse, error)
	ScheduleMeeting(ctx context.Context, subjectID string, req *dto.CreateMeetingRequest, teacherID string) (*dto.MeetingResponse, error)
	ListMeetings(ctx context.Context, subjectID, callerID, callerRole string) ([]dto.MeetingResponse, error)
}

type supervisionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSupervisionService 创建 SupervisionService 实例
func NewSupervisionService(repo *repository.Repository, logger *zap.Logger) SupervisionService {
	return &supervisionService{repo: repo, logger: logger}
}

func (s *supervisionService) AddFeedback(ctx context.Context, subjectID string, req *dto.CreateFeedbackRequest, teacherID string) (*dto.FeedbackResponse, error) {
	if err := s.checkAccess(ctx, subjectID, teacherID, model.RoleTeacher); err != nil {
		return nil, err
	}

	fb := &model.Feedback{SubjectID: subjectID, TeacherID: teacherID, Content: req.Content}
	fb.StampCreated(teacherID)
	if err := s.repo.Feedback.Create(ctx, fb); err != nil {
		s.logger.Error("创建反馈失败", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}
	resp := toFeedbackResponse(fb)
	return &resp, nil
}

func (s *supervisionService) ListFeedback(ctx context.Context, subjectID, callerID, callerRole string) ([]dto.FeedbackResponse, error) {
	if err := s.checkAccess(ctx, subjectID, callerID, callerRole); err != nil {
		return nil, err
	}
	list, err := s.repo.Feedback.ListBySubject(ctx, subjectID)
	if err != nil {
		s.logger.Error("查询反馈失败", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.FeedbackResponse, 0, len(list))
	for i := range list {
		result = append(result, toFeedbackResponse(&list[i]))
	}
	return result, nil
}

func (s *supervisionService) ScheduleMeeting(ctx context.Context, subjectID string, req *dto.CreateMeetingRequest, teacherID string) (*dto.MeetingResponse, error) {
	if err := s.checkAccess(ctx, subjectID, teacherID, model.RoleTeacher); err != nil {
		return nil, err
	}

	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, err
	}
	m := &model.Meeting{
		SubjectID:   subjectID,
		TeacherID:   teacherID,
		ScheduledAt: at.UTC(),
		Location:    req.Location,
		Agenda:      req.Agenda,
	}
	m.StampCreated(teacherID)
	if err := s.repo.Meeting.Create(ctx, m); err != nil {
		s.logger.Error("创建会议失败", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}
	resp := toMeetingResponse(m)
	return &resp, nil
}

func (s *supervisionService) ListMeetings(ctx context.Context, subjectID, callerID, callerRole string) ([]dto.MeetingResponse, error) {
	if err := s.checkAccess(ctx, subjectID, callerID, callerRole); err != nil {
		return nil, err
	}
	list, err := s.repo.Meeting.ListBySubject(ctx, subjectID)
	if err != nil {
		s.logger.Error("查询会议失败", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.MeetingResponse, 0, len(list))
	for i := range list {
		result = append(result, toMeetingResponse(&list[i]))
	}
	return result, nil
}

func (s *supervisionService) checkAccess(ctx context.Context, subjectID, callerID, callerRole string) error {
	subject, err := s.repo.Subject.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}
	return checkSubjectOwner(subject, callerID, callerRole)
}

func toFeedbackResponse(fb *model.Feedback) dto.FeedbackResponse {
	resp := dto.FeedbackResponse{
		ID:        fb.FeedbackID,
		SubjectID: fb.SubjectID,
		TeacherID: fb.TeacherID,
		Content:   fb.Content,
		CreatedAt: dto.FormatTime(fb.CreatedAt),
	}
	if fb.Teacher != nil {
		resp.TeacherName = fb.Teacher.FullName()
	}
	return resp
}

func toMeetingResponse(m *model.Meeting) dto.MeetingResponse {
	return dto.MeetingResponse{
		ID:          m.MeetingID,
		SubjectID:   m.SubjectID,
		TeacherID:   m.TeacherID,
		ScheduledAt: dto.FormatTime(m.ScheduledAt),
		Location:    m.Location,
		Agenda:      m.Agenda,
	}
}
