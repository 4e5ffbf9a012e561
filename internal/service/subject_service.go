package service

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
	pkgerrors "pfe-hub/backend/pkg/errors"
)

// ── 选题模块业务错误 ──

var (
	ErrSubjectNotFound    = errors.New("选题不存在")
	ErrSubjectNotPending  = errors.New("仅待审核的选题可以修改")
	ErrSubjectAssigned    = errors.New("选题已分配，不能执行该操作")
	ErrSupervisorNotFound = errors.New("指导教师不存在")
	ErrNotSupervisor      = errors.New("非该选题的指导教师")
)

// SubjectService 选题业务接口
type SubjectService interface {
	Create(ctx context.Context, req *dto.CreateSubjectRequest, callerID, callerRole string) (*dto.SubjectResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SubjectResponse, error)
	List(ctx context.Context, req *dto.SubjectListRequest) ([]dto.SubjectResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSubjectRequest, callerID, callerRole string) (*dto.SubjectResponse, error)
	Delete(ctx context.Context, id, callerID, callerRole string) error
	// Approve / Reject 幂等；重复调用保持原状态
	Approve(ctx context.Context, id, callerID string) (*dto.SubjectResponse, error)
	Reject(ctx context.Context, id, callerID string) (*dto.SubjectResponse, error)
	Stats(ctx context.Context) (*dto.SubjectStatsResponse, error)
	// Propose 学生自拟选题：同一事务内创建待审核选题与第一志愿申报
	Propose(ctx context.Context, studentID string, req *dto.ProposeSubjectRequest) (*dto.ProposalResponse, error)
}

type subjectService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSubjectService 创建 SubjectService 实例
func NewSubjectService(repo *repository.Repository, logger *zap.Logger) SubjectService {
	return &subjectService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *subjectService) Create(ctx context.Context, req *dto.CreateSubjectRequest, callerID, callerRole string) (*dto.SubjectResponse, error) {
	supervisorID := req.SupervisorID
	if callerRole == model.RoleTeacher {
		supervisorID = &callerID
	}
	if err := s.ensureTeacher(ctx, supervisorID); err != nil {
		return nil, err
	}

	subject := &model.Subject{
		Title:        req.Title,
		Description:  req.Description,
		Domain:       req.Domain,
		Difficulty:   req.Difficulty,
		Technologies: pq.StringArray(normalizeTags(req.Technologies)),
		Status:       model.SubjectPending,
		SupervisorID: supervisorID,
	}
	subject.StampCreated(callerID)

	if err := s.repo.Subject.Create(ctx, subject); err != nil {
		s.logger.Error("创建选题失败", zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, subject.SubjectID)
}

// ────────────────────── GetByID / List ──────────────────────

func (s *subjectService) GetByID(ctx context.Context, id string) (*dto.SubjectResponse, error) {
	subject, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toSubjectResponse(subject)
	return &resp, nil
}

func (s *subjectService) List(ctx context.Context, req *dto.SubjectListRequest) ([]dto.SubjectResponse, error) {
	filter := repository.SubjectFilter{
		Status:       model.SubjectStatus(req.Status),
		SupervisorID: req.SupervisorID,
		Unassigned:   req.Unassigned,
	}
	switch req.Origin {
	case "proposal":
		filter.Proposal = boolPtr(true)
	case "standard":
		filter.Proposal = boolPtr(false)
	}

	subjects, err := s.repo.Subject.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出选题失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SubjectResponse, 0, len(subjects))
	for i := range subjects {
		result = append(result, toSubjectResponse(&subjects[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *subjectService) Update(ctx context.Context, id string, req *dto.UpdateSubjectRequest, callerID, callerRole string) (*dto.SubjectResponse, error) {
	subject, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkSubjectOwner(subject, callerID, callerRole); err != nil {
		return nil, err
	}
	if subject.Status != model.SubjectPending {
		return nil, ErrSubjectNotPending
	}

	if req.Title != nil {
		subject.Title = *req.Title
	}
	if req.Description != nil {
		subject.Description = *req.Description
	}
	if req.Domain != nil {
		subject.Domain = *req.Domain
	}
	if req.Difficulty != nil {
		subject.Difficulty = *req.Difficulty
	}
	if req.Technologies != nil {
		subject.Technologies = pq.StringArray(normalizeTags(req.Technologies))
	}
	// 教师不能把选题转给他人
	if req.SupervisorID != nil && callerRole == model.RoleAdmin {
		if err := s.ensureTeacher(ctx, req.SupervisorID); err != nil {
			return nil, err
		}
		subject.SupervisorID = req.SupervisorID
	}
	subject.StampUpdated(callerID)

	if err := s.repo.Subject.Update(ctx, subject); err != nil {
		s.logger.Error("更新选题失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *subjectService) Delete(ctx context.Context, id, callerID, callerRole string) error {
	subject, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := checkSubjectOwner(subject, callerID, callerRole); err != nil {
		return err
	}

	assigned, err := s.isAssigned(ctx, id)
	if err != nil {
		return err
	}
	if assigned {
		return ErrSubjectAssigned
	}

	if err := s.repo.Subject.Delete(ctx, id); err != nil {
		// 分配在检查之后写入时由外键拦截
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrSubjectAssigned
		}
		s.logger.Error("删除选题失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 审核 ──────────────────────

func (s *subjectService) Approve(ctx context.Context, id, callerID string) (*dto.SubjectResponse, error) {
	return s.setStatus(ctx, id, model.SubjectApproved, callerID)
}

func (s *subjectService) Reject(ctx context.Context, id, callerID string) (*dto.SubjectResponse, error) {
	return s.setStatus(ctx, id, model.SubjectRejected, callerID)
}

func (s *subjectService) setStatus(ctx context.Context, id string, status model.SubjectStatus, callerID string) (*dto.SubjectResponse, error) {
	subject, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if subject.Status == status {
		resp := toSubjectResponse(subject)
		return &resp, nil
	}

	if status == model.SubjectRejected {
		assigned, err := s.isAssigned(ctx, id)
		if err != nil {
			return nil, err
		}
		if assigned {
			return nil, ErrSubjectAssigned
		}
	}

	if err := s.repo.Subject.UpdateStatus(ctx, id, status, callerID); err != nil {
		s.logger.Error("更新选题状态失败", zap.String("id", id), zap.String("status", string(status)), zap.Error(err))
		return nil, err
	}
	s.logger.Info("选题审核状态变更",
		zap.String("id", id),
		zap.String("from", string(subject.Status)),
		zap.String("to", string(status)),
		zap.String("operator", callerID),
	)

	subject.Status = status
	resp := toSubjectResponse(subject)
	return &resp, nil
}

// ────────────────────── Stats ──────────────────────

func (s *subjectService) Stats(ctx context.Context) (*dto.SubjectStatsResponse, error) {
	counts, err := s.repo.Subject.CountByStatus(ctx, "")
	if err != nil {
		s.logger.Error("统计选题失败", zap.Error(err))
		return nil, err
	}
	teachers, err := s.repo.Subject.CountDistinctSupervisors(ctx)
	if err != nil {
		s.logger.Error("统计选题教师数失败", zap.Error(err))
		return nil, err
	}

	return &dto.SubjectStatsResponse{
		Total:            counts[model.SubjectPending] + counts[model.SubjectApproved] + counts[model.SubjectRejected],
		Pending:          counts[model.SubjectPending],
		Approved:         counts[model.SubjectApproved],
		Rejected:         counts[model.SubjectRejected],
		DistinctTeachers: teachers,
	}, nil
}

// ────────────────────── Propose ──────────────────────

func (s *subjectService) Propose(ctx context.Context, studentID string, req *dto.ProposeSubjectRequest) (*dto.ProposalResponse, error) {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if err := s.ensureTeacher(ctx, req.SupervisorID); err != nil {
		return nil, err
	}
	if err := validatePartner(ctx, s.repo, studentID, req.PartnerID); err != nil {
		return nil, err
	}

	subject := &model.Subject{
		Title:             req.Title,
		Description:       req.Description,
		Domain:            req.Domain,
		Technologies:      pq.StringArray(normalizeTags(req.Technologies)),
		Status:            model.SubjectPending,
		IsStudentProposal: true,
		SupervisorID:      req.SupervisorID,
	}
	subject.StampCreated(studentID)

	choice := &model.Choice{
		StudentID:      studentID,
		PreferenceRank: 1,
		PartnerID:      req.PartnerID,
		IsProposal:     true,
	}
	choice.StampCreated(studentID)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Subject.Create(ctx, subject); err != nil {
			return err
		}
		choice.SubjectID = subject.SubjectID
		return tx.Choice.Create(ctx, choice)
	})
	if err != nil {
		s.logger.Error("提交自拟选题失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("自拟选题已提交",
		zap.String("student_id", studentID),
		zap.String("subject_id", subject.SubjectID),
	)

	return &dto.ProposalResponse{
		Subject: toSubjectResponse(subject),
		Choice:  toChoiceResponse(choice),
	}, nil
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *subjectService) load(ctx context.Context, id string) (*model.Subject, error) {
	subject, err := s.repo.Subject.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		s.logger.Error("查询选题失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return subject, nil
}

func (s *subjectService) isAssigned(ctx context.Context, subjectID string) (bool, error) {
	_, err := s.repo.Assignment.GetBySubject(ctx, subjectID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	s.logger.Error("查询选题分配失败", zap.String("subject_id", subjectID), zap.Error(err))
	return false, err
}

func (s *subjectService) ensureTeacher(ctx context.Context, teacherID *string) error {
	if teacherID == nil || *teacherID == "" {
		return nil
	}
	if _, err := s.repo.Teacher.GetByID(ctx, *teacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSupervisorNotFound
		}
		return err
	}
	return nil
}

// checkSubjectOwner 教师只能操作自己名下的选题，管理员不受限
func checkSubjectOwner(subject *model.Subject, callerID, callerRole string) error {
	if callerRole == model.RoleAdmin {
		return nil
	}
	if subject.SupervisorID == nil || *subject.SupervisorID != callerID {
		return ErrNotSupervisor
	}
	return nil
}

var subjectStatusLabels = map[model.SubjectStatus]string{
	model.SubjectPending:  "待审核",
	model.SubjectApproved: "已通过",
	model.SubjectRejected: "已驳回",
}

func toSubjectResponse(subject *model.Subject) dto.SubjectResponse {
	resp := dto.SubjectResponse{
		ID:                subject.SubjectID,
		Title:             subject.Title,
		Description:       subject.Description,
		Domain:            subject.Domain,
		Difficulty:        subject.Difficulty,
		Technologies:      []string(subject.Technologies),
		ProposedAt:        dto.FormatDate(subject.ProposedAt),
		Status:            string(subject.Status),
		StatusLabel:       subjectStatusLabels[subject.Status],
		IsStudentProposal: subject.IsStudentProposal,
	}
	if resp.Technologies == nil {
		resp.Technologies = []string{}
	}
	if subject.Supervisor != nil {
		resp.Supervisor = &dto.PersonBrief{
			ID:    subject.Supervisor.TeacherID,
			Name:  subject.Supervisor.FullName(),
			Email: subject.Supervisor.Email,
		}
	}
	return resp
}

// normalizeTags 去除空白与重复标签，保持原有顺序
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
