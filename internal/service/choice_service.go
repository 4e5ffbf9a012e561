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
	pkgerrors "pfe-hub/backend/pkg/errors"
)

// ── 志愿模块业务错误 ──

var (
	ErrChoiceNotFound      = errors.New("志愿不存在")
	ErrDuplicateChoice     = errors.New("已填报过该选题")
	ErrTooManyChoices      = errors.New("志愿数量已达上限")
	ErrInvalidPartner      = errors.New("搭档无效")
	ErrInvalidRank         = errors.New("志愿序号必须在 1 到 5 之间")
	ErrChoicesClosed       = errors.New("志愿填报已截止")
	ErrSubjectNotApproved  = errors.New("选题尚未通过审核")
	ErrChoiceStudentNeeded = errors.New("需指定学生")
	ErrNotOwner            = errors.New("只能操作本人的数据")
)

const (
	minPreferenceRank = 1
	maxPreferenceRank = 5
)

// ChoiceService 志愿业务接口
type ChoiceService interface {
	Create(ctx context.Context, req *dto.CreateChoiceRequest, callerID, callerRole string) (*dto.ChoiceResponse, error)
	ListByStudent(ctx context.Context, studentID string) ([]dto.ChoiceResponse, error)
	ListBySubject(ctx context.Context, subjectID, callerID, callerRole string) ([]dto.ChoiceResponse, error)
	Delete(ctx context.Context, id, callerID, callerRole string) error
	CountDistinctStudents(ctx context.Context) (int64, error)
}

type choiceService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewChoiceService 创建 ChoiceService 实例
func NewChoiceService(repo *repository.Repository, logger *zap.Logger) ChoiceService {
	return &choiceService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *choiceService) Create(ctx context.Context, req *dto.CreateChoiceRequest, callerID, callerRole string) (*dto.ChoiceResponse, error) {
	studentID := req.StudentID
	if callerRole == model.RoleStudent {
		studentID = callerID
	}
	if studentID == "" {
		return nil, ErrChoiceStudentNeeded
	}
	if req.PreferenceRank < minPreferenceRank || req.PreferenceRank > maxPreferenceRank {
		return nil, ErrInvalidRank
	}

	// 1. 截止时间与数量上限
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}
	if cfg != nil && cfg.ChoicesClosed(s.now()) {
		return nil, ErrChoicesClosed
	}

	// 2. 学生、选题、搭档存在性
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	subject, err := s.repo.Subject.GetByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	if subject.Status != model.SubjectApproved {
		return nil, ErrSubjectNotApproved
	}

	if err := validatePartner(ctx, s.repo, studentID, req.PartnerID); err != nil {
		return nil, err
	}

	// 3. 重复与上限
	exists, err := s.repo.Choice.ExistsByStudentAndSubject(ctx, studentID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateChoice
	}

	maxChoices := maxPreferenceRank
	if cfg != nil && cfg.MaxChoicesPerStudent > 0 {
		maxChoices = cfg.MaxChoicesPerStudent
	}
	n, err := s.repo.Choice.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if n >= int64(maxChoices) {
		return nil, ErrTooManyChoices
	}

	choice := &model.Choice{
		StudentID:      studentID,
		SubjectID:      req.SubjectID,
		PreferenceRank: req.PreferenceRank,
		PartnerID:      req.PartnerID,
	}
	choice.StampCreated(callerID)

	if err := s.repo.Choice.Create(ctx, choice); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrDuplicateChoice
		}
		s.logger.Error("创建志愿失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	choice.Subject = subject
	resp := toChoiceResponse(choice)
	return &resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *choiceService) ListByStudent(ctx context.Context, studentID string) ([]dto.ChoiceResponse, error) {
	choices, err := s.repo.Choice.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生志愿失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return toChoiceResponses(choices), nil
}

func (s *choiceService) ListBySubject(ctx context.Context, subjectID, callerID, callerRole string) ([]dto.ChoiceResponse, error) {
	subject, err := s.repo.Subject.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	if err := checkSubjectOwner(subject, callerID, callerRole); err != nil {
		return nil, err
	}

	choices, err := s.repo.Choice.ListBySubject(ctx, subjectID)
	if err != nil {
		s.logger.Error("查询选题志愿失败", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}
	return toChoiceResponses(choices), nil
}

func (s *choiceService) CountDistinctStudents(ctx context.Context) (int64, error) {
	return s.repo.Choice.CountDistinctStudents(ctx)
}

// ────────────────────── Delete ──────────────────────

func (s *choiceService) Delete(ctx context.Context, id, callerID, callerRole string) error {
	choice, err := s.repo.Choice.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChoiceNotFound
		}
		return err
	}
	if callerRole == model.RoleStudent && choice.StudentID != callerID {
		return ErrNotOwner
	}

	if err := s.repo.Choice.Delete(ctx, id); err != nil {
		s.logger.Error("删除志愿失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 内部辅助 ──────────────────────

// validatePartner 搭档须存在且不是本人
func validatePartner(ctx context.Context, repo *repository.Repository, studentID string, partnerID *string) error {
	if partnerID == nil || *partnerID == "" {
		return nil
	}
	if *partnerID == studentID {
		return ErrInvalidPartner
	}
	if _, err := repo.Student.GetByID(ctx, *partnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidPartner
		}
		return err
	}
	return nil
}

func toChoiceResponse(c *model.Choice) dto.ChoiceResponse {
	resp := dto.ChoiceResponse{
		ID:             c.ChoiceID,
		StudentID:      c.StudentID,
		SubjectID:      c.SubjectID,
		PreferenceRank: c.PreferenceRank,
		IsProposal:     c.IsProposal,
		CreatedAt:      dto.FormatTime(c.CreatedAt),
	}
	if c.Subject != nil {
		resp.SubjectTitle = c.Subject.Title
	}
	if c.Partner != nil {
		resp.Partner = &dto.PersonBrief{ID: c.Partner.StudentID, Name: c.Partner.FullName(), Email: c.Partner.Email}
	} else if c.PartnerID != nil {
		resp.Partner = &dto.PersonBrief{ID: *c.PartnerID}
	}
	return resp
}

func toChoiceResponses(choices []model.Choice) []dto.ChoiceResponse {
	result := make([]dto.ChoiceResponse, 0, len(choices))
	for i := range choices {
		result = append(result, toChoiceResponse(&choices[i]))
	}
	return result
}
