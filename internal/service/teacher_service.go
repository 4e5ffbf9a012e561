package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
)

// ── 教师模块业务错误 ──

var (
	ErrTeacherNotFound = errors.New("教师不存在")
)

// defaultSupervisionMonths 指导周期（月），用于推算预计结束日期
const defaultSupervisionMonths = 6

// TeacherService 教师业务接口
type TeacherService interface {
	Create(ctx context.Context, req *dto.CreateTeacherRequest, callerID string) (*dto.TeacherResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TeacherResponse, error)
	List(ctx context.Context, department string) ([]dto.TeacherResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTeacherRequest, callerID, callerRole string) (*dto.TeacherResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	ProposedSubjects(ctx context.Context, teacherID string) ([]dto.SubjectResponse, error)
	SupervisedProjects(ctx context.Context, teacherID string) ([]dto.SupervisedProjectResponse, error)
	Stats(ctx context.Context, teacherID string) (*dto.TeacherStatsResponse, error)
}

type teacherService struct {
	repo              *repository.Repository
	supervisionMonths int
	logger            *zap.Logger
}

// NewTeacherService 创建 TeacherService 实例
func NewTeacherService(repo *repository.Repository, supervisionMonths int, logger *zap.Logger) TeacherService {
	if supervisionMonths <= 0 {
		supervisionMonths = defaultSupervisionMonths
	}
	return &teacherService{repo: repo, supervisionMonths: supervisionMonths, logger: logger}
}

// ────────────────────── CRUD ──────────────────────

func (s *teacherService) Create(ctx context.Context, req *dto.CreateTeacherRequest, callerID string) (*dto.TeacherResponse, error) {
	if err := ensureEmailFree(ctx, s.repo, req.Email, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	teacher := &model.Teacher{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Department:   req.Department,
		Position:     req.Position,
		Office:       req.Office,
	}
	teacher.StampCreated(callerID)

	if err := s.repo.Teacher.Create(ctx, teacher); err != nil {
		s.logger.Error("创建教师失败", zap.Error(err))
		return nil, err
	}
	resp := toTeacherResponse(teacher)
	return &resp, nil
}

func (s *teacherService) GetByID(ctx context.Context, id string) (*dto.TeacherResponse, error) {
	teacher, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toTeacherResponse(teacher)
	return &resp, nil
}

func (s *teacherService) List(ctx context.Context, department string) ([]dto.TeacherResponse, error) {
	teachers, err := s.repo.Teacher.List(ctx, department)
	if err != nil {
		s.logger.Error("列出教师失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.TeacherResponse, 0, len(teachers))
	for i := range teachers {
		result = append(result, toTeacherResponse(&teachers[i]))
	}
	return result, nil
}

func (s *teacherService) Update(ctx context.Context, id string, req *dto.UpdateTeacherRequest, callerID, callerRole string) (*dto.TeacherResponse, error) {
	if callerRole == model.RoleTeacher && callerID != id {
		return nil, ErrNoPermission
	}

	teacher, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		teacher.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		teacher.LastName = *req.LastName
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, teacher.Email) {
		if err := ensureEmailFree(ctx, s.repo, *req.Email, id); err != nil {
			return nil, err
		}
		teacher.Email = strings.ToLower(*req.Email)
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("密码哈希失败", zap.Error(err))
			return nil, err
		}
		teacher.PasswordHash = string(hash)
	}
	if req.Department != nil {
		teacher.Department = *req.Department
	}
	if req.Position != nil {
		teacher.Position = *req.Position
	}
	if req.Office != nil {
		teacher.Office = *req.Office
	}
	teacher.StampUpdated(callerID)

	if err := s.repo.Teacher.Update(ctx, teacher); err != nil {
		s.logger.Error("更新教师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toTeacherResponse(teacher)
	return &resp, nil
}

func (s *teacherService) Delete(ctx context.Context, id, callerID string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Teacher.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除教师失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 指导工作 ──────────────────────

func (s *teacherService) ProposedSubjects(ctx context.Context, teacherID string) ([]dto.SubjectResponse, error) {
	if _, err := s.load(ctx, teacherID); err != nil {
		return nil, err
	}
	subjects, err := s.repo.Subject.List(ctx, repository.SubjectFilter{SupervisorID: teacherID})
	if err != nil {
		s.logger.Error("查询教师选题失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.SubjectResponse, 0, len(subjects))
	for i := range subjects {
		result = append(result, toSubjectResponse(&subjects[i]))
	}
	return result, nil
}

// SupervisedProjects 预计结束日期 = 分配日期 + 指导周期
func (s *teacherService) SupervisedProjects(ctx context.Context, teacherID string) ([]dto.SupervisedProjectResponse, error) {
	if _, err := s.load(ctx, teacherID); err != nil {
		return nil, err
	}
	list, err := s.repo.Assignment.ListBySupervisor(ctx, teacherID)
	if err != nil {
		s.logger.Error("查询指导项目失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.SupervisedProjectResponse, 0, len(list))
	for i := range list {
		a := &list[i]
		names := make([]string, 0, 2)
		if a.Student != nil {
			names = append(names, a.Student.FullName())
		}
		if a.Partner != nil {
			names = append(names, a.Partner.FullName())
		}
		item := dto.SupervisedProjectResponse{
			AssignmentID: a.AssignmentID,
			SubjectID:    a.SubjectID,
			Students:     strings.Join(names, " / "),
			StudentIDs:   a.StudentIDs(),
			StartDate:    dto.FormatDate(a.AssignedAt),
			ExpectedEnd:  dto.FormatDate(a.AssignedAt.AddDate(0, s.supervisionMonths, 0)),
		}
		if a.Subject != nil {
			item.SubjectTitle = a.Subject.Title
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *teacherService) Stats(ctx context.Context, teacherID string) (*dto.TeacherStatsResponse, error) {
	if _, err := s.load(ctx, teacherID); err != nil {
		return nil, err
	}

	counts, err := s.repo.Subject.CountByStatus(ctx, teacherID)
	if err != nil {
		s.logger.Error("统计教师选题失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}
	assigned, err := s.repo.Assignment.CountSubjectsBySupervisor(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	students, err := s.repo.Assignment.CountStudentsBySupervisor(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	return &dto.TeacherStatsResponse{
		SubjectsTotal:      counts[model.SubjectPending] + counts[model.SubjectApproved] + counts[model.SubjectRejected],
		SubjectsPending:    counts[model.SubjectPending],
		SubjectsApproved:   counts[model.SubjectApproved],
		SubjectsAssigned:   assigned,
		StudentsSupervised: students,
	}, nil
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *teacherService) load(ctx context.Context, id string) (*model.Teacher, error) {
	teacher, err := s.repo.Teacher.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return teacher, nil
}

func toTeacherResponse(t *model.Teacher) dto.TeacherResponse {
	return dto.TeacherResponse{
		ID:         t.TeacherID,
		FirstName:  t.FirstName,
		LastName:   t.LastName,
		FullName:   t.FullName(),
		Email:      t.Email,
		Department: t.Department,
		Position:   t.Position,
		Office:     t.Office,
		CreatedAt:  dto.FormatTime(t.CreatedAt),
	}
}
