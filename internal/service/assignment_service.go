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

// ── 选题分配模块业务错误 ──

var (
	ErrAssignmentNotFound      = errors.New("分配记录不存在")
	ErrAssignmentRunInProgress = errors.New("自动分配正在进行中，请稍后再试")
)

// assignmentRunLock 自动分配全局锁名
const assignmentRunLock = "assignment-run"

// defaultRunLockTTL 未配置时的锁过期时间
const defaultRunLockTTL = 5 * time.Minute

// AssignmentNotifier 分配事件的通知出口
type AssignmentNotifier interface {
	NotifyAssignment(ctx context.Context, assignment *model.Assignment) error
	NotifyAssignmentCancelled(ctx context.Context, assignment *model.Assignment) error
}

// RunLocker 跨实例互斥锁（Redis 实现见 pkg/redis）
type RunLocker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), acquired bool, err error)
}

// AssignmentService 选题分配业务接口
type AssignmentService interface {
	// RunAutomatic 执行一次自动分配（自拟选题优先，其余按成绩排序）
	RunAutomatic(ctx context.Context, callerID string) (*dto.AssignmentRunResponse, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*dto.AssignmentResponse, error)
	List(ctx context.Context) ([]dto.AssignmentResponse, error)
	// FindByStudent 学生未被分配时返回 nil, nil
	FindByStudent(ctx context.Context, studentID string) (*dto.AssignmentResponse, error)
	CountStudentsBySupervisor(ctx context.Context, teacherID string) (int64, error)
	CountSubjectsBySupervisor(ctx context.Context, teacherID string) (int64, error)
}

type assignmentService struct {
	repo     *repository.Repository
	notifier AssignmentNotifier
	locker   RunLocker
	lockTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewAssignmentService 创建 AssignmentService 实例
// locker 为 nil 时不做跨实例互斥，仅依赖数据库唯一约束
func NewAssignmentService(
	repo *repository.Repository,
	notifier AssignmentNotifier,
	locker RunLocker,
	lockTTL time.Duration,
	logger *zap.Logger,
) AssignmentService {
	if lockTTL <= 0 {
		lockTTL = defaultRunLockTTL
	}
	return &assignmentService{
		repo:     repo,
		notifier: notifier,
		locker:   locker,
		lockTTL:  lockTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── Delete ──────────────────────

func (s *assignmentService) Delete(ctx context.Context, id string) error {
	var deleted *model.Assignment
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		a, err := tx.Assignment.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}
		if err := tx.Assignment.Delete(ctx, id); err != nil {
			return err
		}
		deleted = a
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrAssignmentNotFound) {
			s.logger.Error("删除分配失败", zap.String("id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("分配已删除",
		zap.String("assignment_id", id),
		zap.String("subject_id", deleted.SubjectID),
	)

	// 通知失败不回滚删除
	if s.notifier != nil {
		if err := s.notifier.NotifyAssignmentCancelled(ctx, deleted); err != nil {
			s.logger.Warn("发送取消分配通知失败", zap.String("assignment_id", id), zap.Error(err))
		}
	}
	return nil
}

// ────────────────────── 查询 ──────────────────────

func (s *assignmentService) GetByID(ctx context.Context, id string) (*dto.AssignmentResponse, error) {
	a, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询分配失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toAssignmentResponse(a)
	return &resp, nil
}

func (s *assignmentService) List(ctx context.Context) ([]dto.AssignmentResponse, error) {
	list, err := s.repo.Assignment.List(ctx)
	if err != nil {
		s.logger.Error("列出分配失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, toAssignmentResponse(&list[i]))
	}
	return result, nil
}

func (s *assignmentService) FindByStudent(ctx context.Context, studentID string) (*dto.AssignmentResponse, error) {
	a, err := s.repo.Assignment.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("按学生查询分配失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	resp := toAssignmentResponse(a)
	return &resp, nil
}

func (s *assignmentService) CountStudentsBySupervisor(ctx context.Context, teacherID string) (int64, error) {
	return s.repo.Assignment.CountStudentsBySupervisor(ctx, teacherID)
}

func (s *assignmentService) CountSubjectsBySupervisor(ctx context.Context, teacherID string) (int64, error) {
	return s.repo.Assignment.CountSubjectsBySupervisor(ctx, teacherID)
}

// ────────────────────── 内部辅助 ──────────────────────

const unspecifiedSupervisor = "未指定"

func toAssignmentResponse(a *model.Assignment) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:           a.AssignmentID,
		SubjectID:    a.SubjectID,
		StudentID:    a.StudentID,
		PartnerID:    a.PartnerID,
		SupervisorID: a.SupervisorID,
		Supervisor:   unspecifiedSupervisor,
		AssignedAt:   dto.FormatDate(a.AssignedAt),
	}
	if a.Subject != nil {
		resp.SubjectTitle = a.Subject.Title
	}
	if a.Student != nil {
		resp.StudentName = a.Student.FullName()
	}
	if a.Partner != nil {
		name := a.Partner.FullName()
		resp.PartnerName = &name
	}
	if a.Supervisor != nil {
		resp.Supervisor = a.Supervisor.FullName()
	}
	return resp
}
