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

// ── 实习模块业务错误 ──

var (
	ErrInternshipNotFound  = errors.New("实习不存在")
	ErrInternshipDateRange = errors.New("结束日期不能早于开始日期")
	ErrInternshipStatus    = errors.New("无效的实习状态")
)

// 报告提交状态
const (
	reportSubmitted    = "已提交"
	reportNotSubmitted = "未提交"
)

// InternshipPolicy 文档审核通过后的实习状态联动
type InternshipPolicy interface {
	OnDocumentValidated(ctx context.Context, doc *model.Document) error
}

// InternshipService 实习业务接口
type InternshipService interface {
	InternshipPolicy

	Create(ctx context.Context, req *dto.CreateInternshipRequest, callerID, callerRole string) (*dto.InternshipResponse, error)
	GetByID(ctx context.Context, id, callerID, callerRole string) (*dto.InternshipResponse, error)
	List(ctx context.Context, studentID, status string) ([]dto.InternshipResponse, error)
	Validate(ctx context.Context, id, callerID string) (*dto.InternshipResponse, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateInternshipStatusRequest, callerID string) (*dto.InternshipResponse, error)
	Stats(ctx context.Context) (*dto.InternshipStatsResponse, error)
}

type internshipService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewInternshipService 创建 InternshipService 实例
func NewInternshipService(repo *repository.Repository, logger *zap.Logger) InternshipService {
	return &internshipService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *internshipService) Create(ctx context.Context, req *dto.CreateInternshipRequest, callerID, callerRole string) (*dto.InternshipResponse, error) {
	studentID := req.StudentID
	if callerRole == model.RoleStudent {
		studentID = callerID
	}
	if studentID == "" {
		return nil, ErrChoiceStudentNeeded
	}
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	start, err := time.Parse(dto.DateLayout, req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(dto.DateLayout, req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrInternshipDateRange
	}

	in := &model.Internship{
		Company:                 req.Company,
		Project:                 req.Project,
		StartDate:               start,
		EndDate:                 end,
		Location:                req.Location,
		ExternalSupervisor:      req.ExternalSupervisor,
		ExternalSupervisorEmail: req.ExternalSupervisorEmail,
		Description:             req.Description,
		Status:                  model.InternshipPending,
		StudentID:               studentID,
	}
	in.StampCreated(callerID)

	if err := s.repo.Internship.Create(ctx, in); err != nil {
		s.logger.Error("创建实习失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	resp := toInternshipResponse(in)
	return &resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *internshipService) GetByID(ctx context.Context, id, callerID, callerRole string) (*dto.InternshipResponse, error) {
	in, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == model.RoleStudent && in.StudentID != callerID {
		return nil, ErrNotOwner
	}
	resp := toInternshipResponse(in)
	return &resp, nil
}

func (s *internshipService) List(ctx context.Context, studentID, status string) ([]dto.InternshipResponse, error) {
	list, err := s.repo.Internship.List(ctx, studentID, model.InternshipStatus(status))
	if err != nil {
		s.logger.Error("列出实习失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.InternshipResponse, 0, len(list))
	for i := range list {
		result = append(result, toInternshipResponse(&list[i]))
	}
	return result, nil
}

func (s *internshipService) Stats(ctx context.Context) (*dto.InternshipStatsResponse, error) {
	counts, err := s.repo.Internship.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("统计实习失败", zap.Error(err))
		return nil, err
	}
	resp := &dto.InternshipStatsResponse{
		Pending:    counts[model.InternshipPending],
		InProgress: counts[model.InternshipInProgress],
		Validated:  counts[model.InternshipValidated],
		Cancelled:  counts[model.InternshipCancelled],
	}
	resp.Total = resp.Pending + resp.InProgress + resp.Validated + resp.Cancelled
	return resp, nil
}

// ────────────────────── 状态变更 ──────────────────────

func (s *internshipService) Validate(ctx context.Context, id, callerID string) (*dto.InternshipResponse, error) {
	in, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status == model.InternshipValidated {
		resp := toInternshipResponse(in)
		return &resp, nil
	}
	return s.save(ctx, in, model.InternshipValidated, callerID)
}

func (s *internshipService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateInternshipStatusRequest, callerID string) (*dto.InternshipResponse, error) {
	status := model.InternshipStatus(req.Status)
	if !status.Valid() {
		return nil, ErrInternshipStatus
	}
	in, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	return s.save(ctx, in, status, callerID)
}

// OnDocumentValidated 报告、海报或实习证明审核通过时，进行中的实习自动转为已验收
func (s *internshipService) OnDocumentValidated(ctx context.Context, doc *model.Document) error {
	if doc.InternshipID == nil || !doc.CountsForInternship() {
		return nil
	}
	in, err := s.repo.Internship.GetByID(ctx, *doc.InternshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if in.Status != model.InternshipInProgress {
		return nil
	}

	in.Status = model.InternshipValidated
	in.UpdatedBy = doc.UpdatedBy
	if err := s.repo.Internship.Update(ctx, in); err != nil {
		return err
	}
	s.logger.Info("文档审核通过，实习已自动验收",
		zap.String("internship_id", in.InternshipID),
		zap.String("document_id", doc.DocumentID),
	)
	return nil
}

func (s *internshipService) save(ctx context.Context, in *model.Internship, status model.InternshipStatus, callerID string) (*dto.InternshipResponse, error) {
	in.Status = status
	in.StampUpdated(callerID)
	if err := s.repo.Internship.Update(ctx, in); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新实习失败", zap.String("id", in.InternshipID), zap.Error(err))
		}
		return nil, err
	}
	resp := toInternshipResponse(in)
	return &resp, nil
}

func (s *internshipService) load(ctx context.Context, id string) (*model.Internship, error) {
	in, err := s.repo.Internship.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInternshipNotFound
		}
		s.logger.Error("查询实习失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return in, nil
}

func toInternshipResponse(in *model.Internship) dto.InternshipResponse {
	resp := dto.InternshipResponse{
		ID:                      in.InternshipID,
		Company:                 in.Company,
		Project:                 in.Project,
		StartDate:               dto.FormatDate(in.StartDate),
		EndDate:                 dto.FormatDate(in.EndDate),
		Location:                in.Location,
		ExternalSupervisor:      in.ExternalSupervisor,
		ExternalSupervisorEmail: in.ExternalSupervisorEmail,
		Description:             in.Description,
		Status:                  string(in.Status),
		ReportStatus:            reportNotSubmitted,
		StudentID:               in.StudentID,
		Version:                 in.Version,
	}
	if in.Student != nil {
		resp.StudentName = in.Student.FullName()
	}
	for i := range in.Documents {
		d := &in.Documents[i]
		if d.Type == model.DocumentReport {
			resp.ReportStatus = reportSubmitted
		}
		resp.Documents = append(resp.Documents, toDocumentResponse(d))
	}
	return resp
}
