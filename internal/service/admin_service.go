package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pfe-hub/backend/config"
	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
)

// ── 管理员模块业务错误 ──

var (
	ErrAdminNotFound   = errors.New("管理员不存在")
	ErrAdminSelfDelete = errors.New("不能删除自己")
	ErrLastAdmin       = errors.New("至少保留一名管理员")
)

// AdminService 管理员账号业务接口
type AdminService interface {
	List(ctx context.Context) ([]dto.AdminResponse, error)
	Create(ctx context.Context, req *dto.CreateAdminRequest, callerID string) (*dto.AdminResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	// EnsureBootstrap 管理员表为空且配置了初始账号时创建第一个管理员
	EnsureBootstrap(ctx context.Context, cfg *config.BootstrapConfig) error
}

type adminService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAdminService 创建 AdminService 实例
func NewAdminService(repo *repository.Repository, logger *zap.Logger) AdminService {
	return &adminService{repo: repo, logger: logger}
}

func (s *adminService) List(ctx context.Context) ([]dto.AdminResponse, error) {
	admins, err := s.repo.Admin.List(ctx)
	if err != nil {
		s.logger.Error("列出管理员失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.AdminResponse, 0, len(admins))
	for i := range admins {
		result = append(result, toAdminResponse(&admins[i]))
	}
	return result, nil
}

func (s *adminService) Create(ctx context.Context, req *dto.CreateAdminRequest, callerID string) (*dto.AdminResponse, error) {
	if err := ensureEmailFree(ctx, s.repo, req.Email, ""); err != nil {
		return nil, err
	}
	admin, err := s.create(ctx, req.FirstName, req.LastName, req.Email, req.Password, callerID)
	if err != nil {
		return nil, err
	}
	resp := toAdminResponse(admin)
	return &resp, nil
}

func (s *adminService) Delete(ctx context.Context, id, callerID string) error {
	if id == callerID {
		return ErrAdminSelfDelete
	}
	if _, err := s.repo.Admin.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminNotFound
		}
		return err
	}

	n, err := s.repo.Admin.Count(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}

	if err := s.repo.Admin.Delete(ctx, id); err != nil {
		s.logger.Error("删除管理员失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *adminService) EnsureBootstrap(ctx context.Context, cfg *config.BootstrapConfig) error {
	n, err := s.repo.Admin.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		s.logger.Warn("尚无管理员账号，且未配置 auth.bootstrap_admin")
		return nil
	}

	admin, err := s.create(ctx, cfg.FirstName, cfg.LastName, cfg.Email, cfg.Password, "")
	if err != nil {
		return err
	}
	s.logger.Info("已创建初始管理员", zap.String("email", admin.Email))
	return nil
}

func (s *adminService) create(ctx context.Context, first, last, email, password, callerID string) (*model.Administrator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}
	admin := &model.Administrator{
		FirstName:    first,
		LastName:     last,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
	}
	admin.StampCreated(callerID)
	if err := s.repo.Admin.Create(ctx, admin); err != nil {
		s.logger.Error("创建管理员失败", zap.Error(err))
		return nil, err
	}
	return admin, nil
}

func toAdminResponse(a *model.Administrator) dto.AdminResponse {
	return dto.AdminResponse{
		ID:        a.AdminID,
		FullName:  a.FullName(),
		Email:     a.Email,
		CreatedAt: dto.FormatTime(a.CreatedAt),
	}
}
