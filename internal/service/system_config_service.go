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

// ── 系统配置模块业务错误 ──

var (
	ErrSystemConfigNotFound = errors.New("系统配置未初始化")
)

// SystemConfigService 系统配置业务接口
type SystemConfigService interface {
	Get(ctx context.Context) (*dto.SystemConfigResponse, error)
	Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error)
}

type systemConfigService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemConfigService 创建 SystemConfigService 实例
func NewSystemConfigService(repo *repository.Repository, logger *zap.Logger) SystemConfigService {
	return &systemConfigService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *systemConfigService) Get(ctx context.Context) (*dto.SystemConfigResponse, error) {
	cfg, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return toSystemConfigResponse(cfg), nil
}

// ────────────────────── Update ──────────────────────

func (s *systemConfigService) Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error) {
	cfg, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if req.MaxChoicesPerStudent != nil {
		cfg.MaxChoicesPerStudent = *req.MaxChoicesPerStudent
	}
	if req.ClearChoiceDeadline {
		cfg.ChoiceDeadline = nil
	} else if req.ChoiceDeadline != nil {
		deadline, err := time.Parse(time.RFC3339, *req.ChoiceDeadline)
		if err != nil {
			return nil, err
		}
		deadline = deadline.UTC()
		cfg.ChoiceDeadline = &deadline
	}
	if req.NotifyOnAssignment != nil {
		cfg.NotifyOnAssignment = *req.NotifyOnAssignment
	}
	cfg.StampUpdated(callerID)

	if err := s.repo.SystemConfig.Update(ctx, cfg); err != nil {
		s.logger.Error("更新系统配置失败", zap.Error(err))
		return nil, err
	}
	return toSystemConfigResponse(cfg), nil
}

func (s *systemConfigService) load(ctx context.Context) (*model.SystemConfig, error) {
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSystemConfigNotFound
		}
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

func toSystemConfigResponse(cfg *model.SystemConfig) *dto.SystemConfigResponse {
	resp := &dto.SystemConfigResponse{
		MaxChoicesPerStudent: cfg.MaxChoicesPerStudent,
		NotifyOnAssignment:   cfg.NotifyOnAssignment,
		UpdatedAt:            dto.FormatTime(cfg.UpdatedAt),
	}
	if cfg.ChoiceDeadline != nil {
		d := dto.FormatTime(*cfg.ChoiceDeadline)
		resp.ChoiceDeadline = &d
	}
	return resp
}
