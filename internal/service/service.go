package service

import (
	"go.uber.org/zap"

	"pfe-hub/backend/config"
	"pfe-hub/backend/internal/repository"
	"pfe-hub/backend/pkg/jwt"
	"pfe-hub/backend/pkg/mailer"
	"pfe-hub/backend/pkg/storage"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Admin        AdminService
	Student      StudentService
	Teacher      TeacherService
	Subject      SubjectService
	Choice       ChoiceService
	Assignment   AssignmentService
	Notification NotificationService
	Supervision  SupervisionService
	Document     DocumentService
	Internship   InternshipService
	SystemConfig SystemConfigService
	Export       ExportService
}

// Deps 基础设施依赖；Redis 未启用时 Blacklist 与 Locker 为 nil
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Mailer    mailer.Mailer
	Storage   storage.Storage
	Blacklist TokenBlacklist
	Locker    RunLocker
	Logger    *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	repo, logger := d.Repo, d.Logger

	notification := NewNotificationService(repo, d.Mailer, d.Config.Server.BaseURL, logger)
	internship := NewInternshipService(repo, logger)

	return &Service{
		Auth:         NewAuthService(repo, d.JWT, d.Blacklist, logger),
		Admin:        NewAdminService(repo, logger),
		Student:      NewStudentService(repo, logger),
		Teacher:      NewTeacherService(repo, d.Config.Assignment.SupervisionMonths, logger),
		Subject:      NewSubjectService(repo, logger),
		Choice:       NewChoiceService(repo, logger),
		Assignment:   NewAssignmentService(repo, notification, d.Locker, d.Config.Assignment.LockTTL, logger),
		Notification: notification,
		Supervision:  NewSupervisionService(repo, logger),
		Document:     NewDocumentService(repo, d.Storage, internship, logger),
		Internship:   internship,
		SystemConfig: NewSystemConfigService(repo, logger),
		Export:       NewExportService(repo, logger),
	}
}
