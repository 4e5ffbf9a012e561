package handler

import (
	"pfe-hub/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Student      *StudentHandler
	Teacher      *TeacherHandler
	Admin        *AdminHandler
	Subject      *SubjectHandler
	Choice       *ChoiceHandler
	Assignment   *AssignmentHandler
	Notification *NotificationHandler
	Document     *DocumentHandler
	Internship   *InternshipHandler
	SystemConfig *SystemConfigHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, opts AuthCookieOptions) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, &opts),
		Student:      NewStudentHandler(svc.Student, svc.Assignment, svc.Choice),
		Teacher:      NewTeacherHandler(svc.Teacher, svc.Supervision),
		Admin:        NewAdminHandler(svc.Admin),
		Subject:      NewSubjectHandler(svc.Subject, svc.Choice),
		Choice:       NewChoiceHandler(svc.Choice),
		Assignment:   NewAssignmentHandler(svc.Assignment),
		Notification: NewNotificationHandler(svc.Notification),
		Document:     NewDocumentHandler(svc.Document),
		Internship:   NewInternshipHandler(svc.Internship),
		SystemConfig: NewSystemConfigHandler(svc.SystemConfig),
		Export:       NewExportHandler(svc.Export),
	}
}
