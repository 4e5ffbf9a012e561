package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pfe-hub/backend/config"
	"pfe-hub/backend/internal/api/handler"
	"pfe-hub/backend/internal/api/middleware"
	"pfe-hub/backend/internal/api/validation"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/pkg/jwt"
)

// 非上传接口的请求体上限
const jsonBodyLimit = 1 << 20

// Deps 路由依赖；Revoked 与 Limiter 可为 nil（未启用 Redis）
type Deps struct {
	Config  *config.Config
	Handler *handler.Handler
	JWT     *jwt.Manager
	Revoked middleware.TokenRevocationChecker
	Limiter middleware.RateLimiter
	Logger  *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if err := validation.Register(); err != nil {
		d.Logger.Warn("注册自定义校验规则失败", zap.Error(err))
	}

	cfg, h := d.Config, d.Handler
	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleTeacher)
	studentOrAdmin := middleware.RoleAuth(model.RoleAdmin, model.RoleStudent)
	uploadLimit := middleware.BodyLimit(cfg.Server.MaxUploadSize)
	jsonLimit := middleware.BodyLimit(jsonBodyLimit)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth", jsonLimit)
		{
			auth.POST("/login", middleware.RateLimit(d.Limiter, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", middleware.RateLimit(d.Limiter, 30, time.Minute), h.Auth.RefreshToken)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, d.Revoked))
		{
			authorized.POST("/auth/logout", jsonLimit, h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 学生
			students := authorized.Group("/students", jsonLimit)
			{
				students.GET("", staff, h.Student.ListStudents)
				students.GET("/ranking", staff, h.Student.Ranking)
				students.GET("/count", admin, h.Student.CountStudents)
				students.POST("", admin, h.Student.CreateStudent)
				students.GET("/:id", h.Student.GetStudent)
				students.PUT("/:id", h.Student.UpdateStudent) // 学生仅能修改本人（Service 层鉴权）
				students.DELETE("/:id", admin, h.Student.DeleteStudent)
				students.GET("/:id/assignment", h.Student.GetAssignment)
				students.GET("/:id/choices", h.Student.ListChoices)
			}
			authorized.POST("/students/import", admin, uploadLimit, h.Student.ImportGrades)

			// 教师
			teachers := authorized.Group("/teachers", jsonLimit)
			{
				teachers.GET("", h.Teacher.ListTeachers)
				teachers.POST("", admin, h.Teacher.CreateTeacher)
				teachers.GET("/:id", h.Teacher.GetTeacher)
				teachers.PUT("/:id", staff, h.Teacher.UpdateTeacher)
				teachers.DELETE("/:id", admin, h.Teacher.DeleteTeacher)
				teachers.GET("/:id/subjects", staff, h.Teacher.ProposedSubjects)
				teachers.GET("/:id/projects", staff, h.Teacher.SupervisedProjects)
				teachers.GET("/:id/stats", staff, h.Teacher.TeacherStats)
			}

			// 管理员
			admins := authorized.Group("/admins", admin, jsonLimit)
			{
				admins.GET("", h.Admin.ListAdmins)
				admins.POST("", h.Admin.CreateAdmin)
				admins.DELETE("/:id", h.Admin.DeleteAdmin)
			}

			// 选题
			subjects := authorized.Group("/subjects", jsonLimit)
			{
				subjects.GET("", h.Subject.ListSubjects)
				subjects.GET("/stats", h.Subject.SubjectStats)
				subjects.POST("", staff, h.Subject.CreateSubject)
				subjects.POST("/proposals", middleware.RoleAuth(model.RoleStudent), h.Subject.ProposeSubject)
				subjects.GET("/:id", h.Subject.GetSubject)
				subjects.PUT("/:id", staff, h.Subject.UpdateSubject)
				subjects.DELETE("/:id", staff, h.Subject.DeleteSubject)
				subjects.PUT("/:id/approve", admin, h.Subject.ApproveSubject)
				subjects.PUT("/:id/reject", admin, h.Subject.RejectSubject)
				subjects.GET("/:id/choices", staff, h.Subject.ListChoices)

				// 指导记录
				subjects.POST("/:id/feedback", staff, h.Teacher.AddFeedback)
				subjects.GET("/:id/feedback", staff, h.Teacher.ListFeedback)
				subjects.POST("/:id/meetings", staff, h.Teacher.ScheduleMeeting)
				subjects.GET("/:id/meetings", staff, h.Teacher.ListMeetings)
			}

			// 志愿
			choices := authorized.Group("/choices", jsonLimit)
			{
				choices.POST("", studentOrAdmin, h.Choice.CreateChoice)
				choices.DELETE("/:id", studentOrAdmin, h.Choice.DeleteChoice)
				choices.GET("/students/count", admin, h.Choice.CountStudents)
			}

			// 分配
			assignments := authorized.Group("/assignments", jsonLimit)
			{
				assignments.POST("/auto", admin, h.Assignment.RunAutomatic)
				assignments.GET("", staff, h.Assignment.ListAssignments)
				assignments.GET("/:id", h.Assignment.GetAssignment)
				assignments.DELETE("/:id", admin, h.Assignment.DeleteAssignment)
			}

			// 文档
			documents := authorized.Group("/documents")
			{
				documents.POST("", uploadLimit, h.Document.UploadDocument)
				documents.GET("", h.Document.ListDocuments)
				documents.GET("/:id", h.Document.GetDocument)
				documents.GET("/:id/download", h.Document.DownloadDocument)
				documents.PUT("/:id/validate", staff, h.Document.ValidateDocument)
				documents.PUT("/:id/reject", staff, jsonLimit, h.Document.RejectDocument)
				documents.DELETE("/:id", h.Document.DeleteDocument)
			}

			// 实习
			internships := authorized.Group("/internships", jsonLimit)
			{
				internships.POST("", studentOrAdmin, h.Internship.CreateInternship)
				internships.GET("", h.Internship.ListInternships)
				internships.GET("/stats", admin, h.Internship.InternshipStats)
				internships.GET("/:id", h.Internship.GetInternship)
				internships.PUT("/:id/validate", staff, h.Internship.ValidateInternship)
				internships.PUT("/:id/status", admin, h.Internship.UpdateStatus)
			}

			// 通知
			notifications := authorized.Group("/notifications", jsonLimit)
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			// 系统配置
			authorized.GET("/system-config", h.SystemConfig.GetConfig)
			authorized.PUT("/system-config", admin, jsonLimit, h.SystemConfig.UpdateConfig)

			// 导出
			authorized.GET("/export/assignments", admin, h.Export.ExportAssignments)
		}
	}

	return r
}
