package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
	"pfe-hub/backend/pkg/mailer"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = errors.New("通知不存在")
)

const relatedAssignment = "assignment"

// NotificationService 站内通知与邮件业务接口
type NotificationService interface {
	AssignmentNotifier

	ListMine(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID string) (*dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo    *repository.Repository
	mailer  mailer.Mailer
	baseURL string
	logger  *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
// mailer 为 nil 时只写站内通知
func NewNotificationService(repo *repository.Repository, m mailer.Mailer, baseURL string, logger *zap.Logger) NotificationService {
	return &notificationService{
		repo:    repo,
		mailer:  m,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// ════════════════════════════════════════════════════════════
// 分配通知
// ════════════════════════════════════════════════════════════
//
// 每个存在的当事人（主学生、搭档、指导教师）各写一条站内通知，
// 所有能解析到邮箱的当事人合并为一封邮件。

func (s *notificationService) NotifyAssignment(ctx context.Context, a *model.Assignment) error {
	p, err := s.resolveParties(ctx, a)
	if err != nil {
		return err
	}

	link := "/assignments/" + a.AssignmentID
	title := "选题分配结果"

	rows := make([]model.Notification, 0, 3)
	var letter mailLetter
	if p.student != nil {
		content := fmt.Sprintf("你已被分配到选题《%s》", p.subjectTitle)
		if p.partner != nil {
			content += fmt.Sprintf("，搭档：%s", p.partner.FullName())
		}
		content += fmt.Sprintf("，指导教师：%s。", p.supervisorName())
		rows = append(rows, s.newRow(p.student.StudentID, model.NotificationAssignmentCreated, title, content, &link, a))
		letter.add(p.student.FullName(), content)
	}
	if p.partner != nil {
		content := fmt.Sprintf("你作为搭档被分配到选题《%s》，主申请人：%s，指导教师：%s。",
			p.subjectTitle, p.studentName(), p.supervisorName())
		rows = append(rows, s.newRow(p.partner.StudentID, model.NotificationAssignmentCreated, title, content, &link, a))
		letter.add(p.partner.FullName(), content)
	}
	if p.supervisor != nil {
		content := fmt.Sprintf("你指导的选题《%s》已分配给 %s。", p.subjectTitle, p.membersLabel())
		rows = append(rows, s.newRow(p.supervisor.TeacherID, model.NotificationAssignmentCreated, title, content, &link, a))
		letter.add(p.supervisor.FullName(), content)
	}

	body := fmt.Sprintf("选题《%s》已完成分配。\n学生：%s\n指导教师：%s\n分配日期：%s\n",
		p.subjectTitle, p.membersLabel(), p.supervisorName(), dto.FormatDate(a.AssignedAt))
	body += letter.String()
	if s.baseURL != "" {
		body += "详情：" + s.baseURL + link + "\n"
	}

	return s.dispatch(ctx, a, rows, &mailer.Message{
		Subject: "选题分配通知：" + p.subjectTitle,
		Text:    body,
	}, p)
}

func (s *notificationService) NotifyAssignmentCancelled(ctx context.Context, a *model.Assignment) error {
	p, err := s.resolveParties(ctx, a)
	if err != nil {
		return err
	}

	title := "选题分配已取消"
	content := fmt.Sprintf("选题《%s》的分配已被取消，该选题将重新参与分配。", p.subjectTitle)

	rows := make([]model.Notification, 0, 3)
	var letter mailLetter
	if p.student != nil {
		rows = append(rows, s.newRow(p.student.StudentID, model.NotificationAssignmentCancelled, title, content, nil, a))
		letter.add(p.student.FullName(), content)
	}
	if p.partner != nil {
		partnerContent := fmt.Sprintf("你作为搭档参与的选题《%s》（主申请人：%s）的分配已被取消，该选题将重新参与分配。",
			p.subjectTitle, p.studentName())
		rows = append(rows, s.newRow(p.partner.StudentID, model.NotificationAssignmentCancelled, title, partnerContent, nil, a))
		letter.add(p.partner.FullName(), partnerContent)
	}
	if p.supervisor != nil {
		supContent := fmt.Sprintf("你指导的选题《%s》（学生：%s）的分配已被取消。", p.subjectTitle, p.membersLabel())
		rows = append(rows, s.newRow(p.supervisor.TeacherID, model.NotificationAssignmentCancelled, title, supContent, nil, a))
		letter.add(p.supervisor.FullName(), supContent)
	}

	body := fmt.Sprintf("选题《%s》的分配已被取消。\n原分配学生：%s\n指导教师：%s\n",
		p.subjectTitle, p.membersLabel(), p.supervisorName())
	return s.dispatch(ctx, a, rows, &mailer.Message{
		Subject: "选题分配取消通知：" + p.subjectTitle,
		Text:    body + letter.String(),
	}, p)
}

// mailLetter 合并邮件中按当事人分段的正文
type mailLetter struct {
	b strings.Builder
}

func (l *mailLetter) add(name, content string) {
	fmt.Fprintf(&l.b, "\n致 %s：%s\n", name, content)
}

func (l *mailLetter) String() string { return l.b.String() }

// dispatch 写入站内通知后发送合并邮件
func (s *notificationService) dispatch(ctx context.Context, a *model.Assignment, rows []model.Notification, msg *mailer.Message, p *parties) error {
	if len(rows) > 0 {
		if err := s.repo.Notification.CreateBatch(ctx, rows); err != nil {
			s.logger.Error("写入站内通知失败", zap.String("assignment_id", a.AssignmentID), zap.Error(err))
			return err
		}
	}

	if s.mailer == nil || !s.mailEnabled(ctx) {
		return nil
	}

	msg.To = p.addresses()
	if !msg.HasRecipients() {
		s.logger.Info("无可用收件地址，跳过邮件", zap.String("assignment_id", a.AssignmentID))
		return nil
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("发送分配邮件失败: %w", err)
	}
	return nil
}

// mailEnabled 系统配置关闭分配邮件时只保留站内通知
func (s *notificationService) mailEnabled(ctx context.Context) bool {
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("读取系统配置失败，按默认发送邮件", zap.Error(err))
		}
		return true
	}
	return cfg.NotifyOnAssignment
}

func (s *notificationService) newRow(userID, typ, title, content string, link *string, a *model.Assignment) model.Notification {
	related := relatedAssignment
	id := a.AssignmentID
	return model.Notification{
		UserID:      userID,
		Type:        typ,
		Title:       title,
		Content:     content,
		Link:        link,
		RelatedType: &related,
		RelatedID:   &id,
	}
}

// ────────────────────── 当事人解析 ──────────────────────

type parties struct {
	subjectTitle string
	student      *model.Student
	partner      *model.Student
	supervisor   *model.Teacher
}

// resolveParties 补齐未预加载的关联；搭档或教师不存在时忽略
func (s *notificationService) resolveParties(ctx context.Context, a *model.Assignment) (*parties, error) {
	p := &parties{student: a.Student, partner: a.Partner, supervisor: a.Supervisor}

	if a.Subject != nil {
		p.subjectTitle = a.Subject.Title
	} else {
		subject, err := s.repo.Subject.GetByID(ctx, a.SubjectID)
		switch {
		case err == nil:
			p.subjectTitle = subject.Title
		case errors.Is(err, gorm.ErrRecordNotFound):
			p.subjectTitle = a.SubjectID
		default:
			return nil, err
		}
	}

	if p.student == nil && a.StudentID != "" {
		st, err := s.repo.Student.GetByID(ctx, a.StudentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		p.student = st
	}
	if p.partner == nil && a.PartnerID != nil && *a.PartnerID != "" {
		st, err := s.repo.Student.GetByID(ctx, *a.PartnerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		p.partner = st
	}
	if p.supervisor == nil && a.SupervisorID != nil && *a.SupervisorID != "" {
		t, err := s.repo.Teacher.GetByID(ctx, *a.SupervisorID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		p.supervisor = t
	}
	return p, nil
}

func (p *parties) studentName() string {
	if p.student == nil {
		return "未知"
	}
	return p.student.FullName()
}

func (p *parties) supervisorName() string {
	if p.supervisor == nil {
		return unspecifiedSupervisor
	}
	return p.supervisor.FullName()
}

func (p *parties) membersLabel() string {
	names := []string{p.studentName()}
	if p.partner != nil {
		names = append(names, p.partner.FullName())
	}
	return strings.Join(names, " / ")
}

// addresses 收集可解析的邮箱，无效地址跳过
func (p *parties) addresses() []mail.Address {
	var out []mail.Address
	add := func(name, email string) {
		if email == "" {
			return
		}
		addr, err := mail.ParseAddress(email)
		if err != nil {
			return
		}
		addr.Name = name
		out = append(out, *addr)
	}
	if p.student != nil {
		add(p.student.FullName(), p.student.Email)
	}
	if p.partner != nil {
		add(p.partner.FullName(), p.partner.Email)
	}
	if p.supervisor != nil {
		add(p.supervisor.FullName(), p.supervisor.Email)
	}
	return out
}

// ════════════════════════════════════════════════════════════
// 个人通知
// ════════════════════════════════════════════════════════════

func (s *notificationService) ListMine(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		n := &list[i]
		result = append(result, dto.NotificationResponse{
			ID:        n.NotificationID,
			Type:      n.Type,
			Title:     n.Title,
			Content:   n.Content,
			Link:      n.Link,
			IsRead:    n.IsRead,
			CreatedAt: dto.FormatTime(n.CreatedAt),
		})
	}
	return result, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (*dto.UnreadCountResponse, error) {
	n, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("统计未读通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &dto.UnreadCountResponse{Unread: n}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	ok, err := s.repo.Notification.MarkRead(ctx, id, userID)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.Notification.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error("全部标记已读失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return n, nil
}
