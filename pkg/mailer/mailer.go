package mailer

import (
	"context"
	"fmt"
	"net/mail"

	"go.uber.org/zap"

	"pfe-hub/backend/config"
)

// Message 一封待发送的邮件
type Message struct {
	To      []mail.Address
	Subject string
	Text    string
	HTML    string
}

// HasRecipients 是否至少有一个收件人
func (m *Message) HasRecipients() bool { return len(m.To) > 0 }

// Mailer 邮件发送接口
// Send 同步发送；调用方决定失败时是否继续
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// New 按配置创建邮件发送器
func New(cfg *config.MailConfig, logger *zap.Logger) (Mailer, error) {
	from := mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}

	switch cfg.Provider {
	case "console":
		return NewConsoleMailer(from, cfg.SubjectPrefix, logger), nil
	case "sendgrid":
		return NewSendgridMailer(cfg.SendgridAPIKey, from, cfg.SubjectPrefix, logger), nil
	default:
		return nil, fmt.Errorf("不支持的邮件服务: %s", cfg.Provider)
	}
}
