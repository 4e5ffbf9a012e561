package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// SendgridMailer 通过 SendGrid v3 API 发信
type SendgridMailer struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
	logger     *zap.Logger
}

var _ Mailer = (*SendgridMailer)(nil)

// NewSendgridMailer 创建 SendGrid 发送器
func NewSendgridMailer(apiKey string, from mail.Address, subjPrefix string, logger *zap.Logger) *SendgridMailer {
	return &SendgridMailer{
		client:     sendgrid.NewSendClient(apiKey),
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: subjPrefix,
		logger:     logger.Named("mailer"),
	}
}

func (m *SendgridMailer) Send(ctx context.Context, msg *Message) error {
	if !msg.HasRecipients() {
		return nil
	}

	res, err := m.client.SendWithContext(ctx, m.build(msg))
	if err != nil {
		return fmt.Errorf("调用 SendGrid 失败: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("SendGrid 返回 %d: %s", res.StatusCode, res.Body)
	}

	m.logger.Debug("邮件已发送", zap.Int("recipients", len(msg.To)), zap.Int("status", res.StatusCode))
	return nil
}

// build 所有收件人放在同一个 personalization 中，即一封邮件多个收件人
func (m *SendgridMailer) build(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return v3
}
