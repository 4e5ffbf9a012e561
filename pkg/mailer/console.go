package mailer

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// ConsoleMailer 开发环境使用：不真正发信，只把邮件写入日志
type ConsoleMailer struct {
	from       mail.Address
	subjPrefix string
	logger     *zap.Logger
}

var _ Mailer = (*ConsoleMailer)(nil)

// NewConsoleMailer 创建日志邮件发送器
func NewConsoleMailer(from mail.Address, subjPrefix string, logger *zap.Logger) *ConsoleMailer {
	return &ConsoleMailer{from: from, subjPrefix: subjPrefix, logger: logger.Named("mailer")}
}

func (m *ConsoleMailer) Send(_ context.Context, msg *Message) error {
	if !msg.HasRecipients() {
		return nil
	}

	m.logger.Info("邮件（console 模式，未实际发送）",
		zap.String("from", m.from.String()),
		zap.String("to", joinAddresses(msg.To)),
		zap.String("subject", m.subjPrefix+msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}

func joinAddresses(addrs []mail.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}
