package service

import (
	"context"
	"fmt"
	"time"

	"github.com/BerniceZTT/smartcrm/config"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/cenkalti/backoff/v4"
	"gopkg.in/gomail.v2"
)

// Notifier 发送提醒
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPNotifier 通过 SMTP 发送邮件
type SMTPNotifier struct {
	cfg      config.SMTPConfig
	dialer   *gomail.Dialer
	attempts uint64
}

// NewSMTPNotifier 创建邮件发送器
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	n := &SMTPNotifier{cfg: cfg, attempts: 2}
	if cfg.Enabled() {
		n.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	}
	return n
}

// Send 未配置 SMTP 时只记录警告
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	if n.dialer == nil {
		utils.Logger.Warn().Str("to", to).Msg("SMTP未配置，跳过邮件发送")
		return nil
	}

	from := n.cfg.From
	if from == "" {
		from = n.cfg.User
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), n.attempts)
	notify := func(err error, d time.Duration) {
		utils.Logger.Warn().Err(err).Str("to", to).Dur("after", d).Msg("邮件发送失败，重试")
	}
	if err := backoff.RetryNotify(func() error {
		return n.dialer.DialAndSend(msg)
	}, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	utils.Logger.Info().Str("to", to).Msg("邮件已发送")
	return nil
}
