// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package mail delivers challenge codes over SMTP.
package mail

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	gomail "github.com/wneessen/go-mail"

	"github.com/accountd/accountd/internal/config"
)

// Transient SMTP failures are retried with fibonacci backoff.
const (
	maxSendRetries = 3
	retryBase      = 500 * time.Millisecond
)

// smtpClient is the subset of gomail.Client the sender uses.
type smtpClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Sender implements account.Mailer over SMTP.
type Sender struct {
	client   smtpClient
	from     string
	fromName string
	logger   *slog.Logger
	backoff  func() retry.Backoff
}

// NewSender creates a Sender from the SMTP configuration. Port 465
// implies implicit TLS.
func NewSender(cfg config.SMTPConfig, logger *slog.Logger) (*Sender, error) {
	if cfg.Host == "" {
		return nil, oops.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, oops.Errorf("smtp from address is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	}
	if cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code("MAIL_CLIENT_FAILED").
			With("host", cfg.Host).
			Wrap(err)
	}

	return &Sender{
		client:   client,
		from:     cfg.From,
		fromName: cfg.FromName,
		logger:   logger,
		backoff:  defaultBackoff,
	}, nil
}

func defaultBackoff() retry.Backoff {
	return retry.WithMaxRetries(maxSendRetries, retry.NewFibonacci(retryBase))
}

// Send delivers a plain-text message, retrying transient failures.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return oops.Code("MAIL_INVALID_FROM").With("from", s.from).Wrap(err)
	}
	if err := msg.To(to); err != nil {
		return oops.Code("MAIL_INVALID_RECIPIENT").Wrap(err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
			s.logger.WarnContext(ctx, "mail send attempt failed", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("subject", subject).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "mail sent", "subject", subject)
	return nil
}
