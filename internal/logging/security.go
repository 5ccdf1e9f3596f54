// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

// SecurityLogger writes audit events to the main log with an `audit` marker,
// so they can be routed to a separate sink by the log pipeline.
type SecurityLogger struct {
	l *zap.Logger
}

func NewSecurityLogger(l *zap.Logger) *SecurityLogger {
	return &SecurityLogger{l: l.With(zap.String("log_type", "audit"))}
}

func (s *SecurityLogger) AuthnSuccess(subject string) {
	s.l.Info("authentication succeeded",
		zap.String("event", "authn_success"),
		zap.String("subject", subject),
	)
}

func (s *SecurityLogger) AuthnFailure(subject, reason string) {
	s.l.Warn("authentication failed",
		zap.String("event", "authn_failure"),
		zap.String("subject", subject),
		zap.String("reason", reason),
	)
}

func (s *SecurityLogger) AuthzFailure(subject, operation string) {
	s.l.Warn("authorization denied",
		zap.String("event", "authz_failure"),
		zap.String("subject", subject),
		zap.String("operation", operation),
	)
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Info("system startup", zap.String("event", "system_startup"))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Info("system shutdown", zap.String("event", "system_shutdown"))
}
