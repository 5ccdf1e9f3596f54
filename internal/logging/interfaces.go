// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Security() SecurityLoggerInterface
}

// SecurityLoggerInterface emits structured audit events for the security log.
type SecurityLoggerInterface interface {
	AuthnSuccess(subject string)
	AuthnFailure(subject, reason string)
	AuthzFailure(subject, operation string)
	SystemStartup()
	SystemShutdown()
}
