// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"
)

func TestDebugLogger(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("DEBUG")
	}()
}

func TestInvalidLevel(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("invalid")
	}()
}

func TestSecurityLoggerDoesNotPanic(t *testing.T) {
	l := NewNoopLogger()

	l.Security().AuthnSuccess("usr_123")
	l.Security().AuthnFailure("usr_123", "invalid token")
	l.Security().AuthzFailure("usr_123", "users_admin_access")
	l.Security().SystemStartup()
	l.Security().SystemShutdown()
}
