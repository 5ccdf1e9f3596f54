// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import "testing"

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleCustomer, RoleAdmin, RoleSuperAdmin} {
		if !r.Valid() {
			t.Errorf("expected %q to be valid", r)
		}
	}
	for _, r := range []Role{"", "owner", "Customer", "ADMIN"} {
		if r.Valid() {
			t.Errorf("expected %q to be invalid", r)
		}
	}
}

func TestRole_AtLeast(t *testing.T) {
	testCases := []struct {
		role     Role
		required Role
		expected bool
	}{
		{RoleCustomer, RoleCustomer, true},
		{RoleCustomer, RoleAdmin, false},
		{RoleCustomer, RoleSuperAdmin, false},
		{RoleAdmin, RoleCustomer, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleSuperAdmin, false},
		{RoleSuperAdmin, RoleCustomer, true},
		{RoleSuperAdmin, RoleAdmin, true},
		{RoleSuperAdmin, RoleSuperAdmin, true},
		{Role("owner"), RoleCustomer, false},
	}

	for _, tc := range testCases {
		if got := tc.role.AtLeast(tc.required); got != tc.expected {
			t.Errorf("%q.AtLeast(%q): expected %v, got %v", tc.role, tc.required, tc.expected, got)
		}
	}
}
