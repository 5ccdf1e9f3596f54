// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

// Role is the closed set of authorization tiers. There are no others.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRank = map[Role]int{
	RoleCustomer:   0,
	RoleAdmin:      1,
	RoleSuperAdmin: 2,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants at least the privileges of required.
func (r Role) AtLeast(required Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		return false
	}
	return rank >= roleRank[required]
}

type User struct {
	ID         string    `db:"id"`
	ExternalID string    `db:"external_id"`
	Email      string    `db:"email"`
	FirstName  *string   `db:"first_name"`
	LastName   *string   `db:"last_name"`
	AvatarURL  *string   `db:"avatar_url"`
	Role       Role      `db:"role"`
	CreatedBy  *string   `db:"created_by"`
	UpdatedAt  time.Time `db:"updated_at"`
}
