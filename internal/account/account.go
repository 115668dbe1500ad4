// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package account provides the account domain: credential verification,
// role/permission resolution, and the session service orchestrating
// registration, login, and token renewal.
package account

import (
	"regexp"
	"time"

	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 1
	MaxUsernameLength = 50
)

// usernameRegex matches usernames that start with a letter and contain
// only letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Account is a stored user account. IsAdmin partitions the account
// namespace into two disjoint login realms and is immutable after
// creation. Password holds the one-way digest, never the plaintext.
type Account struct {
	ID          int64
	Username    string
	Password    string
	NickName    string
	Email       string
	HeadPic     string
	PhoneNumber string
	IsFrozen    bool
	IsAdmin     bool
	CreateTime  time.Time
	UpdateTime  time.Time
	Roles       []Role
}

// Role names a group of granted permissions.
type Role struct {
	ID          int64
	Name        string
	Permissions []Permission
}

// Permission is a single capability grant.
type Permission struct {
	ID          int64
	Code        string
	Description string
}

// Claims is the identity and authorization payload embedded in an access
// token: role names plus the de-duplicated union of their permission codes.
type Claims struct {
	AccountID   int64
	Username    string
	Roles       []string
	Permissions []string
}

// ResolveClaims derives the token claims for an account from its loaded
// role graph. Permission codes are folded in first-seen order, skipping
// codes already present (exact string equality). Pure over the account
// value; no I/O.
func ResolveClaims(acct *Account) Claims {
	claims := Claims{
		AccountID: acct.ID,
		Username:  acct.Username,
	}

	seen := make(map[string]struct{})
	for _, role := range acct.Roles {
		claims.Roles = append(claims.Roles, role.Name)
		for _, perm := range role.Permissions {
			if _, ok := seen[perm.Code]; ok {
				continue
			}
			seen[perm.Code] = struct{}{}
			claims.Permissions = append(claims.Permissions, perm.Code)
		}
	}

	return claims
}

// ValidateUsername validates a username against the account rules.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("ACCOUNT_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}
