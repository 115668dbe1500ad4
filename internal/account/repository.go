// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import "context"

// Repository manages account persistence. Implementations return
// ErrNotFound (possibly wrapped) when a lookup matches nothing, and
// ErrDuplicateUsername when an insert violates the username uniqueness
// constraint.
type Repository interface {
	// Create stores a new account. The account's role links are not
	// persisted by Create; registration produces accounts without roles.
	Create(ctx context.Context, acct *Account) error

	// GetByUsername retrieves an account by username across both realms,
	// without its role graph. Used as the advisory duplicate pre-check.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// GetByLogin retrieves the account matching both username and realm,
	// with roles and role permissions eager-loaded.
	GetByLogin(ctx context.Context, username string, isAdmin bool) (*Account, error)

	// GetByID retrieves the account matching both id and realm, with roles
	// and role permissions eager-loaded.
	GetByID(ctx context.Context, id int64, isAdmin bool) (*Account, error)

	// GetDetail retrieves an account by id without its role graph,
	// regardless of realm.
	GetDetail(ctx context.Context, id int64) (*Account, error)

	// UpdatePassword replaces the stored digest for an account.
	UpdatePassword(ctx context.Context, id int64, digest string) error

	// SetFrozen marks an account frozen.
	SetFrozen(ctx context.Context, id int64) error

	// List returns a page of accounts (without role graphs) and the total
	// account count.
	List(ctx context.Context, offset, limit int) ([]Account, int64, error)
}

// Seeder inserts the bootstrap dataset. Implementations insert
// unconditionally; seeding is a one-time operation, never invoked in
// steady-state serving.
type Seeder interface {
	SeedInitialData(ctx context.Context, seed SeedData) error
}
