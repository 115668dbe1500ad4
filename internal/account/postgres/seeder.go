// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package postgres

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

// Seeder implements account.Seeder using PostgreSQL. The whole dataset is
// inserted in one transaction so a partial bootstrap never persists.
type Seeder struct {
	pool poolIface
}

// NewSeeder creates a new Seeder.
func NewSeeder(pool poolIface) *Seeder {
	return &Seeder{pool: pool}
}

// SeedInitialData inserts the bootstrap dataset: permissions first, then
// roles with their permission links, then accounts with their role links.
// Inserts unconditionally; running it twice duplicates the data.
func (s *Seeder) SeedInitialData(ctx context.Context, seed account.SeedData) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return oops.Code("SEED_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	permIDs := make(map[string]int64, len(seed.Permissions))
	for _, perm := range seed.Permissions {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO permissions (code, description)
			VALUES ($1, $2)
			RETURNING id
		`, perm.Code, perm.Description).Scan(&id)
		if err != nil {
			return oops.Code("SEED_FAILED").
				With("operation", "insert permission").
				With("code", perm.Code).
				Wrap(err)
		}
		permIDs[perm.Code] = id
	}

	roleIDs := make(map[string]int64, len(seed.Roles))
	for _, role := range seed.Roles {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO roles (name)
			VALUES ($1)
			RETURNING id
		`, role.Name).Scan(&id)
		if err != nil {
			return oops.Code("SEED_FAILED").
				With("operation", "insert role").
				With("name", role.Name).
				Wrap(err)
		}
		roleIDs[role.Name] = id

		for _, code := range role.PermissionCodes {
			permID, ok := permIDs[code]
			if !ok {
				return oops.Code("SEED_FAILED").
					With("role", role.Name).
					Errorf("role references unknown permission %q", code)
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id)
				VALUES ($1, $2)
			`, id, permID)
			if err != nil {
				return oops.Code("SEED_FAILED").
					With("operation", "link role permission").
					With("role", role.Name).
					With("permission", code).
					Wrap(err)
			}
		}
	}

	now := time.Now()
	for _, acct := range seed.Accounts {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO accounts (
				username, password, nick_name, email, head_pic,
				phone_number, is_frozen, is_admin, create_time, update_time
			) VALUES ($1, $2, $3, $4, '', $5, FALSE, $6, $7, $7)
			RETURNING id
		`,
			acct.Username,
			acct.PasswordDigest,
			acct.NickName,
			acct.Email,
			acct.PhoneNumber,
			acct.IsAdmin,
			now,
		).Scan(&id)
		if err != nil {
			return oops.Code("SEED_FAILED").
				With("operation", "insert account").
				With("username", acct.Username).
				Wrap(err)
		}

		for _, name := range acct.RoleNames {
			roleID, ok := roleIDs[name]
			if !ok {
				return oops.Code("SEED_FAILED").
					With("username", acct.Username).
					Errorf("account references unknown role %q", name)
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO account_roles (account_id, role_id)
				VALUES ($1, $2)
			`, id, roleID)
			if err != nil {
				return oops.Code("SEED_FAILED").
					With("operation", "link account role").
					With("username", acct.Username).
					With("role", name).
					Wrap(err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("SEED_FAILED").
			With("operation", "commit transaction").
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ account.Seeder = (*Seeder)(nil)
