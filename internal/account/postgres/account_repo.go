// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package postgres implements the account repositories over PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

// poolIface is the subset of pgxpool.Pool the repositories use. Satisfied
// by pgxmock.PgxPoolIface in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const accountColumns = `id, username, password, nick_name, email, head_pic,
	       phone_number, is_frozen, is_admin, create_time, update_time`

// AccountRepository implements account.Repository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account and fills in its assigned id. A username
// uniqueness violation surfaces as account.ErrDuplicateUsername.
func (r *AccountRepository) Create(ctx context.Context, acct *account.Account) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (
			username, password, nick_name, email, head_pic,
			phone_number, is_frozen, is_admin, create_time, update_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		acct.Username,
		acct.Password,
		acct.NickName,
		acct.Email,
		acct.HeadPic,
		acct.PhoneNumber,
		acct.IsFrozen,
		acct.IsAdmin,
		acct.CreateTime,
		acct.UpdateTime,
	).Scan(&acct.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_DUPLICATE_USERNAME").
				With("username", acct.Username).
				Wrap(account.ErrDuplicateUsername)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", acct.Username).
			Wrap(err)
	}
	return nil
}

// GetByUsername retrieves an account by username across both realms,
// without its role graph.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = $1
	`, username)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_USERNAME_FAILED").
			With("operation", "get account by username").
			With("username", username).
			Wrap(err)
	}
	return acct, nil
}

// GetByLogin retrieves the account matching both username and realm, with
// its role graph eager-loaded. An account in the other realm is reported
// as not found.
func (r *AccountRepository) GetByLogin(ctx context.Context, username string, isAdmin bool) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = $1 AND is_admin = $2
	`, username, isAdmin)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			With("is_admin", isAdmin).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_LOGIN_FAILED").
			With("operation", "get account by login").
			With("username", username).
			Wrap(err)
	}

	if err := r.loadRoles(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// GetByID retrieves the account matching both id and realm, with its role
// graph eager-loaded.
func (r *AccountRepository) GetByID(ctx context.Context, id int64, isAdmin bool) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND is_admin = $2
	`, id, isAdmin)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			With("is_admin", isAdmin).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id).
			Wrap(err)
	}

	if err := r.loadRoles(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// GetDetail retrieves an account by id regardless of realm, without its
// role graph.
func (r *AccountRepository) GetDetail(ctx context.Context, id int64) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_DETAIL_FAILED").
			With("operation", "get account detail").
			With("id", id).
			Wrap(err)
	}
	return acct, nil
}

// UpdatePassword replaces the stored digest for an account.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id int64, digest string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET password = $2, update_time = $3
		WHERE id = $1
	`, id, digest, time.Now())
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// SetFrozen marks an account frozen.
func (r *AccountRepository) SetFrozen(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET is_frozen = TRUE, update_time = $2
		WHERE id = $1
	`, id, time.Now())
	if err != nil {
		return oops.Code("ACCOUNT_FREEZE_FAILED").
			With("operation", "set frozen").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// List returns one page of accounts ordered by id, plus the total count.
func (r *AccountRepository) List(ctx context.Context, offset, limit int) ([]account.Account, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, oops.Code("ACCOUNT_LIST_FAILED").
			With("operation", "count accounts").
			Wrap(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, oops.Code("ACCOUNT_LIST_FAILED").
			With("operation", "list accounts").
			Wrap(err)
	}
	defer rows.Close()

	var accounts []account.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, 0, oops.Code("ACCOUNT_LIST_FAILED").
				With("operation", "scan account row").
				Wrap(err)
		}
		accounts = append(accounts, *acct)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("ACCOUNT_LIST_FAILED").
			With("operation", "iterate accounts").
			Wrap(err)
	}

	return accounts, total, nil
}

// loadRoles attaches the account's roles with each role's permissions.
// Roles without permissions are kept; the left joins make their
// permission columns null.
func (r *AccountRepository) loadRoles(ctx context.Context, acct *account.Account) error {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, p.id, p.code, p.description
		FROM account_roles ar
		JOIN roles r ON r.id = ar.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE ar.account_id = $1
		ORDER BY r.id, p.id
	`, acct.ID)
	if err != nil {
		return oops.Code("ACCOUNT_LOAD_ROLES_FAILED").
			With("operation", "load roles").
			With("id", acct.ID).
			Wrap(err)
	}
	defer rows.Close()

	var current *account.Role
	for rows.Next() {
		var (
			roleID   int64
			roleName string
			permID   *int64
			permCode *string
			permDesc *string
		)
		if err := rows.Scan(&roleID, &roleName, &permID, &permCode, &permDesc); err != nil {
			return oops.Code("ACCOUNT_LOAD_ROLES_FAILED").
				With("operation", "scan role row").
				With("id", acct.ID).
				Wrap(err)
		}

		if current == nil || current.ID != roleID {
			acct.Roles = append(acct.Roles, account.Role{ID: roleID, Name: roleName})
			current = &acct.Roles[len(acct.Roles)-1]
		}
		if permID != nil {
			current.Permissions = append(current.Permissions, account.Permission{
				ID:          *permID,
				Code:        *permCode,
				Description: *permDesc,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return oops.Code("ACCOUNT_LOAD_ROLES_FAILED").
			With("operation", "iterate role rows").
			With("id", acct.ID).
			Wrap(err)
	}
	return nil
}

// scanAccount scans a single account row.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*account.Account, error) {
	var acct account.Account
	err := row.Scan(
		&acct.ID,
		&acct.Username,
		&acct.Password,
		&acct.NickName,
		&acct.Email,
		&acct.HeadPic,
		&acct.PhoneNumber,
		&acct.IsFrozen,
		&acct.IsAdmin,
		&acct.CreateTime,
		&acct.UpdateTime,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}
	return &acct, nil
}

// Compile-time interface check.
var _ account.Repository = (*AccountRepository)(nil)
