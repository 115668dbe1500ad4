// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import "errors"

// Validation-failure sentinels. Callers match these with errors.Is instead
// of comparing message strings; each maps to a client-facing 4xx rejection
// at the HTTP boundary.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCaptchaExpired is returned when no challenge code exists for the
	// address, either because none was issued or because it expired.
	ErrCaptchaExpired = errors.New("captcha has expired")

	// ErrCaptchaMismatch is returned when the submitted code does not match
	// the issued one.
	ErrCaptchaMismatch = errors.New("captcha is incorrect")

	// ErrDuplicateUsername is returned when registering a username that
	// already exists, whether detected by the advisory pre-check or by the
	// store's uniqueness constraint.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrAccountNotFound is returned when no account matches the requested
	// username and realm. A realm mismatch yields this too, intentionally
	// indistinguishable from true absence.
	ErrAccountNotFound = errors.New("account does not exist")

	// ErrInvalidCredentials is returned when the password digest does not
	// match.
	ErrInvalidCredentials = errors.New("password is incorrect")

	// ErrRefreshTokenInvalid is returned for any refresh-token verification
	// failure. Expiry and tampering are deliberately collapsed into one
	// outcome so the cause is not revealed.
	ErrRefreshTokenInvalid = errors.New("refresh token is invalid, please log in again")
)
