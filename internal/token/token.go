// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package token signs and validates the two token classes: access tokens
// carrying identity plus authorization claims, and minimal refresh tokens
// carrying only the account id to limit replay blast radius.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

var (
	// ErrTokenInvalid is returned for malformed tokens and bad signatures.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrTokenExpired is returned for structurally valid tokens past their
	// expiry.
	ErrTokenExpired = errors.New("token has expired")
)

// accessClaims is the wire shape of an access token payload.
type accessClaims struct {
	Username    string   `json:"username"`
	AccountID   int64    `json:"userId"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// refreshClaims is the wire shape of a refresh token payload.
type refreshClaims struct {
	AccountID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256-signed tokens. Access and refresh
// tokens expire independently.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer creates an Issuer. Both TTLs must be positive and the secret
// non-empty.
func NewIssuer(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, oops.Errorf("signing secret is required")
	}
	if accessTTL <= 0 {
		return nil, oops.Errorf("access TTL must be positive, got %s", accessTTL)
	}
	if refreshTTL <= 0 {
		return nil, oops.Errorf("refresh TTL must be positive, got %s", refreshTTL)
	}
	return &Issuer{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssueAccess signs an access token embedding the given claims.
func (i *Issuer) IssueAccess(claims account.Claims) (string, error) {
	return i.sign(accessClaims{
		Username:         claims.Username,
		AccountID:        claims.AccountID,
		Roles:            claims.Roles,
		Permissions:      claims.Permissions,
		RegisteredClaims: i.registered(i.accessTTL),
	})
}

// IssueRefresh signs a refresh token carrying only the account id.
func (i *Issuer) IssueRefresh(accountID int64) (string, error) {
	return i.sign(refreshClaims{
		AccountID:        accountID,
		RegisteredClaims: i.registered(i.refreshTTL),
	})
}

// VerifyAccess validates an access token and returns the embedded claims.
// Fails with ErrTokenExpired past expiry, ErrTokenInvalid otherwise.
func (i *Issuer) VerifyAccess(tokenStr string) (account.Claims, error) {
	claims := &accessClaims{}
	if err := i.parse(tokenStr, claims); err != nil {
		return account.Claims{}, err
	}
	return account.Claims{
		AccountID:   claims.AccountID,
		Username:    claims.Username,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	}, nil
}

// VerifyRefresh validates a refresh token and returns the subject account
// id. Failure modes match VerifyAccess.
func (i *Issuer) VerifyRefresh(tokenStr string) (int64, error) {
	claims := &refreshClaims{}
	if err := i.parse(tokenStr, claims); err != nil {
		return 0, err
	}
	return claims.AccountID, nil
}

func (i *Issuer) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (i *Issuer) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

func (i *Issuer) parse(tokenStr string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !tok.Valid {
		return ErrTokenInvalid
	}
	return nil
}
