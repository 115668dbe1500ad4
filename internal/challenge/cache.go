// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package challenge issues and verifies short-lived one-time codes used
// to prove control of an email address before sensitive mutations.
package challenge

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// Purpose scopes a challenge to the operation it gates. Keys for
// different purposes never collide.
type Purpose string

const (
	// PurposeRegistration gates account registration.
	PurposeRegistration Purpose = "registration"

	// PurposePasswordReset gates password changes.
	PurposePasswordReset Purpose = "password-reset"
)

// TTL returns the challenge lifetime for the purpose.
func (p Purpose) TTL() time.Duration {
	if p == PurposePasswordReset {
		return 10 * time.Minute
	}
	return 5 * time.Minute
}

// keyPrefix namespaces challenge entries in the shared redis database.
const keyPrefix = "captcha"

// codeDigits is the length of the numeric code.
const codeDigits = 6

var (
	// ErrCodeExpired is returned when no code exists for the key, either
	// because none was issued or because it expired.
	ErrCodeExpired = errors.New("challenge code expired")

	// ErrCodeMismatch is returned when the submitted code differs from the
	// stored one.
	ErrCodeMismatch = errors.New("challenge code mismatch")
)

// Cache stores challenge codes in redis with per-purpose TTLs. Re-issuing
// overwrites the previous code; entries are never deleted on successful
// verification and simply lapse at TTL. Verify racing a concurrent
// re-issue for the same key may see either code; challenge codes are
// advisory, not single-use security tokens.
type Cache struct {
	rdb *redis.Client
}

// NewCache creates a Cache backed by the given redis client.
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Issue generates a fresh 6-digit code, stores it under the purpose-scoped
// key with the purpose's TTL, and returns it for delivery.
func (c *Cache) Issue(ctx context.Context, purpose Purpose, identifier string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", oops.Code("CHALLENGE_GENERATE_FAILED").Wrap(err)
	}

	if err := c.rdb.Set(ctx, key(purpose, identifier), code, purpose.TTL()).Err(); err != nil {
		return "", oops.Code("CHALLENGE_STORE_FAILED").With("purpose", string(purpose)).Wrap(err)
	}

	return code, nil
}

// Verify compares the submitted code against the stored one. The stored
// entry is left in place on success; it remains valid until its TTL
// lapses.
func (c *Cache) Verify(ctx context.Context, purpose Purpose, identifier, submitted string) error {
	stored, err := c.rdb.Get(ctx, key(purpose, identifier)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeExpired
	}
	if err != nil {
		return oops.Code("CHALLENGE_READ_FAILED").With("purpose", string(purpose)).Wrap(err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
		return ErrCodeMismatch
	}
	return nil
}

func key(purpose Purpose, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, purpose, identifier)
}

// generateCode returns a uniformly random 6-digit code with leading
// zeros preserved.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
