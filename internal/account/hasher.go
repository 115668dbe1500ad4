// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"crypto/md5" //nolint:gosec // compatibility with existing stored digests
	"crypto/subtle"
	"encoding/hex"
)

// PasswordHasher produces and compares one-way password digests.
type PasswordHasher interface {
	// Hash produces the digest of a plaintext password.
	Hash(password string) string

	// Compare reports whether the plaintext hashes to the stored digest.
	Compare(password, digest string) bool
}

// MD5Hasher implements PasswordHasher with an unsalted hex MD5 digest.
// This matches the digests already stored for existing accounts and cannot
// change without a migration path for them. MD5 is far too fast for
// password storage; new deployments without legacy digests should front
// this interface with a slow salted hash.
type MD5Hasher struct{}

// NewMD5Hasher creates an MD5Hasher.
func NewMD5Hasher() *MD5Hasher {
	return &MD5Hasher{}
}

// Hash returns the lowercase hex MD5 digest of password.
func (h *MD5Hasher) Hash(password string) string {
	sum := md5.Sum([]byte(password)) //nolint:gosec // see type comment
	return hex.EncodeToString(sum[:])
}

// Compare hashes the candidate and compares it to the stored digest in
// constant time.
func (h *MD5Hasher) Compare(password, digest string) bool {
	computed := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}

// Compile-time interface check.
var _ PasswordHasher = (*MD5Hasher)(nil)
