// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package httpapi

import (
	"context"

	"github.com/accountd/accountd/internal/account"
)

type contextKey int

const (
	identityKey contextKey = iota
	requestIDKey
)

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, claims account.Claims) context.Context {
	return context.WithValue(ctx, identityKey, claims)
}

// IdentityFrom extracts the authenticated identity from the context.
func IdentityFrom(ctx context.Context) (account.Claims, bool) {
	claims, ok := ctx.Value(identityKey).(account.Claims)
	return claims, ok
}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom extracts the request id from the context.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
