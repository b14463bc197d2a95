// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
)

type contextKey string

const (
	userIDKey  contextKey = "user_id"
	guestIDKey contextKey = "guest_id"
)

// SetUserID sets the authenticated user id in the context.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID retrieves the authenticated user id from the context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

// SetGuestID sets the pre-signup guest id in the context. Present only for
// accounts created from guest mode, while their migration may still run.
func SetGuestID(ctx context.Context, guestID string) context.Context {
	return context.WithValue(ctx, guestIDKey, guestID)
}

// GetGuestID retrieves the pre-signup guest id from the context.
func GetGuestID(ctx context.Context) (string, bool) {
	guestID, ok := ctx.Value(guestIDKey).(string)
	return guestID, ok
}
