// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikeserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pan-thu/m-hike-native-sub000/internal/auth"
)

// JWTAuth handles JWT authentication for the journal API.
type JWTAuth struct {
	secret []byte
}

// NewJWTAuth creates a new JWT authenticator.
func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{
		secret: []byte(secret),
	}
}

// JWTClaims carries the authenticated user id in the standard subject claim
// and, for freshly signed-up guests, the pre-signup guest id so the server
// can correlate a migration with the guest's local data set.
type JWTClaims struct {
	GuestID string `json:"gid,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken issues a token for an authenticated user. guestID may be
// empty for accounts that never ran in guest mode.
func (j *JWTAuth) GenerateToken(userID, guestID string, expiration time.Duration) (string, error) {
	claims := &JWTClaims{
		GuestID: guestID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "m-hike",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ValidateToken validates a token and returns its claims.
func (j *JWTAuth) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject claim")
	}
	return claims, nil
}

// Middleware rejects unauthenticated requests and stores the caller identity
// in the request context.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := j.authenticate(r)
		if err != nil {
			slog.Debug("Rejected unauthenticated request", "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"authentication_failed","message":"invalid or missing bearer token"}`))
			return
		}

		ctx := auth.SetUserID(r.Context(), claims.Subject)
		if claims.GuestID != "" {
			ctx = auth.SetGuestID(ctx, claims.GuestID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID implements the authenticator contract consumed by HTTPHandlers.
func (j *JWTAuth) GetUserID(r *http.Request) (string, error) {
	claims, err := j.authenticate(r)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (j *JWTAuth) authenticate(r *http.Request) (*JWTClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("missing authorization header")
	}
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, fmt.Errorf("authorization header is not a bearer token")
	}
	return j.ValidateToken(tokenString)
}
