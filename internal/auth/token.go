// Copyright (c) 2025-2026 ParentFacile
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role the API mints or accepts.
const RoleAdmin = "admin"

// ErrInvalidToken is returned for any verification failure: bad signature,
// expiry, malformed claims or a role other than admin. Callers treat all of
// them as a single unauthorized outcome.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the verified subject of a session token.
type Identity struct {
	Subject string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// TokenService mints and verifies the signed, self-contained admin session
// token. Tokens are not revocable: logout clears the cookie transport only,
// and an issued token stays valid until its natural expiry.
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService creates a token service signing with the given secret.
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), expiry: expiry}
}

// Expiry returns the configured token lifetime.
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}

// Mint signs a session token for the admin account.
func (s *TokenService) Mint(email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   "admin",
		"email": email,
		"role":  RoleAdmin,
		"iat":   now.Unix(),
		"exp":   now.Add(s.expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and the admin role claim. Every failure
// collapses into ErrInvalidToken so responses cannot leak which check failed.
func (s *TokenService) Verify(raw string) (*Identity, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	if role != RoleAdmin {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	return &Identity{Subject: sub, Email: email, Role: role}, nil
}
