// Package auth turns the managed backend's identity tokens into local users.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. The frontend signs the user in against the backend's auth service
//  2. The backend issues an HS256 access token signed with the project's JWT secret
//  3. The frontend sends it as "Authorization: Bearer <jwt>" (or the "token" cookie)
//  4. Middleware verifies the signature, resolves the subject to a local user row
//     (created on first sight) and stores the user in the request context
//
// We never issue production tokens ourselves. Generate exists so tests can mint
// tokens that look exactly like the backend's.
//
// TOKEN PAYLOAD (the claims we read):
//
//	{"sub":"<user uuid>","email":"ada@example.com","user_metadata":{"full_name":"Ada"},
//	 "aud":"authenticated","exp":1234567890,"iss":"https://<ref>.supabase.co/auth/v1"}
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a verified token tells us about its bearer.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// TokenService verifies (and, for tests, signs) identity tokens.
type TokenService struct {
	secret []byte
	// issuer, when set, must match the token's iss claim.
	issuer string
}

// NewTokenService creates a TokenService with the backend's JWT secret.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

type userMetadata struct {
	FullName string `json:"full_name,omitempty"`
	Name     string `json:"name,omitempty"`
}

// claims is the token payload: the registered claims plus the backend's
// profile fields.
type claims struct {
	jwt.RegisteredClaims
	Email        string       `json:"email,omitempty"`
	UserMetadata userMetadata `json:"user_metadata"`
}

// Generate signs a token for id that expires after d.
func (s *TokenService) Generate(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{"authenticated"},
		},
		Email:        id.Email,
		UserMetadata: userMetadata{FullName: id.Name},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token and returns the identity it carries.
//
// Checked: HS256 signature (any other algorithm is rejected, which also stops
// "alg":"none" tokens), expiry (required), issuer when configured, and a
// non-empty subject.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	name := c.UserMetadata.FullName
	if name == "" {
		name = c.UserMetadata.Name
	}
	return Identity{Subject: c.Subject, Email: c.Email, Name: name}, nil
}
