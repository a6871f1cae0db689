package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is what the identity provider asserts about a caller.
// Subject carries the user id.
type IdentityClaims struct {
	OrgID string `json:"org_id"`
	jwt.RegisteredClaims
}

// TokenValidator verifies HS256 identity tokens and, for local use, mints them.
type TokenValidator struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

func NewTokenValidator(secret, issuer string, expiry time.Duration) *TokenValidator {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &TokenValidator{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue signs a token for userID acting in orgID.
func (v *TokenValidator) Issue(orgID, userID string) (string, error) {
	if len(v.secret) == 0 {
		return "", errors.New("token secret is not configured")
	}
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
		OrgID: orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.expiry)),
		},
	})

	tokenString, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate checks signature, expiry and issuer and returns the claims.
func (v *TokenValidator) Validate(tokenString string) (*IdentityClaims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: token secret is not configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.OrgID) == "" {
		return nil, fmt.Errorf("%w: org_id claim is required", ErrInvalidToken)
	}

	return claims, nil
}
