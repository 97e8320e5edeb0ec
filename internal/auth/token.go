package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
)

const (
	msgTokenExpired = "Token expired. Please login again."
	msgTokenInvalid = "Invalid token."
)

// Claims is the session token payload.
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer signing with secret; tokens live for ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID int64) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns the user id it carries.
// Every failure is an apperr Unauthenticated error.
func (i *Issuer) Verify(raw string) (int64, error) {
	if raw == "" {
		return 0, apperr.Unauthenticated("No token provided.")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: msgTokenExpired, Err: err}
		}
		return 0, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: msgTokenInvalid, Err: err}
	}
	if !token.Valid || claims.UserID <= 0 {
		return 0, apperr.Unauthenticated(msgTokenInvalid)
	}
	return claims.UserID, nil
}
