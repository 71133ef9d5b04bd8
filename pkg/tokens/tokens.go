package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidTTL   = errors.New("token ttl must be positive")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("token expired")
)

// Claims carry the owning user id plus the registered issued-at and
// expiry claims. Access and refresh tokens share this shape but are
// signed with distinct secrets.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Issue mints an HS256 token for userID expiring after ttl.
func Issue(userID string, secret []byte, ttl time.Duration) (string, error) {
	return issue(userID, "", secret, ttl)
}

// IssueRefresh is Issue with a random JTI so every refresh token is
// distinct even when minted within the same second.
func IssueRefresh(userID string, secret []byte, ttl time.Duration) (string, error) {
	return issue(userID, uuid.NewString(), secret, ttl)
}

func issue(userID, jti string, secret []byte, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Parse verifies the signature and expiry of tokenStr and returns its
// claims. The error is ErrExpired past the expiry claim and
// ErrInvalidToken for any structural or signature problem.
func Parse(tokenStr string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidToken
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
