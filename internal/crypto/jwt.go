package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
)

const (
	tokenIssuer   = "bengaltrails"
	tokenAudience = "bengaltrails-web"
)

// SessionClaims carries the session id in the jti claim. There is no exp claim:
// the session store decides when a session ends.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SignSessionID wraps a session id in an HS256-signed token for use as a cookie value.
func SignSessionID(sessionID, secret string) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       sessionID,
			Issuer:   tokenIssuer,
			Audience: jwt.ClaimStrings{tokenAudience},
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken verifies a cookie value and returns the session id inside it.
func ParseSessionToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || !ValidSessionID(claims.ID) {
		return "", ErrInvalidToken
	}

	return claims.ID, nil
}
