package kling

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenLifetime = 30 * time.Minute
	tokenSkew     = 5 * time.Second
)

// SignToken builds the HS256 bearer token the provider expects: issuer is the
// access key, valid for 30 minutes, backdated 5 seconds for clock skew.
func SignToken(accessKey, secretKey string, now time.Time) (string, error) {
	if accessKey == "" || secretKey == "" {
		return "", errors.New("kling token: access key and secret key required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    accessKey,
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		NotBefore: jwt.NewNumericDate(now.Add(-tokenSkew)),
	})
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("kling token: %w", err)
	}
	return signed, nil
}
