package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can learn from a bearer token without the signing key
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// InspectToken reads the claims of a JWT bearer token without verifying its signature.
// Only the backend can verify the token; the client uses the claims to skip round-trips
// for tokens that have obviously expired. Opaque (non-JWT) tokens return an error.
func InspectToken(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("token is not a JWT: %w", err)
	}

	var info TokenInfo
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp != nil {
		info.ExpiresAt = exp.Time
	}

	// "sub" is standard; "uid" is what the pizza backends historically used
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		info.Subject = sub
	} else if uid, ok := claims["uid"]; ok {
		info.Subject = fmt.Sprint(uid)
	}
	return info, nil
}

// Expired reports whether the token carries an exp claim that lies before now.
// Tokens without a readable expiry are never considered expired here.
func Expired(token string, now time.Time) bool {
	info, err := InspectToken(token)
	if err != nil || info.ExpiresAt.IsZero() {
		return false
	}
	return info.ExpiresAt.Before(now)
}
