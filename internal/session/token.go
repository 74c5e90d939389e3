package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired 解析 JWT 的 exp（不验签）；非 JWT 或无 exp 视为未过期。
// tokenExpired reads the exp claim without verifying the signature; opaque tokens never expire locally.
func tokenExpired(token string, now time.Time) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// TokenExpiry 返回 JWT 的过期时间，无法解析时 ok 为 false
// TokenExpiry returns the JWT exp claim when present
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
