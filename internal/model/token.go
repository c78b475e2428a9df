package model

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

const (
	publicTokenLength = 64
	tokenAlphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLifetime     = 14 * 24 * time.Hour
)

// GenerateToken returns a random [A-Za-z0-9] string of the given length.
func GenerateToken(length int) string {
	max := big.NewInt(int64(len(tokenAlphabet)))
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		sb.WriteByte(tokenAlphabet[n.Int64()])
	}
	return sb.String()
}

// NextTwoWeeks is the unix time two weeks from now. Salla's expires_in is
// not reliable, so every stored token is assumed to live this long.
func NextTwoWeeks(now time.Time) int64 {
	return now.Add(tokenLifetime).Unix()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
