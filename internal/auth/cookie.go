package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"tafaseel/internal/config"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	CookieName = "auth_token"
	cookieAge  = 14 * 24 * time.Hour
)

var ErrNoToken = errors.New("no auth token")

// CookieManager signs and encrypts the account's public token into the
// auth cookie.
type CookieManager struct {
	sc       *securecookie.SecureCookie
	isSecure bool
}

func NewCookieManager(sessionCfg *config.Session, log *slog.Logger) *CookieManager {
	hashKey := keyOrRandom(sessionCfg.HashKey, 32, "SESSION_HASH_KEY", log)
	blockKey := keyOrRandom(sessionCfg.BlockKey, 32, "SESSION_BLOCK_KEY", log)

	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(cookieAge.Seconds()))

	return &CookieManager{
		sc:       sc,
		isSecure: sessionCfg.Secure,
	}
}

// keyOrRandom decodes a hex key, falling back to a random one. Cookies
// signed with a random key do not survive a restart.
func keyOrRandom(keyHex string, length int, name string, log *slog.Logger) []byte {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err == nil && len(key) >= length {
			return key[:length]
		}
		log.Warn("invalid session key, generating a random one", "key", name)
	} else {
		log.Warn("session key not set, generating a random one", "key", name)
	}

	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return key
}

func (m *CookieManager) SetToken(w http.ResponseWriter, publicToken string) error {
	encoded, err := m.sc.Encode(CookieName, publicToken)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(cookieAge.Seconds()),
		Secure:   m.isSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Token reads the public token from the auth cookie, or from an
// "Authorization: Token <public token>" header.
func (m *CookieManager) Token(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Token") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", ErrNoToken
	}

	var token string
	if err := m.sc.Decode(CookieName, cookie.Value, &token); err != nil {
		return "", err
	}
	return token, nil
}

func (m *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   m.isSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
