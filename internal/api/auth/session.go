// Package auth gates the admin surface behind a single bcrypt password and
// a signed session cookie.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	sessionCookieName = "nailbook_admin"
	defaultSessionTTL = 12 * time.Hour
	generatedKeyBytes = 32
)

var ErrInvalidPassword = errors.New("auth: invalid password")

type Config struct {
	PasswordHash string
	// HashKey signs the cookie. A random key is generated when empty, which
	// invalidates sessions on restart.
	HashKey []byte
	// BlockKey encrypts the cookie when set.
	BlockKey []byte
	TTL      time.Duration
	Secure   bool
	Now      func() time.Time
}

type adminSession struct {
	Admin    bool
	IssuedAt int64
}

type Sessions struct {
	sc           *securecookie.SecureCookie
	passwordHash string
	ttl          time.Duration
	secure       bool
	now          func() time.Time
}

func NewSessions(cfg Config) *Sessions {
	hashKey := cfg.HashKey
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(generatedKeyBytes)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	sc := securecookie.New(hashKey, cfg.BlockKey)
	sc.MaxAge(int(ttl.Seconds()))
	return &Sessions{
		sc:           sc,
		passwordHash: cfg.PasswordHash,
		ttl:          ttl,
		secure:       cfg.Secure,
		now:          now,
	}
}

// Enabled reports whether a password hash is configured. Without one every
// login attempt fails.
func (s *Sessions) Enabled() bool {
	return s.passwordHash != ""
}

// Login checks password and, on success, sets the session cookie.
func (s *Sessions) Login(w http.ResponseWriter, password string) error {
	if !VerifyPassword(s.passwordHash, password) {
		return ErrInvalidPassword
	}
	encoded, err := s.sc.Encode(sessionCookieName, adminSession{Admin: true, IssuedAt: s.now().Unix()})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(s.ttl),
		MaxAge:   int(s.ttl.Seconds()),
	})
	return nil
}

func (s *Sessions) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// Authenticated reports whether r carries a valid, unexpired admin cookie.
func (s *Sessions) Authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return false
	}
	var session adminSession
	if err := s.sc.Decode(sessionCookieName, cookie.Value, &session); err != nil {
		return false
	}
	if !session.Admin {
		return false
	}
	issued := time.Unix(session.IssuedAt, 0)
	return s.now().Sub(issued) < s.ttl
}
