package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	sessionCookieName = "session_id"
	sessionContextKey = "session_id"
)

// sessionMiddleware mints a random session identifier on first contact
// and carries it in an HMAC-signed cookie. A missing or tampered cookie
// gets a fresh identifier.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := s.sessionFromCookie(c)
		if !ok {
			id = uuid.NewString()
			c.SetCookie(&http.Cookie{
				Name:     sessionCookieName,
				Value:    s.signSession(id),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(sessionContextKey, id)
		return next(c)
	}
}

func (s *Server) sessionID(c echo.Context) string {
	if id, ok := c.Get(sessionContextKey).(string); ok {
		return id
	}
	return uuid.NewString()
}

func (s *Server) sessionFromCookie(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	id, sig, found := strings.Cut(cookie.Value, ".")
	if !found || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.signature(id))) {
		return "", false
	}
	return id, true
}

func (s *Server) signSession(id string) string {
	return id + "." + s.signature(id)
}

func (s *Server) signature(id string) string {
	mac := hmac.New(sha256.New, []byte(s.config.SessionSecret))
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}
