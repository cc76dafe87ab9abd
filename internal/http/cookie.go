package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultCookieName names the session cookie when none is configured.
const DefaultCookieName = "cloudnotes_session"

var errInvalidCookie = errors.New("invalid session cookie")

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionCookie signs server-side session IDs into an HS256 token carried in an HttpOnly cookie.
// The token only proves the ID was issued here; the session store decides whether it is live.
type SessionCookie struct {
	Name   string
	Secure bool
	secret []byte
}

func NewSessionCookie(name, secret string, secure bool) *SessionCookie {
	if name == "" {
		name = DefaultCookieName
	}
	return &SessionCookie{
		Name:   name,
		Secure: secure,
		secret: []byte(secret),
	}
}

func (sc *SessionCookie) Encode(sessionID string, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sc.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return token, nil
}

// Decode returns the session ID of a token this server signed and that has not expired.
func (sc *SessionCookie) Decode(value string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return sc.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.SessionID == "" {
		return "", errInvalidCookie
	}
	return claims.SessionID, nil
}

// Read returns the session ID carried by the request, or "" when there is none or it is invalid.
func (sc *SessionCookie) Read(c *gin.Context) string {
	value, err := c.Cookie(sc.Name)
	if err != nil || value == "" {
		return ""
	}
	sid, err := sc.Decode(value)
	if err != nil {
		return ""
	}
	return sid
}

func (sc *SessionCookie) Present(c *gin.Context) bool {
	value, err := c.Cookie(sc.Name)
	return err == nil && value != ""
}

func (sc *SessionCookie) Write(c *gin.Context, sessionID string, expiresAt time.Time) error {
	value, err := sc.Encode(sessionID, expiresAt)
	if err != nil {
		return err
	}
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, value, maxAge, "/", "", sc.Secure, true)
	return nil
}

func (sc *SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}
