package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
)

const CookieName = "session"

var ErrInvalidCookie = errors.New("invalid session cookie")

// CookieCodec signs session ids into HS256 tokens so a client cannot forge or alter one.
type CookieCodec struct {
	key    []byte
	secure bool
}

func NewCookieCodec(signingKey []byte, secure bool) *CookieCodec {
	return &CookieCodec{key: signingKey, secure: secure}
}

func (c *CookieCodec) Encode(sess *Session) (string, error) {
	claims := jwt.StandardClaims{
		Id:        sess.ID,
		ExpiresAt: sess.ExpiresAt.Unix(),
		IssuedAt:  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and returns the session id it carries.
func (c *CookieCodec) Decode(value string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.key, nil
	})
	if err != nil || !token.Valid || claims.Id == "" {
		return "", ErrInvalidCookie
	}
	return claims.Id, nil
}

// Cookie builds the cookie that carries sess.
func (c *CookieCodec) Cookie(sess *Session) (*http.Cookie, error) {
	value, err := c.Encode(sess)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Expired returns a cookie that clears the session cookie.
func (c *CookieCodec) Expired() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
