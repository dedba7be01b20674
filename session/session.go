// Package session keeps server-side login sessions. The browser only holds a signed cookie
// carrying the session id; everything else lives in the store.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found or expired")

// Session is the server-side record of a login.
type Session struct {
	ID        string    `json:"-"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions by id.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// New builds a session with a fresh random id.
func New(uid, email string, isAdmin bool, ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UID:       uid,
		Email:     email,
		IsAdmin:   isAdmin,
		ExpiresAt: time.Now().Add(ttl),
	}
}
