package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/HSouheill/taskreward_backend/models"
	"github.com/HSouheill/taskreward_backend/session"
)

// IdentityService turns verified identity tokens into sessions and guards them afterwards.
type IdentityService struct {
	users    UserStore
	ledger   LedgerStore
	verifier TokenVerifier
	sessions session.Store
	ttl      time.Duration
	rules    Rules
}

func NewIdentityService(users UserStore, ledger LedgerStore, verifier TokenVerifier, sessions session.Store, ttl time.Duration, rules Rules) *IdentityService {
	return &IdentityService{
		users:    users,
		ledger:   ledger,
		verifier: verifier,
		sessions: sessions,
		ttl:      ttl,
		rules:    rules,
	}
}

// SessionLogin verifies the token, creates the user on first sight and opens a session.
func (s *IdentityService) SessionLogin(ctx context.Context, req models.LoginRequest) (*session.Session, *models.User, error) {
	identity, err := s.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, nil, &models.AuthError{Err: err}
	}
	if identity.UID == "" || identity.Email == "" {
		return nil, nil, &models.AuthError{Err: errors.New("token carries no email")}
	}

	user, err := s.users.GetUser(ctx, identity.UID)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		user, err = s.register(ctx, identity, req)
		if err != nil {
			return nil, nil, err
		}
	case err != nil:
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	if user.IsBanned {
		return nil, nil, models.ErrBanned
	}

	sess := session.New(user.ID, user.Email, user.IsAdmin(), s.ttl)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("save session: %w", err)
	}
	return sess, user, nil
}

func (s *IdentityService) register(ctx context.Context, identity *Identity, req models.LoginRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = models.DefaultName(identity.Email)
	}

	user := &models.User{
		ID:     identity.UID,
		Email:  identity.Email,
		Name:   name,
		FBLink: strings.TrimSpace(req.FBLink),
		Role:   models.RoleUser,
	}

	var grant *models.ReferralGrant
	if ref := strings.TrimSpace(req.RefCode); ref != "" && ref != identity.UID {
		grant = &models.ReferralGrant{
			ReferrerID:    ref,
			SignupBonus:   s.rules.SignupBonus,
			ReferralBonus: s.rules.ReferralBonus,
		}
	}

	granted, err := s.ledger.CreateUser(ctx, user, grant)
	if errors.Is(err, models.ErrUserExists) {
		// Lost a race with a concurrent first login.
		return s.users.GetUser(ctx, identity.UID)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if grant != nil && !granted {
		log.Printf("Referral code %q did not match a user, %s registered without bonus", grant.ReferrerID, user.ID)
	}
	return user, nil
}

// Authenticate resolves a session id and re-checks the ban flag. A banned or deleted user
// loses the session. When the user store itself fails the session is trusted.
func (s *IdentityService) Authenticate(ctx context.Context, sid string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, sess.UID)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		s.drop(ctx, sid)
		return nil, models.ErrUserNotFound
	case err != nil:
		log.Printf("Ban check failed for %s, allowing request: %v", sess.UID, err)
		return sess, nil
	case user.IsBanned:
		s.drop(ctx, sid)
		return nil, models.ErrBanned
	}
	return sess, nil
}

// Session loads a session without touching the user store.
func (s *IdentityService) Session(ctx context.Context, sid string) (*session.Session, error) {
	return s.sessions.Get(ctx, sid)
}

func (s *IdentityService) Logout(ctx context.Context, sid string) error {
	return s.sessions.Delete(ctx, sid)
}

func (s *IdentityService) drop(ctx context.Context, sid string) {
	if err := s.sessions.Delete(ctx, sid); err != nil {
		log.Printf("Failed to delete session: %v", err)
	}
}
