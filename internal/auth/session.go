package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boutique/internal/cache"
	"boutique/internal/log"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrRoleMismatch = errors.New("account does not hold the requested role")
)

// User is the signed-in principal.
type User struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Session is what SignIn hands back to the transport.
type Session struct {
	Token     string    `json:"-"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 session tokens.
type Service struct {
	accounts *Accounts
	secret   []byte
	ttl      time.Duration
	revoked  *cache.LRUCache[struct{}]
	now      func() time.Time
	logger   *log.Logger
}

func NewService(accounts *Accounts, secret string, ttl time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	// The revocation list is unbounded: an entry may only leave once its
	// token has expired.
	return &Service{
		accounts: accounts,
		secret:   []byte(secret),
		ttl:      ttl,
		revoked:  cache.NewLRUCache[struct{}](0, ttl),
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentAuth),
	}
}

// Revoked exposes the revocation list so a cache.Manager can sweep it.
func (s *Service) Revoked() cache.Cleaner {
	return s.revoked
}

// SignIn checks the password and that the account holds the requested role.
func (s *Service) SignIn(ctx context.Context, role Role, email, password string) (Session, error) {
	acc, ok := s.accounts.Lookup(role, email)
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if err := checkPassword(acc.PasswordHash, password); err != nil {
		return Session{}, err
	}
	if acc.Role != role {
		return Session{}, ErrRoleMismatch
	}

	sess, err := s.issue(acc)
	if err != nil {
		return Session{}, err
	}
	s.logger.InfoContext(ctx, "User signed in",
		log.FieldUserID, acc.Email,
		log.FieldRole, string(acc.Role),
		log.FieldOperation, log.OpSignIn)
	return sess, nil
}

// issue mints a session token for an already authenticated account.
func (s *Service) issue(acc Account) (Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: acc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.Email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return Session{Token: signed, User: User{ID: acc.Email, Role: acc.Role}, ExpiresAt: exp}, nil
}

func (s *Service) parse(token string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := ParseRole(string(c.Role)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &c, nil
}

// CurrentUser resolves a token to its user. Expired, tampered and revoked
// tokens are rejected.
func (s *Service) CurrentUser(token string) (User, error) {
	c, err := s.parse(token)
	if err != nil {
		return User{}, err
	}
	if _, revoked := s.revoked.Get(c.ID); revoked {
		return User{}, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	return User{ID: c.Subject, Role: c.Role}, nil
}

// SignOut revokes the token until it would have expired anyway.
func (s *Service) SignOut(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return err
	}
	s.revoked.SetUntil(c.ID, struct{}{}, c.ExpiresAt.Time)
	s.logger.InfoContext(ctx, "User signed out",
		log.FieldUserID, c.Subject,
		log.FieldOperation, log.OpSignOut)
	return nil
}
