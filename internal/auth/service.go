// Package auth registers users, logs them in and resolves session tokens.
package auth

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    int64
	SessionID string
	Email     string
	Name      string
}

// Service ties users, stored sessions and signed tokens together.
type Service struct {
	users    *UserRepository
	sessions *SessionRepository
	tokens   *TokenIssuer
	ttl      time.Duration
	logger   *zap.Logger
}

func NewService(users *UserRepository, sessions *SessionRepository, tokens *TokenIssuer, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, sessions: sessions, tokens: tokens, ttl: ttl, logger: logger}
}

// TTL is how long new sessions last.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	u, err := s.users.Create(ctx, email, name, password)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

// Login checks credentials and starts a session. It returns the signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	sess, err := s.sessions.Create(ctx, u.ID, s.ttl)
	if err != nil {
		return "", nil, err
	}
	token, err := s.tokens.Sign(sess)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Authenticate resolves a token to its principal. Expired, revoked or forged
// tokens yield ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	sessionID, userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.GetActive(ctx, sessionID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != userID {
		return nil, ErrUnauthorized
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthorized
	}
	return &Principal{UserID: u.ID, SessionID: sess.ID, Email: u.Email, Name: u.Name}, nil
}

// Logout revokes the session behind a principal.
func (s *Service) Logout(ctx context.Context, p *Principal) error {
	return s.sessions.Delete(ctx, p.SessionID)
}

// CleanupExpired deletes expired sessions.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.CleanupExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", zap.Int64("count", n))
	}
	return n, nil
}
