package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

// expirySkew treats tokens about to expire as already expired so a request
// doesn't leave with a token that dies in flight.
const expirySkew = 5 * time.Second

type AuthService struct {
	api      ports.AuthAPI
	sessions ports.SessionRepository
	profile  string
	cache    *QueryCache
	ledger   *VoteLedger
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(api ports.AuthAPI, sessions ports.SessionRepository, profile string, cache *QueryCache, ledger *VoteLedger, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ledger == nil {
		ledger = NewVoteLedger()
	}
	return &AuthService{
		api:      api,
		sessions: sessions,
		profile:  profile,
		cache:    cache,
		ledger:   ledger,
		logger:   logger,
		now:      time.Now,
	}
}

// AccessToken returns the stored token, "" when nobody is logged in, or
// ErrSessionExpired when the stored token is past its exp claim.
func (s *AuthService) AccessToken(ctx context.Context) (string, error) {
	session, err := s.sessions.Get(ctx, s.profile)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Authenticated() {
		return "", nil
	}

	if exp, ok := tokenExpiry(session.AccessToken); ok && !s.now().Add(expirySkew).Before(exp) {
		return "", fmt.Errorf("%w: token expired at %s: %w", domain.ErrSessionExpired, exp.Format(time.RFC3339), domain.ErrUnauthorized)
	}
	return session.AccessToken, nil
}

func (s *AuthService) Session(ctx context.Context) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, s.profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Authenticated() {
		return nil, domain.ErrNotLoggedIn
	}
	return session, nil
}

func (s *AuthService) Login(ctx context.Context, input ports.LoginInput) (*domain.Session, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := ValidateLogin(input); err != nil {
		return nil, err
	}

	token, err := s.api.Login(ctx, input.Email, input.Password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return s.start(ctx, token)
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.Session, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := ValidateRegister(input); err != nil {
		return nil, err
	}

	token, err := s.api.Register(ctx, input.Name, input.Email, input.Password)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return s.start(ctx, token)
}

// start persists a fresh token and then fetches the profile with it. A
// failed profile fetch still leaves the viewer logged in.
func (s *AuthService) start(ctx context.Context, token *domain.Token) (*domain.Session, error) {
	s.cache.Clear()
	s.ledger.Reset()

	session := &domain.Session{
		Profile:     s.profile,
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		UpdatedAt:   s.now(),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Warn("could not load profile after login", zap.Error(err))
		return session, nil
	}

	session.User = user
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("session started", zap.Int64("user_id", user.ID), zap.String("profile", s.profile))
	return session, nil
}

func (s *AuthService) Refresh(ctx context.Context) (*domain.Session, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}

	token, err := s.api.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	session.AccessToken = token.AccessToken
	if token.TokenType != "" {
		session.TokenType = token.TokenType
	}
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// CurrentUser asks the server who the token belongs to. A token the server
// rejects is dropped so the next command starts from a clean login.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			if delErr := s.sessions.Delete(ctx, s.profile); delErr != nil {
				s.logger.Warn("failed to drop rejected session", zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	session.User = user
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	s.cache.Clear()
	s.ledger.Reset()
	if err := s.sessions.Delete(ctx, s.profile); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client has no key and only needs to know whether to bother sending it.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
