package waspweb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// refreshMargin renews access tokens slightly before they expire.
const refreshMargin = 30 * time.Second

// Credentials are the password credentials of the admin service account.
type Credentials struct {
	Email    string
	Password string
}

// AdminSession caches the login state of the admin service account.
//
// The state moves to logged in after a successful password sign-in and back
// to logged out whenever fetching the current session fails. Concurrent
// sign-ins are collapsed into one.
type AdminSession struct {
	auth        AuthClient
	credentials Credentials
	logger      *slog.Logger
	now         func() time.Time

	loggedIn atomic.Bool
	group    singleflight.Group

	mu      sync.RWMutex
	session *Session
}

// AdminSessionOption configures an AdminSession.
type AdminSessionOption func(*AdminSession)

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *slog.Logger) AdminSessionOption {
	return func(s *AdminSession) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) AdminSessionOption {
	return func(s *AdminSession) {
		s.now = now
	}
}

// NewAdminSession creates a logged out AdminSession.
func NewAdminSession(auth AuthClient, credentials Credentials, options ...AdminSessionOption) *AdminSession {
	s := &AdminSession{
		auth:        auth,
		credentials: credentials,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// LoggedIn returns the cached login flag.
func (s *AdminSession) LoggedIn() bool {
	return s.loggedIn.Load()
}

// Expiring reports whether there is no session or its access token is
// about to expire.
func (s *AdminSession) Expiring() bool {
	session := s.Session()
	return session == nil || session.Expired(s.now().Add(refreshMargin))
}

// Session returns the current session, or nil.
func (s *AdminSession) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// EnsureLoggedIn makes sure the service account is signed in.
//
// With cacheOnly set and the cached flag already true it returns at once and
// verifies the session in the background. Otherwise it fetches the current
// session, signing in with the credentials when there is none. Failures clear
// the flag and are returned as a forbidden Failure.
func (s *AdminSession) EnsureLoggedIn(ctx context.Context, cacheOnly bool) (bool, error) {
	if cacheOnly && s.loggedIn.Load() {
		go func(ctx context.Context) {
			if _, err := s.EnsureLoggedIn(ctx, false); err != nil {
				s.logger.Warn("Background admin session check failed", "err", err)
			}
		}(context.WithoutCancel(ctx))
		return true, nil
	}

	_, err, _ := s.group.Do("login", func() (interface{}, error) {
		return nil, s.login(ctx)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Claims returns the JWT claims of the current access token.
func (s *AdminSession) Claims() (jwt.MapClaims, error) {
	session := s.Session()
	if session == nil {
		return nil, ErrNoSession
	}
	return ParseClaims(session.AccessToken)
}

func (s *AdminSession) login(ctx context.Context) error {
	session, err := s.currentSession(ctx)
	if err != nil {
		s.loggedIn.Store(false)
		return Forbidden(err)
	}

	if session == nil {
		s.logger.Info("Logging in as admin user!", "email", s.credentials.Email)
		session, err = s.auth.SignInWithPassword(ctx, s.credentials.Email, s.credentials.Password)
		if err != nil {
			adminSignInsTotal.WithLabelValues("error").Inc()
			s.loggedIn.Store(false)
			return Forbidden(err)
		}
		adminSignInsTotal.WithLabelValues("success").Inc()
		s.setSession(session)
	}

	s.loggedIn.Store(true)
	return nil
}

// currentSession returns the stored session, refreshing it when its access
// token is about to expire. A nil session without error means there is none.
func (s *AdminSession) currentSession(ctx context.Context) (*Session, error) {
	session := s.Session()
	if session == nil {
		return nil, nil
	}
	if !session.Expired(s.now().Add(refreshMargin)) {
		return session, nil
	}

	if session.RefreshToken == "" {
		s.setSession(nil)
		return nil, nil
	}
	refreshed, err := s.auth.RefreshSession(ctx, session.RefreshToken)
	if err != nil {
		s.setSession(nil)
		return nil, fmt.Errorf("failed to refresh admin session: %w", err)
	}
	s.setSession(refreshed)
	return refreshed, nil
}

func (s *AdminSession) setSession(session *Session) {
	if session != nil && session.ExpiresAt.IsZero() {
		if claims, err := ParseClaims(session.AccessToken); err == nil {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				session.ExpiresAt = exp.Time
			}
		}
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
}

// ParseClaims decodes the claims of a JWT without verifying its signature.
// It is only used on tokens received directly from the auth service.
func ParseClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}

type claimsKey struct{}

// WithClaims attaches JWT claims to ctx. Repositories enforcing row level
// security run their queries with these claims.
func WithClaims(ctx context.Context, claims map[string]interface{}) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims attached by WithClaims.
func ClaimsFromContext(ctx context.Context) (map[string]interface{}, bool) {
	claims, ok := ctx.Value(claimsKey{}).(map[string]interface{})
	return claims, ok
}
