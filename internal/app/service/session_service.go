package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/seonmall/storefront/internal/app/model"
	"github.com/seonmall/storefront/pkg/api"
	"github.com/seonmall/storefront/pkg/logger"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// SessionService owns the authenticated user and the short-lived access
// token, and keeps the token fresh with a single-shot timer firing shortly
// before expiry. At most one refresh timer is ever live.
type SessionService interface {
	State() model.SessionState
	User() *model.UserProfile
	AccessToken() string
	IsLoggedIn() bool
	SignIn(ctx context.Context, email, password string) (*model.UserProfile, error)
	SignUp(ctx context.Context, req api.SignUpRequest) (*model.UserProfile, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context)
	Stop()
}

type sessionService struct {
	client        *api.Client
	refreshMargin time.Duration

	mu    sync.Mutex
	state model.SessionState
	user  *model.UserProfile
	token string
	timer *time.Timer
}

func NewSessionService(client *api.Client, refreshMargin time.Duration) SessionService {
	s := &sessionService{
		client:        client,
		refreshMargin: refreshMargin,
		state:         model.SessionAnonymous,
	}
	// The API client pulls the bearer token from here on every request.
	client.SetTokenProvider(s.AccessToken)
	return s
}

func (s *sessionService) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *sessionService) User() *model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *sessionService) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *sessionService) IsLoggedIn() bool {
	return s.AccessToken() != ""
}

func (s *sessionService) SignIn(ctx context.Context, email, password string) (*model.UserProfile, error) {
	logger.Info("Signing in", map[string]interface{}{
		"email": email,
	})

	resp, err := s.client.SignIn(ctx, api.SignInRequest{Email: email, Password: password})
	if err != nil {
		logger.Warn("Sign-in failed", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return nil, err
	}

	s.adopt(resp.User, resp.AccessToken, 0)
	return resp.User, nil
}

func (s *sessionService) SignUp(ctx context.Context, req api.SignUpRequest) (*model.UserProfile, error) {
	logger.Info("Signing up", map[string]interface{}{
		"email": req.Email,
	})

	resp, err := s.client.SignUp(ctx, req)
	if err != nil {
		logger.Warn("Sign-up failed", map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		return nil, err
	}

	s.adopt(resp.User, resp.AccessToken, 0)
	return resp.User, nil
}

// Refresh silently renews the access token using the refresh cookie. On
// failure the session drops to anonymous and any pending timer is canceled.
func (s *sessionService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.state = model.SessionAuthenticating
	s.mu.Unlock()

	resp, err := s.client.RefreshToken(ctx)
	if err != nil {
		logger.Warn("Silent token refresh failed, dropping to anonymous", map[string]interface{}{
			"error": err.Error(),
		})
		s.clear()
		return err
	}

	s.adopt(s.User(), resp.AccessToken, time.Duration(resp.ExpiresIn)*time.Second)
	logger.Debug("Access token refreshed")
	return nil
}

// Logout signs out server-side best-effort and always clears local state.
func (s *sessionService) Logout(ctx context.Context) {
	logger.Info("Logging out")

	// The sign-out call needs the bearer token, so it runs before the
	// local state is cleared. Its failure is ignored.
	if s.IsLoggedIn() {
		if err := s.client.SignOut(ctx); err != nil {
			logger.Warn("Sign-out request failed, clearing session anyway", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	s.clear()
}

// Stop cancels the refresh timer without touching the server. Used on
// application teardown.
func (s *sessionService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// adopt stores a new token and user and schedules the next silent refresh.
// expiresIn zero means the response did not report a lifetime; the expiry
// is then recovered from the token's own exp claim.
func (s *sessionService) adopt(user *model.UserProfile, token string, expiresIn time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	s.token = token
	s.state = model.SessionAuthenticated

	if expiresIn <= 0 {
		if expiry, ok := tokenExpiry(token); ok {
			expiresIn = time.Until(expiry)
		}
	}

	s.stopTimerLocked()
	if expiresIn <= 0 {
		logger.Debug("Token lifetime unknown, skipping refresh schedule")
		return
	}

	delay := expiresIn - s.refreshMargin
	if delay < 0 {
		delay = 0
	}
	s.timer = time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = s.Refresh(ctx)
	})

	logger.Debug("Scheduled silent token refresh", map[string]interface{}{
		"in": delay.String(),
	})
}

func (s *sessionService) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.user = nil
	s.token = ""
	s.state = model.SessionAnonymous
}

// stopTimerLocked cancels the pending refresh timer. Scheduling a new one
// always goes through here first, so at most one timer is ever live.
func (s *sessionService) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// tokenExpiry reads the exp claim without verifying the signature. The
// client only schedules from it; validation is the server's job.
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
