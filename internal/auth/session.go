package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fivetwenty-io/roi/internal/constants"
	"github.com/fivetwenty-io/roi/pkg/roi"
)

// SessionEndpoint performs the two unauthenticated calls a session needs.
type SessionEndpoint interface {
	Logon(ctx context.Context, credentials roi.Credentials) (string, error)
	SystemTime(ctx context.Context) (*roi.SystemTime, error)
}

// SessionOption configures a SessionTokenManager.
type SessionOption func(*SessionTokenManager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionTokenManager) {
		m.now = now
	}
}

// WithSessionLogger logs refreshes and cache failures.
func WithSessionLogger(logger roi.Logger) SessionOption {
	return func(m *SessionTokenManager) {
		m.logger = logger
	}
}

// SessionTokenManager logs on lazily and keeps the session token until
// midnight of the API's calendar day. With a cache configured the cache is
// authoritative for the expiry, so several managers can share one session.
//
// Without credentials the manager only hands out a session some other
// manager stored in the cache, and fails with roi.ErrNoSession or
// roi.ErrSessionExpired instead of logging on.
//
// One mutex covers the whole lookup-or-refresh sequence: concurrent callers
// wait for a single logon instead of racing their own.
type SessionTokenManager struct {
	credentials roi.Credentials
	endpoint    SessionEndpoint
	cache       roi.TokenCache
	store       *TokenStore
	now         func() time.Time
	logger      roi.Logger
	mu          sync.Mutex
}

// NewSessionTokenManager creates a manager. cache may be nil.
func NewSessionTokenManager(credentials roi.Credentials, endpoint SessionEndpoint, cache roi.TokenCache, opts ...SessionOption) *SessionTokenManager {
	manager := &SessionTokenManager{
		credentials: credentials,
		endpoint:    endpoint,
		cache:       cache,
		store:       NewTokenStore(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// NewCachedSessionManager creates a manager that never logs on and only
// reuses the session held in cache.
func NewCachedSessionManager(cache roi.TokenCache, opts ...SessionOption) *SessionTokenManager {
	return NewSessionTokenManager(roi.Credentials{}, nil, cache, opts...)
}

// GetToken returns a usable token, logging on when there is none.
func (m *SessionTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, expiresAt, err := m.candidate(ctx)
	if err != nil {
		return "", err
	}

	if token != "" && m.now().Before(expiresAt) {
		return token, nil
	}

	if !m.canLogon() {
		if token == "" {
			return "", roi.ErrNoSession
		}

		return "", roi.ErrSessionExpired
	}

	refreshed, err := m.refresh(ctx)
	if err != nil {
		return "", err
	}

	return refreshed.AccessToken, nil
}

// RefreshToken forces a new logon.
func (m *SessionTokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.canLogon() {
		return roi.ErrCredentialsMissing
	}

	_, err := m.refresh(ctx)

	return err
}

// SetToken stores a token obtained elsewhere in the slot and the cache. The
// TokenManager contract has no error return, so a failed cache write is
// logged.
func (m *SessionTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := &Token{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}

	err := m.save(context.Background(), stored)
	if err != nil {
		m.warn("failed to cache session token", err)
	}

	m.store.Set(stored)
}

// Invalidate drops the session so the next GetToken logs on again. The
// cached expiry is reset as well, which affects every client sharing it.
func (m *SessionTokenManager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.Clear()

	if m.cache == nil {
		return nil
	}

	err := m.cache.Set(ctx, constants.SessionExpireKey, "0")
	if err != nil {
		return fmt.Errorf("%w: resetting session expiry: %w", roi.ErrTokenCache, err)
	}

	return nil
}

// Clear forgets the session in memory and in the cache, token included.
func (m *SessionTokenManager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.Clear()

	return m.save(ctx, &Token{})
}

// Token returns the token held in memory, if any.
func (m *SessionTokenManager) Token() *Token {
	return m.store.Get()
}

func (m *SessionTokenManager) canLogon() bool {
	return m.endpoint != nil &&
		m.credentials.UserID != "" && m.credentials.Password != "" && m.credentials.ClientCode != ""
}

// candidate returns the token to try and its expiry. The memory slot wins
// for the token; the cache wins for the expiry when there is a cache.
func (m *SessionTokenManager) candidate(ctx context.Context) (string, time.Time, error) {
	var (
		token     string
		expiresAt time.Time
	)

	if stored := m.store.Get(); stored != nil {
		token = stored.AccessToken
		expiresAt = stored.ExpiresAt
	}

	if m.cache == nil {
		return token, expiresAt, nil
	}

	if token == "" {
		cached, err := m.cache.Get(ctx, constants.SessionTokenKey, "")
		if err != nil {
			return "", time.Time{}, fmt.Errorf("%w: reading session token: %w", roi.ErrTokenCache, err)
		}

		token = cached
	}

	raw, err := m.cache.Get(ctx, constants.SessionExpireKey, "0")
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: reading session expiry: %w", roi.ErrTokenCache, err)
	}

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		seconds = 0
	}

	return token, time.Unix(seconds, 0), nil
}

// refresh logs on and stores the new session. The memory slot is only
// updated once the cache holds the session too.
func (m *SessionTokenManager) refresh(ctx context.Context) (*Token, error) {
	accessToken, err := m.endpoint.Logon(ctx, m.credentials)
	if err != nil {
		return nil, err
	}

	if accessToken == "" {
		return nil, roi.ErrEmptyToken
	}

	systemTime, err := m.endpoint.SystemTime(ctx)
	if err != nil {
		return nil, err
	}

	token := &Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   systemTime.NextDayStart(),
	}

	err = m.save(ctx, token)
	if err != nil {
		return nil, err
	}

	m.store.Set(token)

	if m.logger != nil {
		m.logger.Info("session token refreshed", map[string]interface{}{
			"user_id":    m.credentials.UserID,
			"expires_at": token.ExpiresAt.Format(time.RFC3339),
		})
	}

	return token, nil
}

// save writes token and expiry to the cache, in one call when the cache
// supports batched writes. An empty token stores the expired sentinel.
func (m *SessionTokenManager) save(ctx context.Context, token *Token) error {
	if m.cache == nil {
		return nil
	}

	expiry := "0"
	if token.AccessToken != "" {
		expiry = strconv.FormatInt(token.ExpiresAt.Unix(), 10)
	}

	var err error

	if batch, ok := m.cache.(roi.BatchTokenCache); ok {
		err = batch.SetMany(ctx, map[string]string{
			constants.SessionTokenKey:  token.AccessToken,
			constants.SessionExpireKey: expiry,
		})
	} else {
		err = m.cache.Set(ctx, constants.SessionTokenKey, token.AccessToken)
		if err == nil {
			err = m.cache.Set(ctx, constants.SessionExpireKey, expiry)
		}
	}

	if err != nil {
		return fmt.Errorf("%w: storing session: %w", roi.ErrTokenCache, err)
	}

	return nil
}

func (m *SessionTokenManager) warn(msg string, err error) {
	if m.logger == nil {
		return
	}

	m.logger.Warn(msg, map[string]interface{}{
		"error": err.Error(),
	})
}
