package auth_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/roi/internal/auth"
	"github.com/fivetwenty-io/roi/pkg/roi"
)

func TestToken_ValidAtRemoteMidnight(t *testing.T) {
	t.Parallel()

	// The API reported 15:30 local time; the session ends at its next midnight.
	reported := &roi.SystemTime{System: time.Date(2026, time.March, 1, 15, 30, 0, 0, eastern)}
	session := &auth.Token{AccessToken: "session", TokenType: "Bearer", ExpiresAt: reported.NextDayStart()}

	tests := []struct {
		name  string
		token *auth.Token
		at    time.Time
		valid bool
	}{
		{name: "no token", token: nil, at: reported.System, valid: false},
		{name: "empty token", token: &auth.Token{ExpiresAt: session.ExpiresAt}, at: reported.System, valid: false},
		{name: "when issued", token: session, at: reported.System, valid: true},
		{name: "last second of the remote day", token: session, at: time.Date(2026, time.March, 1, 23, 59, 59, 0, eastern), valid: true},
		{name: "remote midnight", token: session, at: time.Date(2026, time.March, 2, 0, 0, 0, 0, eastern), valid: false},
		{name: "same instant seen from UTC", token: session, at: time.Date(2026, time.March, 2, 5, 0, 0, 0, time.UTC), valid: false},
		{name: "UTC date already rolled over", token: session, at: time.Date(2026, time.March, 2, 1, 0, 0, 0, time.UTC), valid: true},
		{name: "next remote day", token: session, at: time.Date(2026, time.March, 2, 9, 0, 0, 0, eastern), valid: false},
		{name: "no expiry", token: &auth.Token{AccessToken: "static"}, at: reported.System, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.token.ValidAt(tt.at))
		})
	}
}

func TestToken_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, (&auth.Token{AccessToken: "session", ExpiresAt: time.Now().Add(time.Hour)}).Valid())
	assert.False(t, (&auth.Token{AccessToken: "session", ExpiresAt: time.Now().Add(-time.Second)}).Valid())
}

func TestTokenStore(t *testing.T) {
	t.Parallel()

	midnight := time.Date(2026, time.March, 2, 0, 0, 0, 0, eastern)

	store := auth.NewTokenStore()
	assert.Nil(t, store.Get())

	store.Set(&auth.Token{AccessToken: "session", TokenType: "Bearer", ExpiresAt: midnight})

	stored := store.Get()
	require.NotNil(t, stored)
	assert.Equal(t, "session", stored.AccessToken)
	assert.True(t, stored.ExpiresAt.Equal(midnight))

	// Callers get a copy, never the slot itself.
	stored.ExpiresAt = midnight.Add(24 * time.Hour)
	assert.True(t, store.Get().ExpiresAt.Equal(midnight))

	store.Clear()
	assert.Nil(t, store.Get())
}

func TestTokenStore_ConcurrentRefreshes(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	first := time.Date(2026, time.March, 2, 0, 0, 0, 0, eastern)
	second := first.Add(24 * time.Hour)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				if i%2 == 0 {
					store.Set(&auth.Token{AccessToken: "day-1", ExpiresAt: first})
				} else {
					store.Set(&auth.Token{AccessToken: "day-2", ExpiresAt: second})
				}

				_ = store.Get()
			}
		}()
	}

	wg.Wait()

	// Token and expiry always come from the same write.
	final := store.Get()
	require.NotNil(t, final)

	switch final.AccessToken {
	case "day-1":
		assert.True(t, final.ExpiresAt.Equal(first))
	case "day-2":
		assert.True(t, final.ExpiresAt.Equal(second))
	default:
		t.Fatalf("unexpected token %q", final.AccessToken)
	}
}
