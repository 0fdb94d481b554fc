// Package session holds the per-chat authentication state on top of durable
// key/value storage.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"clawgram/internal/domain"
)

// Storage is durable per-chat key/value storage.
type Storage interface {
	Get(ctx context.Context, chatID int64, key string) (string, bool, error)
	Set(ctx context.Context, chatID int64, key string, value string) error
	Delete(ctx context.Context, chatID int64, key string) error
	// ChatsWith lists chats where key is set to value.
	ChatsWith(ctx context.Context, key string, value string) ([]int64, error)
}

// Session is the authentication state of a single chat. The token is opaque
// and never inspected.
type Session struct {
	chatID  int64
	storage Storage
	log     *slog.Logger

	mu    sync.RWMutex
	token string
}

func New(chatID int64, storage Storage, log *slog.Logger) *Session {
	return &Session{
		chatID:  chatID,
		storage: storage,
		log:     log,
	}
}

// Initialize consumes a one-time token when given, otherwise resumes the stored
// one. It reports whether the session was freshly authenticated.
func (s *Session) Initialize(ctx context.Context, token string) bool {
	token = strings.TrimSpace(token)

	if token != "" {
		s.setToken(token)

		if err := s.storage.Set(ctx, s.chatID, domain.KeyAuth, token); err != nil {
			s.log.ErrorContext(ctx, "Failed to persist auth key",
				"error", err,
				"chatID", s.chatID)
		}

		return true
	}

	stored := s.get(ctx, domain.KeyAuth)
	s.setToken(stored)

	return false
}

func (s *Session) Logout(ctx context.Context) {
	s.setToken("")

	if err := s.storage.Delete(ctx, s.chatID, domain.KeyAuth); err != nil {
		s.log.ErrorContext(ctx, "Failed to clear auth key",
			"error", err,
			"chatID", s.chatID)
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) CurrentUsername(ctx context.Context) string {
	return s.get(ctx, domain.KeyCurrentUsername)
}

func (s *Session) SetCurrentUsername(ctx context.Context, username string) {
	s.set(ctx, domain.KeyCurrentUsername, username)
}

func (s *Session) Theme(ctx context.Context) domain.Theme {
	if domain.Theme(s.get(ctx, domain.KeyTheme)) == domain.ThemeLight {
		return domain.ThemeLight
	}
	return domain.ThemeDark
}

func (s *Session) ToggleTheme(ctx context.Context) domain.Theme {
	theme := s.Theme(ctx).Toggle()
	s.set(ctx, domain.KeyTheme, string(theme))

	return theme
}

func (s *Session) DigestEnabled(ctx context.Context) bool {
	return s.get(ctx, domain.KeyDigest) == domain.DigestOn
}

func (s *Session) SetDigest(ctx context.Context, enabled bool) {
	if enabled {
		s.set(ctx, domain.KeyDigest, domain.DigestOn)
		return
	}

	if err := s.storage.Delete(ctx, s.chatID, domain.KeyDigest); err != nil {
		s.log.ErrorContext(ctx, "Failed to delete storage key",
			"error", err,
			"chatID", s.chatID,
			"key", domain.KeyDigest)
	}
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

func (s *Session) get(ctx context.Context, key string) string {
	value, _, err := s.storage.Get(ctx, s.chatID, key)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to read storage key",
			"error", err,
			"chatID", s.chatID,
			"key", key)

		return ""
	}

	return value
}

func (s *Session) set(ctx context.Context, key string, value string) {
	if err := s.storage.Set(ctx, s.chatID, key, value); err != nil {
		s.log.ErrorContext(ctx, "Failed to write storage key",
			"error", err,
			"chatID", s.chatID,
			"key", key)
	}
}
