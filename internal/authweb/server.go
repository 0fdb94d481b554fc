// Package authweb is the redirect target of the rotur sign in page. It takes
// the one-time token out of the callback URL, hands it to the chat that asked
// for it and sends the browser back to Telegram.
package authweb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	authenticateTimeout = 60 * time.Second
	readHeaderTimeout   = 5 * time.Second
	readTimeout         = 10 * time.Second
	writeTimeout        = 90 * time.Second
	idleTimeout         = 60 * time.Second
)

// Authenticator completes the sign in of a chat.
type Authenticator interface {
	Authenticate(ctx context.Context, chatID int64, token string)
}

type Config struct {
	Addr        string
	AuthURL     string
	ReturnParam string
	// CallbackURL is the public URL of /auth/callback. Login links point at
	// AuthURL directly when it is empty.
	CallbackURL string
	Secret      string
	BotUsername string
}

type Server struct {
	cfg           Config
	signer        *stateSigner
	used          *usedStates
	authenticator Authenticator
	httpServer    *http.Server
	log           *slog.Logger
}

func New(cfg Config, authenticator Authenticator, log *slog.Logger) (*Server, error) {
	if _, err := url.Parse(cfg.AuthURL); err != nil {
		return nil, fmt.Errorf("parse auth URL: %w", err)
	}
	if cfg.CallbackURL != "" && cfg.Secret == "" {
		return nil, errors.New("state secret is required with a callback URL")
	}

	s := &Server{
		cfg:           cfg,
		signer:        newStateSigner(cfg.Secret),
		used:          newUsedStates(usedStatesMaxEntries),
		authenticator: authenticator,
		log:           log,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.CleanPath)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	r.Get("/auth/callback", s.handleCallback)

	return r
}

// LoginURL is the sign in link for a chat. With a callback URL configured the
// provider returns to it with a signed state naming the chat.
func (s *Server) LoginURL(chatID int64) string {
	if s.cfg.CallbackURL == "" {
		return s.cfg.AuthURL
	}

	state, err := s.signer.issue(chatID)
	if err != nil {
		s.log.Error("Failed to issue login state",
			"error", err,
			"chatID", chatID)

		return s.cfg.AuthURL
	}

	callback, err := url.Parse(s.cfg.CallbackURL)
	if err != nil {
		s.log.Error("Failed to parse callback URL",
			"error", err,
			"callbackURL", s.cfg.CallbackURL)

		return s.cfg.AuthURL
	}

	query := callback.Query()
	query.Set("state", state)
	callback.RawQuery = query.Encode()

	authURL, err := url.Parse(s.cfg.AuthURL)
	if err != nil {
		return s.cfg.AuthURL
	}

	query = authURL.Query()
	query.Set(s.cfg.ReturnParam, callback.String())
	authURL.RawQuery = query.Encode()

	return authURL.String()
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := strings.TrimSpace(r.URL.Query().Get("state"))
	token := strings.TrimSpace(r.URL.Query().Get("token"))

	if state == "" || token == "" {
		http.Error(w, "missing state or token", http.StatusBadRequest)
		return
	}

	claims, err := s.signer.verify(state)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to verify login state",
			"error", err)

		http.Error(w, "login link is invalid or expired", http.StatusBadRequest)
		return
	}

	chatID, err := claims.chatID()
	if err != nil {
		s.log.WarnContext(ctx, "Failed to read chat from login state",
			"error", err)

		http.Error(w, "login link is invalid or expired", http.StatusBadRequest)
		return
	}

	if !s.used.consume(claims.ID, claims.ExpiresAt.Time, s.signer.now()) {
		http.Error(w, "login link was already used", http.StatusConflict)
		return
	}

	authCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), authenticateTimeout)
	defer cancel()

	s.authenticator.Authenticate(authCtx, chatID, token)

	s.log.InfoContext(ctx, "Chat signed in through callback",
		"chatID", chatID)

	http.Redirect(w, r, s.returnURL(), http.StatusFound)
}

// returnURL is where the browser lands after sign in, without the token.
func (s *Server) returnURL() string {
	if s.cfg.BotUsername == "" {
		return "https://t.me/"
	}
	return "https://t.me/" + s.cfg.BotUsername
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusBadRequest {
			level = slog.LevelWarn
		}

		s.log.Log(r.Context(), level, "HTTP request is served",
			"requestID", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"durationMs", time.Since(start).Milliseconds())
	})
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info("Auth callback server is starting",
		"addr", s.cfg.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
