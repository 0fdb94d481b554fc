package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clawgram/internal/authweb"
	"clawgram/internal/bot"
	"clawgram/internal/claw"
	"clawgram/internal/config"
	"clawgram/internal/database"
	"clawgram/internal/scheduler"
	"clawgram/internal/session"
	"clawgram/internal/summarizer"

	"github.com/joho/godotenv"
)

const (
	apiTimeout      = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

type store interface {
	session.Storage
	Close() error
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WarnContext(ctx, "Failed to load .env file",
			"error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	loc, err := cfg.Location()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load timezone",
			"error", err,
			"timezone", cfg.Timezone)

		return
	}

	db, err := initStore(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize store",
			"error", err,
			"storeDriver", cfg.StoreDriver)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close store",
				"error", err,
				"storeDriver", cfg.StoreDriver)
		}
	}()
	log.InfoContext(ctx, "Store is initialized",
		"storeDriver", cfg.StoreDriver)

	clawClient, err := claw.New(cfg.APIBaseURL, &http.Client{Timeout: apiTimeout}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize API client",
			"error", err,
			"apiBaseURL", cfg.APIBaseURL)

		return
	}

	options := bot.Options{
		FeedLimit:       cfg.FeedLimit,
		NotificationTTL: cfg.NotificationTTL,
		Location:        loc,
		LoginURL:        func(int64) string { return cfg.AuthURL },
	}
	if s := initOpenAISummarizer(ctx, cfg.OpenAIAPIKey, log); s != nil {
		options.Summarizer = s
	}

	botInst, err := bot.New(cfg.Token, db, clawClient, cfg.AllowedUsers, options, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers),
		"username", botInst.Username())

	var web *authweb.Server
	if cfg.CallbackAddr != "" {
		web, err = authweb.New(authweb.Config{
			Addr:        cfg.CallbackAddr,
			AuthURL:     cfg.AuthURL,
			ReturnParam: cfg.AuthReturnParam,
			CallbackURL: cfg.CallbackURL,
			Secret:      cfg.AuthStateSecret,
			BotUsername: botInst.Username(),
		}, botInst, log)
		if err != nil {
			log.ErrorContext(ctx, "Failed to initialize auth callback server",
				"error", err,
				"callbackAddr", cfg.CallbackAddr)

			return
		}
		botInst.SetLoginURL(web.LoginURL)

		go func() {
			if serveErr := web.ListenAndServe(); serveErr != nil {
				log.ErrorContext(ctx, "Failed to serve auth callbacks",
					"error", serveErr,
					"callbackAddr", cfg.CallbackAddr)
			}
		}()
	}

	sched := scheduler.New(ctx, cfg.DigestSpec, loc, db, botInst, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", cfg.DigestSpec,
			"timezone", loc.String())

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.DigestSpec,
		"timezone", loc.String())

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	if web != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err = web.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(shutdownCtx, "Failed to shut down auth callback server",
				"error", err)
		}
		shutdownCancel()
	}

	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())
}

func initStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return database.NewPostgres(ctx, cfg.DatabaseURL, log)
	case config.StoreRedis:
		return database.NewRedis(ctx, cfg.RedisURL, log)
	case config.StoreMemory:
		return database.NewMemory(), nil
	default:
		return database.New(ctx, cfg.DBPath, log)
	}
}

func initOpenAISummarizer(ctx context.Context, apiKey string, log *slog.Logger) summarizer.Summarizer {
	if apiKey == "" {
		log.InfoContext(ctx, "OPENAI_API_KEY is missing so digests go out without summary",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(apiKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so digests go out without summary",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai")

	return s
}
