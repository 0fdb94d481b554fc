// Package scheduler pushes the following feed digest to chats that opted in.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clawgram/internal/domain"

	"github.com/robfig/cron/v3"
)

const (
	DefaultDigestSpec  = "0 9 * * *"
	sendDigestsTimeout = 15 * time.Minute
)

// Subscribers lists chats by a stored key value.
type Subscribers interface {
	ChatsWith(ctx context.Context, key string, value string) ([]int64, error)
}

// Sender delivers a digest to one chat and reports whether anything was sent.
type Sender interface {
	SendDigest(ctx context.Context, chatID int64) bool
}

type Scheduler struct {
	ctx         context.Context
	cron        *cron.Cron
	spec        string
	subscribers Subscribers
	sender      Sender
	log         *slog.Logger
}

func New(
	ctx context.Context,
	spec string,
	loc *time.Location,
	subscribers Subscribers,
	sender Sender,
	log *slog.Logger,
) *Scheduler {
	if spec == "" {
		spec = DefaultDigestSpec
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		ctx:         ctx,
		cron:        cron.New(cron.WithLocation(loc)),
		spec:        spec,
		subscribers: subscribers,
		sender:      sender,
		log:         log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sendDigests); err != nil {
		return fmt.Errorf("add digest job %q: %w", s.spec, err)
	}

	s.cron.Start()

	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDigests() {
	ctx, cancel := context.WithTimeout(s.ctx, sendDigestsTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	chatIDs, err := s.subscribers.ChatsWith(ctx, domain.KeyDigest, domain.DigestOn)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list digest subscribers",
			"error", err)
		return
	}

	sent := 0
	for _, chatID := range chatIDs {
		if ctx.Err() != nil {
			s.log.InfoContext(ctx, "Scheduler context is done",
				"error", ctx.Err(),
				"sent", sent,
				"subscribers", len(chatIDs))
			return
		}

		if s.sender.SendDigest(ctx, chatID) {
			sent++
		}
	}

	s.log.InfoContext(ctx, "Digests are sent",
		"sent", sent,
		"subscribers", len(chatIDs))
}
