package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"clawgram/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix    = "clawgram:storage:"
	redisIndexPrefix  = "clawgram:index:"
	redisDialTimeout  = 3 * time.Second
	redisReadTimeout  = 2 * time.Second
	redisWriteTimeout = 2 * time.Second
	redisPingTimeout  = 2 * time.Second
	redisScanCount    = 100
)

// Only these keys get a reverse index. Values of other keys, auth tokens
// included, never appear in key names.
//
//nolint:gochecknoglobals // Read-only set.
var redisIndexedKeys = map[string]bool{
	domain.KeyDigest: true,
}

// Redis keeps one hash per chat. Indexed keys also get one set per value so
// ChatsWith does not need to scan.
type Redis struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedis(ctx context.Context, redisURL string, log *slog.Logger) (*Redis, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	options.DialTimeout = redisDialTimeout
	options.ReadTimeout = redisReadTimeout
	options.WriteTimeout = redisWriteTimeout

	r := &Redis{client: redis.NewClient(options), log: log}

	if err = r.Ping(ctx); err != nil {
		return nil, errors.Join(err, r.client.Close())
	}

	log.InfoContext(ctx, "Redis is connected",
		"addr", options.Addr,
		"db", options.DB)

	return r, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, chatID int64, key string) (string, bool, error) {
	value, err := r.client.HGet(ctx, chatKey(chatID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("hget: %w", err)
	}

	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, chatID int64, key string, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("storage key is empty")
	}

	previous, found, err := r.Get(ctx, chatID, key)
	if err != nil {
		return err
	}

	member := strconv.FormatInt(chatID, 10)

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, chatKey(chatID), key, value)
		if !indexed(key) {
			return nil
		}
		if found && previous != value {
			pipe.SRem(ctx, indexKey(key, previous), member)
		}
		pipe.SAdd(ctx, indexKey(key, value), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("exec pipeline: %w", err)
	}

	return nil
}

func (r *Redis) Delete(ctx context.Context, chatID int64, key string) error {
	previous, found, err := r.Get(ctx, chatID, key)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, chatKey(chatID), key)
		if indexed(key) {
			pipe.SRem(ctx, indexKey(key, previous), strconv.FormatInt(chatID, 10))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("exec pipeline: %w", err)
	}

	return nil
}

func (r *Redis) ChatsWith(ctx context.Context, key string, value string) ([]int64, error) {
	if !indexed(key) {
		return r.scanChatsWith(ctx, key, value)
	}

	members, err := r.client.SMembers(ctx, indexKey(key, value)).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers: %w", err)
	}

	chatIDs := make([]int64, 0, len(members))
	for _, member := range members {
		chatID, parseErr := strconv.ParseInt(member, 10, 64)
		if parseErr != nil {
			r.log.WarnContext(ctx, "Skipping malformed index member",
				"error", parseErr,
				"key", key,
				"member", member)

			continue
		}

		chatIDs = append(chatIDs, chatID)
	}

	slices.Sort(chatIDs)

	return chatIDs, nil
}

func (r *Redis) scanChatsWith(ctx context.Context, key string, value string) ([]int64, error) {
	var chatIDs []int64

	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		stored, err := r.client.HGet(ctx, iter.Val(), key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("hget: %w", err)
		}
		if stored != value {
			continue
		}

		chatID, err := strconv.ParseInt(strings.TrimPrefix(iter.Val(), redisKeyPrefix), 10, 64)
		if err != nil {
			continue
		}
		chatIDs = append(chatIDs, chatID)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan chats: %w", err)
	}

	slices.Sort(chatIDs)

	return chatIDs, nil
}

func indexed(key string) bool {
	return redisIndexedKeys[key]
}

func chatKey(chatID int64) string {
	return redisKeyPrefix + strconv.FormatInt(chatID, 10)
}

func indexKey(key string, value string) string {
	return redisIndexPrefix + key + ":" + value
}
