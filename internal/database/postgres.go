package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // Registers the pgx5 scheme.
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	postgresMaxConns        = 10
	postgresMinConns        = 1
	postgresMaxConnIdleTime = 10 * time.Minute
	postgresConnectTimeout  = 5 * time.Second
	postgresPingTimeout     = 2 * time.Second
)

type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgres(ctx context.Context, dsn string, log *slog.Logger) (*Postgres, error) {
	if err := migratePostgres(ctx, dsn, log); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolConfig.MaxConns = postgresMaxConns
	poolConfig.MinConns = postgresMinConns
	poolConfig.MaxConnIdleTime = postgresMaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = postgresConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	p := &Postgres{pool: pool, log: log}
	if err = p.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

func migratePostgres(ctx context.Context, dsn string, log *slog.Logger) error {
	srcInstance, err := iofs.New(migrationsFS, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("create source instance: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", srcInstance, pgx5DSN(dsn))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err = errors.Join(srcErr, dbErr); err != nil {
			log.WarnContext(ctx, "Failed to close migrate instance",
				"error", err)
		}
	}()

	return applyMigrations(ctx, m, log, "driver", "postgres")
}

// pgx5DSN rewrites postgres:// URLs to the pgx5:// scheme golang-migrate expects.
func pgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, postgresPingTimeout)
	defer cancel()

	if err := p.pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, chatID int64, key string) (string, bool, error) {
	query := "select value from storage where chat_id = $1 and key = $2"

	var value string
	err := p.pool.QueryRow(ctx, query, chatID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("scan row: %w", err)
	}

	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, chatID int64, key string, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("storage key is empty")
	}

	query := `insert into storage (chat_id, key, value, updated_at)
	values ($1, $2, $3, now())
	on conflict (chat_id, key) do update
	set value = excluded.value, updated_at = excluded.updated_at`

	_, err := p.pool.Exec(ctx, query, chatID, key, value)

	return err
}

func (p *Postgres) Delete(ctx context.Context, chatID int64, key string) error {
	query := "delete from storage where chat_id = $1 and key = $2"

	_, err := p.pool.Exec(ctx, query, chatID, key)

	return err
}

func (p *Postgres) ChatsWith(ctx context.Context, key string, value string) ([]int64, error) {
	query := "select chat_id from storage where key = $1 and value = $2 order by chat_id"

	rows, err := p.pool.Query(ctx, query, key, value)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}

	chatIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect rows: %w", err)
	}

	return chatIDs, nil
}
