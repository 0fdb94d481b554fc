package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

func (d *Database) Get(ctx context.Context, chatID int64, key string) (string, bool, error) {
	query := "select value from storage where chat_id = ? and key = ?"

	var value string
	err := d.db.QueryRowContext(ctx, query, chatID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("scan row: %w", err)
	}

	return value, true, nil
}

func (d *Database) Set(ctx context.Context, chatID int64, key string, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("storage key is empty")
	}

	query := `insert into storage (chat_id, key, value, updated_at)
	values (?, ?, ?, strftime('%s', 'now'))
	on conflict (chat_id, key) do update
	set value = excluded.value, updated_at = excluded.updated_at`

	_, err := d.db.ExecContext(ctx, query, chatID, key, value)

	return err
}

func (d *Database) Delete(ctx context.Context, chatID int64, key string) error {
	query := "delete from storage where chat_id = ? and key = ?"

	_, err := d.db.ExecContext(ctx, query, chatID, key)

	return err
}

func (d *Database) ChatsWith(ctx context.Context, key string, value string) ([]int64, error) {
	query := "select chat_id from storage where key = ? and value = ? order by chat_id"

	rows, err := d.db.QueryContext(ctx, query, key, value)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"key", key,
				"operation", "ChatsWith")
		}
	}()

	var chatIDs []int64
	for rows.Next() {
		var chatID int64
		if err = rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		chatIDs = append(chatIDs, chatID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return chatIDs, nil
}
