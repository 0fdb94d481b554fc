package database

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
)

// Memory is a non-durable Storage for tests and local runs.
type Memory struct {
	mu    sync.RWMutex
	chats map[int64]map[string]string
}

func NewMemory() *Memory {
	return &Memory{chats: make(map[int64]map[string]string)}
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) Get(_ context.Context, chatID int64, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.chats[chatID][key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, chatID int64, key string, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("storage key is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.chats[chatID]
	if !ok {
		values = make(map[string]string)
		m.chats[chatID] = values
	}
	values[key] = value

	return nil
}

func (m *Memory) Delete(_ context.Context, chatID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.chats[chatID], key)

	return nil
}

func (m *Memory) ChatsWith(_ context.Context, key string, value string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var chatIDs []int64
	for chatID, values := range m.chats {
		if v, ok := values[key]; ok && v == value {
			chatIDs = append(chatIDs, chatID)
		}
	}

	slices.Sort(chatIDs)

	return chatIDs, nil
}
