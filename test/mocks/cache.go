// Package mocks provides in-memory test doubles for external collaborators.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCache is an in-memory implementation of the cache.Cache interface
// used for testing without a real Redis instance. Expirations are
// honored against an injectable clock so debounce windows can be tested
// without sleeping.
type MockCache struct {
	mu     sync.RWMutex
	data   map[string]string
	expiry map[string]time.Time
	Now    func() time.Time
	GetErr error
	SetErr error
}

// NewMockCache creates a new mock cache instance.
func NewMockCache() *MockCache {
	return &MockCache{
		data:   make(map[string]string),
		expiry: make(map[string]time.Time),
		Now:    time.Now,
	}
}

func (m *MockCache) expired(key string) bool {
	exp, ok := m.expiry[key]
	return ok && m.Now().After(exp)
}

// Get retrieves a value. Missing or expired keys return an empty string.
func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return "", m.GetErr
	}
	if m.expired(key) {
		return "", nil
	}
	return m.data[key], nil
}

// Set stores a value with an expiration.
func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	m.store(key, value, expiration)
	return nil
}

// SetNX sets a key only if it is absent or expired.
func (m *MockCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return false, m.SetErr
	}
	if _, exists := m.data[key]; exists && !m.expired(key) {
		return false, nil
	}
	m.store(key, value, expiration)
	return true, nil
}

func (m *MockCache) store(key string, value interface{}, expiration time.Duration) {
	m.data[key] = fmt.Sprintf("%v", value)
	if expiration > 0 {
		m.expiry[key] = m.Now().Add(expiration)
	} else {
		delete(m.expiry, key)
	}
}

// Del deletes keys.
func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.data, key)
		delete(m.expiry, key)
	}
	return nil
}

// Exists counts how many of the given keys exist and are unexpired.
func (m *MockCache) Exists(ctx context.Context, keys ...string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, key := range keys {
		if _, exists := m.data[key]; exists && !m.expired(key) {
			count++
		}
	}
	return count, nil
}

// Health always succeeds for the mock.
func (m *MockCache) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op for the mock.
func (m *MockCache) Close() error {
	return nil
}

// Clear resets the mock cache.
func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	m.expiry = make(map[string]time.Time)
}
