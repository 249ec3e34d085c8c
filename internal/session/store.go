// Package session holds the live authenticated publishing handle for the
// process together with the account name it belongs to.
package session

import (
	"context"
	"sync"
)

// Handle is an authenticated client able to publish to the target account.
type Handle interface {
	PublishVideo(ctx context.Context, video, cover []byte, caption string) (string, error)
}

// Store is a single slot holding at most one handle and its username.
// Readers observe writes immediately; the last writer wins.
type Store struct {
	mu       sync.RWMutex
	handle   Handle
	username string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current handle or nil.
func (s *Store) Get() Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle
}

// Set replaces the handle, leaving the username untouched.
func (s *Store) Set(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = h
}

// Username returns the connected account name, empty when none.
func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// SetUsername replaces the username, leaving the handle untouched.
func (s *Store) SetUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

// Replace swaps handle and username together.
func (s *Store) Replace(h Handle, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = h
	s.username = username
}

// Clear drops both handle and username.
func (s *Store) Clear() {
	s.Replace(nil, "")
}

// Snapshot returns handle and username read under one lock.
func (s *Store) Snapshot() (Handle, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle, s.username
}
