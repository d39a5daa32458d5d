package client

import (
	"context"
	"sync"
	"time"
)

// DefaultBookmarkTTL bounds how long an abandoned redirect bookmark may
// linger before the store drops it. A user who never returns from the
// authorization server would otherwise leak one entry per attempt.
const DefaultBookmarkTTL = 10 * time.Minute

// Store is the durable, request-spanning state the flows depend on. Two key
// families exist: one token per client identity and one bookmark per state
// value. Values are inert data.
//
// Implementations must provide at least last-writer-wins semantics per key;
// no locking across keys is required. Concurrent acquisitions for the same
// identity may each store a token and each token remains valid, which OAuth2
// servers tolerate. Absent entries are reported as (nil, nil).
type Store interface {
	Token(ctx context.Context, id Identity) (*Token, error)
	SaveToken(ctx context.Context, id Identity, tok *Token) error
	DeleteToken(ctx context.Context, id Identity) error

	Bookmark(ctx context.Context, state string) (*Bookmark, error)
	SaveBookmark(ctx context.Context, bm *Bookmark) error
	DeleteBookmark(ctx context.Context, state string) error
}

// MemoryStore is a mutex-guarded in-process Store. It suits tests and
// single-process servers; state does not survive a restart. A background
// loop expires abandoned bookmarks after DefaultBookmarkTTL.
type MemoryStore struct {
	mu        sync.RWMutex
	tokens    map[Identity]*Token
	bookmarks map[string]*Bookmark

	bookmarkTTL time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its cleanup loop.
// Call Stop when the store is no longer needed.
func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		tokens:      make(map[Identity]*Token),
		bookmarks:   make(map[string]*Bookmark),
		bookmarkTTL: DefaultBookmarkTTL,
		stopCleanup: make(chan struct{}),
	}

	go ms.cleanupLoop()

	return ms
}

// Token returns the stored token for id, or (nil, nil) when absent.
func (ms *MemoryStore) Token(_ context.Context, id Identity) (*Token, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	tok, ok := ms.tokens[id]
	if !ok {
		return nil, nil
	}
	copied := *tok
	return &copied, nil
}

// SaveToken replaces any stored token for id.
func (ms *MemoryStore) SaveToken(_ context.Context, id Identity, tok *Token) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	copied := *tok
	ms.tokens[id] = &copied
	return nil
}

// DeleteToken removes the token for id, if any.
func (ms *MemoryStore) DeleteToken(_ context.Context, id Identity) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.tokens, id)
	return nil
}

// Bookmark returns the bookmark for state, or (nil, nil) when absent or
// older than the bookmark TTL.
func (ms *MemoryStore) Bookmark(_ context.Context, state string) (*Bookmark, error) {
	ms.mu.RLock()
	bm, ok := ms.bookmarks[state]
	ms.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Since(bm.CreatedAt) > ms.bookmarkTTL {
		ms.mu.Lock()
		delete(ms.bookmarks, state)
		ms.mu.Unlock()
		return nil, nil
	}

	copied := *bm
	return &copied, nil
}

// SaveBookmark stores bm keyed by its state.
func (ms *MemoryStore) SaveBookmark(_ context.Context, bm *Bookmark) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	copied := *bm
	ms.bookmarks[bm.State] = &copied
	return nil
}

// DeleteBookmark removes the bookmark for state, if any.
func (ms *MemoryStore) DeleteBookmark(_ context.Context, state string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.bookmarks, state)
	return nil
}

// Stop ends the background cleanup loop.
func (ms *MemoryStore) Stop() {
	ms.stopOnce.Do(func() {
		close(ms.stopCleanup)
	})
}

func (ms *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.cleanup()
		case <-ms.stopCleanup:
			return
		}
	}
}

// cleanup drops bookmarks past their TTL. Tokens are kept: an expired
// access token may still carry the refresh token needed to renew it.
func (ms *MemoryStore) cleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for state, bm := range ms.bookmarks {
		if time.Since(bm.CreatedAt) > ms.bookmarkTTL {
			delete(ms.bookmarks, state)
		}
	}
}
