// Package redisstore provides a Redis-backed client.Store, so tokens and
// redirect bookmarks survive process restarts and can be shared between the
// instances serving one user session.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/naotama2002/oauth2-relying-go/client"
)

// Config describes the Redis connection and key layout.
type Config struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Namespace separates the key space of one session from another;
	// typically the opaque session identifier of the relying application.
	Namespace string `mapstructure:"namespace"`

	// BookmarkTTL bounds the lifetime of abandoned redirect bookmarks.
	// Defaults to client.DefaultBookmarkTTL.
	BookmarkTTL time.Duration `mapstructure:"bookmark_ttl"`
}

// Store implements client.Store on Redis. Keys follow the schema
// oauth2:{namespace}:token:{identity} and oauth2:{namespace}:redirect:{state}.
// Bookmark keys carry their TTL natively; token keys persist until
// overwritten, since an expired access token may still hold the refresh
// token needed to renew it.
type Store struct {
	rdb         redis.UniversalClient
	ns          string
	bookmarkTTL time.Duration
	log         *zap.Logger
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return FromClient(rdb, cfg.Namespace, cfg.BookmarkTTL, log), nil
}

// FromClient wraps an existing Redis client; useful when the application
// already maintains a connection pool. A zero bookmarkTTL selects the
// default.
func FromClient(rdb redis.UniversalClient, namespace string, bookmarkTTL time.Duration, log *zap.Logger) *Store {
	if bookmarkTTL <= 0 {
		bookmarkTTL = client.DefaultBookmarkTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		rdb:         rdb,
		ns:          namespace,
		bookmarkTTL: bookmarkTTL,
		log:         log,
	}
}

// WithNamespace returns a view of the store scoped to another namespace,
// sharing the underlying connection.
func (s *Store) WithNamespace(namespace string) *Store {
	scoped := *s
	scoped.ns = namespace
	return &scoped
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) tokenKey(id client.Identity) string {
	return fmt.Sprintf("oauth2:%s:token:%s", s.ns, id)
}

func (s *Store) bookmarkKey(state string) string {
	return fmt.Sprintf("oauth2:%s:redirect:%s", s.ns, state)
}

// Token returns the stored token for id, or (nil, nil) when absent.
func (s *Store) Token(ctx context.Context, id client.Identity) (*client.Token, error) {
	raw, err := s.rdb.Get(ctx, s.tokenKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	var tok client.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

// SaveToken replaces the stored token for id.
func (s *Store) SaveToken(ctx context.Context, id client.Identity, tok *client.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := s.rdb.Set(ctx, s.tokenKey(id), raw, 0).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	s.log.Debug("stored token",
		zap.String("identity", string(id)),
		zap.Time("expires_at", tok.ExpiresAt))
	return nil
}

// DeleteToken removes the token for id, if any.
func (s *Store) DeleteToken(ctx context.Context, id client.Identity) error {
	if err := s.rdb.Del(ctx, s.tokenKey(id)).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Bookmark returns the bookmark for state, or (nil, nil) when absent or
// already expired by Redis.
func (s *Store) Bookmark(ctx context.Context, state string) (*client.Bookmark, error) {
	raw, err := s.rdb.Get(ctx, s.bookmarkKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bookmark: %w", err)
	}

	var bm client.Bookmark
	if err := json.Unmarshal(raw, &bm); err != nil {
		return nil, fmt.Errorf("decode bookmark: %w", err)
	}
	return &bm, nil
}

// SaveBookmark stores bm keyed by its state, with the bookmark TTL.
func (s *Store) SaveBookmark(ctx context.Context, bm *client.Bookmark) error {
	raw, err := json.Marshal(bm)
	if err != nil {
		return fmt.Errorf("encode bookmark: %w", err)
	}
	if err := s.rdb.Set(ctx, s.bookmarkKey(bm.State), raw, s.bookmarkTTL).Err(); err != nil {
		return fmt.Errorf("save bookmark: %w", err)
	}
	return nil
}

// DeleteBookmark removes the bookmark for state, if any.
func (s *Store) DeleteBookmark(ctx context.Context, state string) error {
	if err := s.rdb.Del(ctx, s.bookmarkKey(state)).Err(); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}
