package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/graphreveal/pkg/cache"
)

// CacheStore keeps sessions as cache entries and lists them through a
// cache index. Entry expiry follows the session's ExpiresAt.
type CacheStore struct {
	cache cache.IndexedCache
	keys  cache.Keyer
}

// NewCacheStore stores sessions in c. A nil keyer means [cache.DefaultKeyer].
func NewCacheStore(c cache.IndexedCache, keys cache.Keyer) *CacheStore {
	if keys == nil {
		keys = cache.NewDefaultKeyer()
	}
	return &CacheStore{cache: cache.Instrument(c), keys: keys}
}

func (s *CacheStore) Get(ctx context.Context, id string) (*Session, error) {
	data, hit, err := s.cache.Get(ctx, s.keys.SessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if !hit {
		return nil, notFound(id)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", id, err)
	}
	if sess.IsExpired() {
		return nil, notFound(id)
	}
	return &sess, nil
}

func (s *CacheStore) Set(ctx context.Context, sess *Session) error {
	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		if ttl = sess.TTL(); ttl <= 0 {
			return s.Delete(ctx, sess.ID)
		}
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.cache.Set(ctx, s.keys.SessionKey(sess.ID), data, ttl); err != nil {
		return fmt.Errorf("set session %s: %w", sess.ID, err)
	}
	return s.cache.AddMember(ctx, s.keys.SessionIndex(), sess.ID)
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, s.keys.SessionKey(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return s.cache.RemoveMember(ctx, s.keys.SessionIndex(), id)
}

// List drops index members whose entry expired from the cache.
func (s *CacheStore) List(ctx context.Context) ([]*Session, error) {
	ids, err := s.cache.Members(ctx, s.keys.SessionIndex())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []*Session
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if IsNotFound(err) {
			_ = s.cache.RemoveMember(ctx, s.keys.SessionIndex(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	sortByUpdate(out)
	return out, nil
}

// Cleanup removes index members and entries of expired sessions.
func (s *CacheStore) Cleanup(ctx context.Context) (int, error) {
	ids, err := s.cache.Members(ctx, s.keys.SessionIndex())
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	removed := 0
	for _, id := range ids {
		if _, err := s.Get(ctx, id); IsNotFound(err) {
			if err := s.Delete(ctx, id); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// Close closes the underlying cache.
func (s *CacheStore) Close() error { return s.cache.Close() }

var _ Store = (*CacheStore)(nil)
