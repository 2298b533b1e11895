// Package session persists view sessions: the disclosure state a user built
// up over a dataset, so it can be resumed later or shared between surfaces.
//
// A [Session] records which dataset it belongs to, by path and fingerprint,
// and a [graph.Snapshot] of visibility, selection, origins and positions.
// Restoring a session onto a dataset with a different fingerprint still
// works; ids that no longer exist are ignored.
//
// # Backends
//
//   - [FileStore]: one JSON file per session, for the CLI
//   - [CacheStore]: any [cache.IndexedCache], Redis included, for servers
//   - [MongoStore]: a MongoDB collection, for long-lived shared sessions
//
// # Usage
//
//	store, err := session.NewFileStore("")
//	if err != nil {
//	    return err
//	}
//	sess := session.New("ontology.json", io.Fingerprint(ds), eng.Snapshot(), session.DefaultTTL)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err = store.Get(ctx, id)
//	if session.IsNotFound(err) {
//	    // start fresh
//	}
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
	"github.com/matzehuels/graphreveal/pkg/graph"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = rerrors.New(rerrors.ErrCodeSessionNotFound, "session not found")

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return rerrors.Is(err, rerrors.ErrCodeSessionNotFound)
}

// DefaultTTL is how long a session lives without being saved again.
const DefaultTTL = 30 * 24 * time.Hour

// Session is a persisted view over a dataset.
type Session struct {
	ID          string         `json:"id" bson:"_id"`
	DatasetPath string         `json:"datasetPath" bson:"dataset_path"`
	DatasetHash string         `json:"datasetHash" bson:"dataset_hash"`
	Snapshot    graph.Snapshot `json:"snapshot" bson:"snapshot"`
	CreatedAt   time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" bson:"updated_at"`
	// ExpiresAt is zero for sessions that never expire.
	ExpiresAt time.Time `json:"expiresAt,omitempty" bson:"expires_at,omitempty"`
}

// New creates a session with a fresh id. A ttl of zero or less never expires.
func New(datasetPath, datasetHash string, snap graph.Snapshot, ttl time.Duration) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:          uuid.NewString(),
		DatasetPath: datasetPath,
		DatasetHash: datasetHash,
		Snapshot:    snap,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s
}

// Update replaces the snapshot and extends the expiry by ttl.
func (s *Session) Update(snap graph.Snapshot, ttl time.Duration) {
	s.Snapshot = snap
	s.UpdatedAt = time.Now().UTC()
	if ttl > 0 {
		s.ExpiresAt = s.UpdatedAt.Add(ttl)
	}
}

// IsExpired reports whether the session has an expiry in the past.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// TTL returns the time left before expiry, or zero for sessions that never
// expire. Expired sessions report a negative duration.
func (s *Session) TTL() time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	return time.Until(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get returns the session with id, or an error matching [IsNotFound]
	// if it does not exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set creates or replaces a session.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the live sessions, most recently updated first.
	List(ctx context.Context) ([]*Session, error)

	// Cleanup removes expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)

	Close() error
}

// ResolveID expands a unique id prefix to the full session id, the way
// short commit hashes work. An exact match always wins.
func ResolveID(ctx context.Context, store Store, prefix string) (string, error) {
	sessions, err := store.List(ctx)
	if err != nil {
		return "", err
	}
	var match string
	for _, s := range sessions {
		if s.ID == prefix {
			return s.ID, nil
		}
		if len(prefix) > 0 && len(s.ID) >= len(prefix) && s.ID[:len(prefix)] == prefix {
			if match != "" {
				return "", rerrors.New(rerrors.ErrCodeInvalidInput, "session prefix %q is ambiguous", prefix)
			}
			match = s.ID
		}
	}
	if match == "" {
		return "", notFound(prefix)
	}
	return match, nil
}
