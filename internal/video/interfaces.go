package video

import (
	"context"
	"time"
)

// SessionClient is the boundary to the platform-specific transport and
// login mechanics. Given a session and an item id it returns one raw
// item record or fails; retry policy, if any, lives behind it.
type SessionClient interface {
	IsAlive(ctx context.Context, session Session) bool
	Login(ctx context.Context, mode LoginMode, cookie string) (Session, error)
	FetchItem(ctx context.Context, session Session, id ItemID) (RawItem, error)
}

// Sink durably persists one normalized record. The category scopes the
// destination (contents vs comments) and is threaded explicitly so
// sinks stay testable in isolation.
type Sink interface {
	Store(ctx context.Context, category string, record Record) error
}

// Lister is implemented by sinks that can enumerate stored records.
type Lister interface {
	List(ctx context.Context) ([]Record, error)
}

// ProxyProvider supplies candidate egress identities.
type ProxyProvider interface {
	List(ctx context.Context, count int) ([]ProxyIdentity, error)
}

// ProxyProber checks whether a candidate identity is usable.
type ProxyProber interface {
	Validate(ctx context.Context, candidate ProxyIdentity) bool
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes stored-record events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// SystemClock implements Clock with the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
