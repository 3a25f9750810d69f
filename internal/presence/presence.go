// Package presence tracks which users are currently online across any number
// of simultaneous connections, with heartbeat-based liveness and automatic
// inactivity decay.
//
// The package is split into a Tracker (the per-user state machine over
// connect/disconnect/heartbeat/sweep) and a Store (the keyed record map the
// tracker mutates). Two stores ship: an in-memory map for single-instance
// deployments (the default, no network I/O on the read path) and a Redis
// store for horizontally scaled setups.
package presence

import (
	"context"
	"time"
)

// Record is the per-user presence state. A user is online while they hold at
// least one live connection or a heartbeat landed within the inactivity
// threshold. Records are created lazily on first connect/heartbeat and are
// never deleted.
type Record struct {
	UserID       string          `json:"user_id"`
	Online       bool            `json:"online"`
	LastActivity time.Time       `json:"last_activity"`
	LastSeen     time.Time       `json:"last_seen"`
	Connections  map[string]bool `json:"connections,omitempty"`
}

// clone returns a deep copy so callers can hand records across goroutines
// without sharing the connection map.
func (r *Record) clone() *Record {
	cp := *r
	cp.Connections = make(map[string]bool, len(r.Connections))
	for id := range r.Connections {
		cp.Connections[id] = true
	}
	return &cp
}

// Status is the read-side view of a user's presence.
type Status struct {
	UserID   string    `json:"user_id"`
	Online   bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// Store is the keyed presence map the Tracker mutates. Implementations only
// need simple load/save semantics: the Tracker serializes all writers for a
// given user, so a Store never sees concurrent writes to the same record.
type Store interface {
	// Load returns the record for userID, or (nil, nil) when none exists yet.
	Load(ctx context.Context, userID string) (*Record, error)
	// Save upserts the record keyed by its UserID.
	Save(ctx context.Context, rec *Record) error
	// OnlineIDs lists the ids of users currently marked online.
	OnlineIDs(ctx context.Context) ([]string, error)
}
