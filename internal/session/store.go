package session

import "context"

// Store is the persistence contract for call sessions.
//
// Get returns (fresh session, false, nil) on a miss rather than an error;
// a webhook turn must never fail because the session was not found.
// Save refreshes the TTL on every write.
type Store interface {
	Get(ctx context.Context, callID string) (CallSession, bool, error)
	Save(ctx context.Context, s CallSession) error
	Reset(ctx context.Context, callID string) error
}
