package core

import "context"

// Pinger is any storage backend that can report its liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}
