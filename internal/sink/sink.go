// Package sink defines where correlated sightings are persisted.
package sink

import (
	"context"

	"firestige.xyz/wardriver/internal/core"
)

// Sink receives drained batches in capture order.
type Sink interface {
	Name() string
	Write(ctx context.Context, events []core.CapturedEvent) error
	Close() error
}
