// Package capture turns raw frames from a capture source into sightings.
package capture

import (
	"time"

	"firestige.xyz/wardriver/internal/core"
)

// ManagementFilter selects beacons and probe requests.
const ManagementFilter = "type mgt subtype probe-req or subtype beacon"

// Source delivers raw frames. ReadFrame returns core.ErrReadTimeout when no
// frame arrived within the source read timeout, io.EOF when a recording is
// exhausted and core.ErrSourceClosed after Close. Returned data must not be
// reused by the source after the next call.
type Source interface {
	ReadFrame() (data []byte, ts time.Time, err error)
	Close() error
}

// LocationReader yields the current GPS fix snapshot.
type LocationReader interface {
	Load() core.Fix
}
