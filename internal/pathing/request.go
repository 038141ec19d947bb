package pathing

import (
	"time"

	"github.com/udisondev/gridnav/internal/geo"
)

// Request is a queued path query. ID identifies the requester: a newer
// request with the same ID replaces a queued one.
type Request struct {
	ID         string
	Start, End geo.Vec3
	Grid       *geo.Grid
	Done       func(geo.Path)

	enqueued time.Time
}

// Waited returns how long the request has been queued.
func (r *Request) Waited() time.Duration {
	if r.enqueued.IsZero() {
		return 0
	}
	return time.Since(r.enqueued)
}
