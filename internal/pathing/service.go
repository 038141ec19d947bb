package pathing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/gridnav/internal/geo"
)

// ErrNoGrids is returned by New when the service has nothing to search.
var ErrNoGrids = errors.New("pathing: no grids")

// Default scheduling parameters.
const (
	DefaultTickInterval = 20 * time.Millisecond
)

// Options tune the service scheduler.
type Options struct {
	TickInterval      time.Duration
	ExpansionsPerTick int // search budget per tick
	RowsPerTick       int // scan budget per grid per tick
	MaxExpansions     int // per-search cap, 0 means the grid's node count
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.ExpansionsPerTick <= 0 {
		o.ExpansionsPerTick = geo.DefaultExpansionsPerStep
	}
	if o.RowsPerTick <= 0 {
		o.RowsPerTick = geo.DefaultScanRowsPerStep
	}
	return o
}

// Stats are cumulative service counters.
type Stats struct {
	Delivered int64
	Failed    int64
	Dropped   int64
	Scans     int64
}

// Service serves path requests against a set of grids, one search at a time,
// in request order. All work happens inside Tick, which is driven by Run or
// directly by the caller.
type Service struct {
	grids []*geo.Grid
	opts  Options

	mu         sync.Mutex
	queue      *Queue
	current    *Request
	search     *geo.Search
	scans      map[*geo.Grid]*geo.ScanTask
	scanOrder  []*geo.Grid
	onScanDone []func(*geo.Grid)
	// emptyScans maps a grid to the generation of a finished scan that left
	// it without nodes.
	emptyScans map[*geo.Grid]uint64

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
	scanned   atomic.Int64
}

// New creates a service over grids. Unscanned grids with ScanOnLoad set begin
// scanning immediately; the scans progress with Tick. Grids restored from a
// snapshot are used as they are.
func New(grids []*geo.Grid, opts Options) (*Service, error) {
	if len(grids) == 0 {
		return nil, ErrNoGrids
	}
	for i, g := range grids {
		if g == nil {
			return nil, fmt.Errorf("pathing: grid %d is nil", i)
		}
	}
	s := &Service{
		grids: slices.Clone(grids),
		opts:  opts.withDefaults(),
		queue: NewQueue(),
		scans:      make(map[*geo.Grid]*geo.ScanTask),
		emptyScans: make(map[*geo.Grid]uint64),
	}
	for _, g := range s.grids {
		if g.Settings().ScanOnLoad && !g.Scanned() {
			s.ScanGrid(g)
		}
	}
	return s, nil
}

// Grid returns the i-th grid, or nil if out of range.
func (s *Service) Grid(i int) *geo.Grid {
	if i < 0 || i >= len(s.grids) {
		return nil
	}
	return s.grids[i]
}

// GridByName returns the grid with the given name.
func (s *Service) GridByName(name string) (*geo.Grid, bool) {
	for _, g := range s.grids {
		if g.Name() == name {
			return g, true
		}
	}
	return nil, false
}

// Grids returns all grids in construction order.
func (s *Service) Grids() []*geo.Grid {
	return slices.Clone(s.grids)
}

// Options returns the effective scheduling options.
func (s *Service) Options() Options {
	return s.opts
}

// OnScanDone registers fn to run after each completed scan. Hooks run on the
// ticking goroutine outside the service lock.
func (s *Service) OnScanDone(fn func(*geo.Grid)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onScanDone = append(s.onScanDone, fn)
}

// RequestPath queues a search from start to end on grid (nil means the first
// grid). done receives the result exactly once from a later Tick. An empty id
// is replaced by a fresh one. Returns the id the request was queued under.
func (s *Service) RequestPath(id string, start, end geo.Vec3, done func(geo.Path), grid *geo.Grid) string {
	if id == "" {
		id = uuid.NewString()
	}
	if grid == nil {
		grid = s.grids[0]
	}
	r := &Request{ID: id, Start: start, End: end, Grid: grid, Done: done}

	s.mu.Lock()
	stale := s.queue.Enqueue(r)
	queued := s.queue.Len()
	s.mu.Unlock()

	if stale != nil {
		s.dropped.Add(1)
	}
	if IsDebugEnabled() {
		slog.Debug("path requested",
			"id", id,
			"grid", grid.Name(),
			"replaced", stale != nil,
			"queued", queued)
	}
	return id
}

// Submit is RequestPath returning a channel that receives the result.
// The channel is never written if the request is replaced or cancelled.
func (s *Service) Submit(id string, start, end geo.Vec3, grid *geo.Grid) (string, <-chan geo.Path) {
	ch := make(chan geo.Path, 1)
	id = s.RequestPath(id, start, end, func(p geo.Path) { ch <- p }, grid)
	return id, ch
}

// ScanGrid starts scanning grid (nil means the first grid). Returns false if
// the grid is already scanning.
func (s *Service) ScanGrid(grid *geo.Grid) bool {
	if grid == nil {
		grid = s.grids[0]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginScanLocked(grid)
}

func (s *Service) beginScanLocked(grid *geo.Grid) bool {
	if _, ok := s.scans[grid]; ok {
		return false
	}
	task, ok := grid.BeginScan()
	if !ok {
		return false
	}
	s.scans[grid] = task
	s.scanOrder = append(s.scanOrder, grid)

	w, h, faces := grid.Size()
	slog.Info("grid scan started", "grid", grid.Name(), "topology", grid.Topology(), "width", w, "height", h, "faces", faces)
	return true
}

// Pending reports whether a request with id is queued or being searched.
func (s *Service) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.ID == id {
		return true
	}
	_, ok := s.queue.Contains(id)
	return ok
}

// QueueLength returns the number of requests waiting behind the current search.
func (s *Service) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Cancel drops the request with id, queued or in flight. Its callback never fires.
func (s *Service) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.ID == id {
		s.current, s.search = nil, nil
		s.dropped.Add(1)
		return true
	}
	if s.queue.Remove(id) != nil {
		s.dropped.Add(1)
		return true
	}
	return false
}

// Stats returns the cumulative counters.
func (s *Service) Stats() Stats {
	return Stats{
		Delivered: s.delivered.Load(),
		Failed:    s.failed.Load(),
		Dropped:   s.dropped.Load(),
		Scans:     s.scanned.Load(),
	}
}

// delivery is a finished search waiting for its callback.
type delivery struct {
	req  *Request
	path geo.Path
}

// Tick performs one scheduling step: every running scan advances by
// RowsPerTick rows and the current search by ExpansionsPerTick expansions.
// At most one result is delivered per tick.
func (s *Service) Tick() {
	var (
		finished []*geo.Grid
		out      *delivery
		hooks    []func(*geo.Grid)
	)

	s.mu.Lock()
	finished = s.advanceScansLocked()
	if s.current == nil {
		s.startNextLocked()
	}
	if s.search != nil && s.search.Advance(s.opts.ExpansionsPerTick) {
		out = &delivery{req: s.current, path: s.search.Result()}
		s.current, s.search = nil, nil
		s.startNextLocked()
	}
	if len(finished) > 0 {
		hooks = slices.Clone(s.onScanDone)
	}
	s.mu.Unlock()

	for _, g := range finished {
		for _, fn := range hooks {
			fn(g)
		}
	}
	if out != nil {
		s.deliver(out)
	}
}

func (s *Service) advanceScansLocked() []*geo.Grid {
	var finished []*geo.Grid
	remaining := s.scanOrder[:0]
	for _, g := range s.scanOrder {
		task := s.scans[g]
		if !task.Advance(s.opts.RowsPerTick) {
			remaining = append(remaining, g)
			continue
		}
		delete(s.scans, g)
		finished = append(finished, g)
		s.scanned.Add(1)

		_, total := task.Progress()
		if !g.Scanned() {
			s.emptyScans[g] = g.Generation()
			slog.Warn("grid scan produced no nodes", "grid", g.Name(), "rows", total, "generation", g.Generation())
			continue
		}
		delete(s.emptyScans, g)
		slog.Info("grid scan completed", "grid", g.Name(), "rows", total, "generation", g.Generation())
	}
	clear(s.scanOrder[len(remaining):])
	s.scanOrder = remaining
	return finished
}

// startNextLocked dequeues the head request if its grid can serve queries.
// A head request on a scanning grid waits; on an unscanned grid it also
// starts the scan. A grid whose last scan left it empty fails the request.
func (s *Service) startNextLocked() {
	head := s.queue.Peek()
	if head == nil {
		return
	}
	g := head.Grid
	if g.Scanning() {
		return
	}
	if !g.Scanned() {
		if gen, ok := s.emptyScans[g]; !ok || gen != g.Generation() {
			s.beginScanLocked(g)
			return
		}
	}
	s.current = s.queue.Dequeue()
	s.search = geo.NewSearch(g, head.Start, head.End, geo.SearchOptions{MaxExpansions: s.opts.MaxExpansions})
}

func (s *Service) deliver(d *delivery) {
	p := d.path
	if p.Success {
		s.delivered.Add(1)
	} else {
		s.failed.Add(1)
	}
	if p.Err != nil {
		slog.Error("path search aborted", "id", d.req.ID, "grid", d.req.Grid.Name(), "error", p.Err)
	} else if IsDebugEnabled() {
		slog.Debug("path delivered",
			"id", d.req.ID,
			"grid", d.req.Grid.Name(),
			"success", p.Success,
			"waypoints", len(p.Waypoints),
			"expanded", p.Expanded,
			"waited", d.req.Waited())
	}
	if d.req.Done != nil {
		d.req.Done(p)
	}
}

// Run ticks the service every TickInterval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	slog.Info("path service started", "grids", len(s.grids), "interval", s.opts.TickInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("path service stopping", "queued", s.QueueLength())
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}
