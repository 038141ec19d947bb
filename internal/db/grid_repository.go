package db

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/blake2b"

	"github.com/udisondev/gridnav/internal/geo"
)

// ErrDigestMismatch is returned when a stored snapshot fails its checksum.
var ErrDigestMismatch = errors.New("db: grid snapshot digest mismatch")

// GridRepository stores scanned grids so they can be restored without a rescan.
type GridRepository struct {
	pool *pgxpool.Pool
}

// NewGridRepository creates a repository over pool.
func NewGridRepository(pool *pgxpool.Pool) *GridRepository {
	return &GridRepository{pool: pool}
}

// Save upserts the snapshot under name.
func (r *GridRepository) Save(ctx context.Context, name string, s *geo.Snapshot) error {
	if s == nil {
		return fmt.Errorf("saving grid %q: nil snapshot", name)
	}
	walkable := packWalkable(s.Walkable)
	positions := packPositions(s.Positions)
	digest := snapshotDigest(s, walkable, positions)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO grid_snapshots (name, topology, width, height, faces, node_radius, walkable, positions, digest, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		 ON CONFLICT (name) DO UPDATE SET
		   topology = EXCLUDED.topology,
		   width = EXCLUDED.width,
		   height = EXCLUDED.height,
		   faces = EXCLUDED.faces,
		   node_radius = EXCLUDED.node_radius,
		   walkable = EXCLUDED.walkable,
		   positions = EXCLUDED.positions,
		   digest = EXCLUDED.digest,
		   updated_at = now()`,
		name, int16(s.Topology), s.Width, s.Height, s.Faces, s.NodeRadius, walkable, positions, digest[:],
	)
	if err != nil {
		return fmt.Errorf("saving grid %q: %w", name, err)
	}
	return nil
}

// Load returns the snapshot stored under name.
// Returns nil, nil if there is none.
func (r *GridRepository) Load(ctx context.Context, name string) (*geo.Snapshot, error) {
	var (
		topology                int16
		width, height, faces    int
		nodeRadius              float64
		walkable, positions, dg []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT topology, width, height, faces, node_radius, walkable, positions, digest
		 FROM grid_snapshots WHERE name = $1`, name,
	).Scan(&topology, &width, &height, &faces, &nodeRadius, &walkable, &positions, &dg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying grid %q: %w", name, err)
	}

	n := width * height * faces
	if n <= 0 || len(positions) != n*24 || len(walkable) != (n+7)/8 {
		return nil, fmt.Errorf("loading grid %q: %d nodes, %d position bytes: %w", name, n, len(positions), ErrDigestMismatch)
	}
	s := &geo.Snapshot{
		Topology:   geo.Topology(topology),
		Width:      width,
		Height:     height,
		Faces:      faces,
		NodeRadius: nodeRadius,
		Walkable:   unpackWalkable(walkable, n),
		Positions:  unpackPositions(positions, n),
	}
	want := snapshotDigest(s, walkable, positions)
	if !bytes.Equal(want[:], dg) {
		return nil, fmt.Errorf("loading grid %q: %w", name, ErrDigestMismatch)
	}
	return s, nil
}

// Delete removes the snapshot stored under name. Deleting a missing name is not an error.
func (r *GridRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM grid_snapshots WHERE name = $1`, name); err != nil {
		return fmt.Errorf("deleting grid %q: %w", name, err)
	}
	return nil
}

// Names lists stored grids in name order.
func (r *GridRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM grid_snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query grid names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect grid names: %w", err)
	}
	return names, nil
}

func snapshotDigest(s *geo.Snapshot, walkable, positions []byte) [blake2b.Size256]byte {
	var header [41]byte
	header[0] = byte(s.Topology)
	binary.LittleEndian.PutUint64(header[1:], uint64(s.Width))
	binary.LittleEndian.PutUint64(header[9:], uint64(s.Height))
	binary.LittleEndian.PutUint64(header[17:], uint64(s.Faces))
	binary.LittleEndian.PutUint64(header[25:], math.Float64bits(s.NodeRadius))
	binary.LittleEndian.PutUint64(header[33:], uint64(len(s.Walkable)))

	buf := make([]byte, 0, len(header)+len(walkable)+len(positions))
	buf = append(buf, header[:]...)
	buf = append(buf, walkable...)
	buf = append(buf, positions...)
	return blake2b.Sum256(buf)
}

func packWalkable(w []bool) []byte {
	out := make([]byte, (len(w)+7)/8)
	for i, ok := range w {
		if ok {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

func unpackWalkable(b []byte, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = b[i/8]&(1<<(i%8)) != 0
	}
	return out
}

func packPositions(ps []geo.Vec3) []byte {
	out := make([]byte, 0, len(ps)*24)
	for _, p := range ps {
		for k := 0; k < 3; k++ {
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(p[k]))
		}
	}
	return out
}

func unpackPositions(b []byte, n int) []geo.Vec3 {
	out := make([]geo.Vec3, n)
	for i := range out {
		for k := 0; k < 3; k++ {
			off := (i*3 + k) * 8
			out[i][k] = math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
		}
	}
	return out
}
