package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/gridnav/internal/geo"
	"github.com/udisondev/gridnav/internal/testutil"
)

func TestPackWalkable(t *testing.T) {
	w := []bool{true, false, false, true, true, false, false, false, true, true}
	packed := packWalkable(w)
	require.Len(t, packed, 2)
	assert.Equal(t, byte(0b00011001), packed[0])
	assert.Equal(t, byte(0b00000011), packed[1])
	assert.Equal(t, w, unpackWalkable(packed, len(w)))
}

func TestPackPositions(t *testing.T) {
	ps := []geo.Vec3{{1, 2, 3}, {-0.5, 0, 1e9}}
	packed := packPositions(ps)
	require.Len(t, packed, 48)
	assert.Equal(t, ps, unpackPositions(packed, 2))
}

func TestSnapshotDigestCoversHeader(t *testing.T) {
	s := testutil.ScannedGrid(t, "digest", 4, 4).Snapshot()
	require.NotNil(t, s)
	w, p := packWalkable(s.Walkable), packPositions(s.Positions)
	a := snapshotDigest(s, w, p)

	changed := *s
	changed.NodeRadius = 2
	assert.NotEqual(t, a, snapshotDigest(&changed, w, p))
}

func TestGridRepository(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := NewGridRepository(pool)
	ctx := context.Background()

	missing, err := repo.Load(ctx, "world")
	require.NoError(t, err)
	assert.Nil(t, missing)

	src := testutil.ScannedGrid(t, "world", 6, 5, testutil.Wall{X: 3, Y0: 0, Y1: 3})
	snap := src.Snapshot()
	require.NotNil(t, snap)
	require.NoError(t, repo.Save(ctx, "world", snap))

	got, err := repo.Load(ctx, "world")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap, got)

	dst := testutil.NewGrid(t, "world", 6, 5)
	require.NoError(t, dst.Restore(got))
	assert.True(t, dst.Scanned())
	assert.False(t, dst.NodeAt(3, 1).Walkable)
	assert.True(t, dst.NodeAt(1, 1).Walkable)

	t.Run("upsert", func(t *testing.T) {
		other := testutil.ScannedGrid(t, "world", 6, 5).Snapshot()
		require.NoError(t, repo.Save(ctx, "world", other))
		got, err := repo.Load(ctx, "world")
		require.NoError(t, err)
		assert.Equal(t, other.Walkable, got.Walkable)
	})

	t.Run("tampered", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "tampered", snap))
		_, err := pool.Exec(ctx, `UPDATE grid_snapshots SET node_radius = 3 WHERE name = 'tampered'`)
		require.NoError(t, err)
		_, err = repo.Load(ctx, "tampered")
		assert.ErrorIs(t, err, ErrDigestMismatch)
	})

	names, err := repo.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tampered", "world"}, names)

	require.NoError(t, repo.Delete(ctx, "world"))
	require.NoError(t, repo.Delete(ctx, "world"))
	gone, err := repo.Load(ctx, "world")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRunMigrations(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	cfg := pool.Config().ConnConfig
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	version, err := RunMigrations(context.Background(), dsn)
	require.NoError(t, err, "migrations are idempotent")
	assert.Equal(t, int64(1), version)
}
