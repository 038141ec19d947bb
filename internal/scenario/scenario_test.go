package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/gridnav/internal/geo"
	"github.com/udisondev/gridnav/internal/pathing"
	"github.com/udisondev/gridnav/internal/testutil"
)

const demo = `
assert(API_VERSION == 1)

hole(1.5, 1.5, 2.5, 2.5)
box(9.5, -1, 10.5, 12)
circle(4, 14, 1.5, "water")

for i = 0, 2 do
  request("unit-" .. i, 0, 0, 18, 18)
end
request3("flyer", 0, 1, 0, 2, 1, 2, "world")
`

func TestRun(t *testing.T) {
	p, err := Run("demo", demo)
	require.NoError(t, err)

	assert.Equal(t, "demo", p.Name)
	assert.Equal(t, []Rect{{X0: 1.5, Z0: 1.5, X1: 2.5, Z1: 2.5}}, p.Holes)
	assert.Equal(t, []Rect{{X0: 9.5, Z0: -1, X1: 10.5, Z1: 12, Layer: geo.LayerObstacle}}, p.Boxes)
	assert.Equal(t, []Circle{{X: 4, Z: 14, R: 1.5, Layer: geo.LayerWater}}, p.Circles)

	require.Len(t, p.Requests, 4)
	assert.Equal(t, "unit-2", p.Requests[2].ID)
	assert.Equal(t, geo.Vec3{18, 0, 18}, p.Requests[0].End)
	assert.Equal(t, Request{ID: "flyer", Start: geo.Vec3{0, 1, 0}, End: geo.Vec3{2, 1, 2}, Grid: "world"}, p.Requests[3])
}

func TestRunRejectsBadScripts(t *testing.T) {
	cases := map[string]string{
		"syntax":        "box(",
		"missing arg":   "box(1, 2, 3)",
		"bad layer":     `circle(1, 1, 1, "lava")`,
		"zero radius":   "circle(1, 1, 0)",
		"no id":         "request(nil, 0, 0, 1, 1)",
		"runtime error": `error("boom")`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Run(name, src)
			assert.Error(t, err)
		})
	}
}

func TestRunSandbox(t *testing.T) {
	_, err := Run("io", `io.write("x")`)
	assert.Error(t, err, "io library is not opened")

	_, err = Run("os", `os.exit(1)`)
	assert.Error(t, err, "os library is not opened")

	p, err := Run("libs", `local t = {} table.insert(t, math.floor(2.5)) hole(t[1], 0, string.len("abc"), 1)`)
	require.NoError(t, err)
	assert.Equal(t, []Rect{{X0: 2, Z0: 0, X1: 3, Z1: 1}}, p.Holes)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.lua")
	require.NoError(t, os.WriteFile(path, []byte(demo), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, p.Name)
	assert.Len(t, p.Requests, 4)

	_, err = Load(filepath.Join(t.TempDir(), "absent.lua"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	p, err := Run("demo", demo)
	require.NoError(t, err)

	f := testutil.FlatField(10, 10)
	require.NoError(t, p.Apply(f))
	assert.Equal(t, 2, f.Obstacles())

	_, ok := f.Height(2, 2)
	assert.False(t, ok, "hole")
	_, ok = f.Height(4, 4)
	assert.True(t, ok)
	assert.True(t, f.CheckSphere(geo.Vec3{10, 0, 5}, 0.1, geo.LayerObstacle))
	assert.True(t, f.CheckSphere(geo.Vec3{4, 0, 14}, 0.1, geo.LayerWater))
	assert.False(t, f.CheckSphere(geo.Vec3{4, 0, 14}, 0.1, geo.LayerObstacle))

	assert.Error(t, p.Apply(nil))
}

func TestSubmit(t *testing.T) {
	g := testutil.ScannedGrid(t, "world", 10, 10)
	svc, err := pathing.New([]*geo.Grid{g}, pathing.Options{})
	require.NoError(t, err)

	p, err := Run("demo", `
request("a", 0, 0, 18, 18)
request("b", 0, 0, 2, 2, "world")
`)
	require.NoError(t, err)

	var got []string
	require.NoError(t, p.Submit(svc, func(r Request, path geo.Path) {
		assert.True(t, path.Success, r.ID)
		got = append(got, r.ID)
	}))
	assert.Equal(t, 2, svc.QueueLength())

	testutil.TickUntil(t, svc, func() bool { return len(got) == 2 }, 10)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSubmitUnknownGrid(t *testing.T) {
	svc, err := pathing.New([]*geo.Grid{testutil.ScannedGrid(t, "world", 4, 4)}, pathing.Options{})
	require.NoError(t, err)

	p, err := Run("bad", `
request("a", 0, 0, 2, 2)
request("b", 0, 0, 2, 2, "moon")
`)
	require.NoError(t, err)
	assert.Error(t, p.Submit(svc, nil))
	assert.Zero(t, svc.QueueLength(), "nothing queued")
}
