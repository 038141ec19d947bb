package scenario

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/udisondev/gridnav/internal/geo"
	"github.com/udisondev/gridnav/internal/pathing"
	"github.com/udisondev/gridnav/internal/terrain"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

// Rect is an x-z rectangle on a layer.
type Rect struct {
	X0, Z0, X1, Z1 float64
	Layer          geo.LayerMask
}

// Circle is an x-z circle on a layer.
type Circle struct {
	X, Z, R float64
	Layer   geo.LayerMask
}

// Request is a path query declared by a script. An empty Grid means the
// service's first grid.
type Request struct {
	ID         string
	Start, End geo.Vec3
	Grid       string
}

// Plan is the geometry and path requests a scenario script declared.
type Plan struct {
	Name     string
	Holes    []Rect
	Boxes    []Rect
	Circles  []Circle
	Requests []Request
}

// Load runs the Lua script at path and returns its plan.
func Load(path string) (*Plan, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return Run(path, string(src))
}

// Run executes a scenario script. Scripts get the base, table, string and
// math libraries plus:
//
//	hole(x0, z0, x1, z1)
//	box(x0, z0, x1, z1 [, layer])
//	circle(x, z, r [, layer])
//	request(id, sx, sz, ex, ez [, grid])
//	request3(id, sx, sy, sz, ex, ey, ez [, grid])
func Run(name, src string) (*Plan, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer vm.Close()

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := vm.CallByParam(lua.P{Fn: vm.NewFunction(lib.open), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			return nil, fmt.Errorf("opening lua %s library: %w", lib.name, err)
		}
	}

	p := &Plan{Name: name}
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	vm.SetGlobal("hole", vm.NewFunction(p.luaHole))
	vm.SetGlobal("box", vm.NewFunction(p.luaBox))
	vm.SetGlobal("circle", vm.NewFunction(p.luaCircle))
	vm.SetGlobal("request", vm.NewFunction(p.luaRequest))
	vm.SetGlobal("request3", vm.NewFunction(p.luaRequest3))

	if err := vm.DoString(src); err != nil {
		return nil, fmt.Errorf("running scenario %s: %w", name, err)
	}
	return p, nil
}

func (p *Plan) luaHole(L *lua.LState) int {
	p.Holes = append(p.Holes, Rect{
		X0: number(L, 1), Z0: number(L, 2), X1: number(L, 3), Z1: number(L, 4),
	})
	return 0
}

func (p *Plan) luaBox(L *lua.LState) int {
	p.Boxes = append(p.Boxes, Rect{
		X0: number(L, 1), Z0: number(L, 2), X1: number(L, 3), Z1: number(L, 4),
		Layer: layer(L, 5),
	})
	return 0
}

func (p *Plan) luaCircle(L *lua.LState) int {
	r := number(L, 3)
	if r <= 0 {
		L.ArgError(3, "radius must be positive")
		return 0
	}
	p.Circles = append(p.Circles, Circle{X: number(L, 1), Z: number(L, 2), R: r, Layer: layer(L, 4)})
	return 0
}

func (p *Plan) luaRequest(L *lua.LState) int {
	p.Requests = append(p.Requests, Request{
		ID:    L.CheckString(1),
		Start: geo.Vec3{number(L, 2), 0, number(L, 3)},
		End:   geo.Vec3{number(L, 4), 0, number(L, 5)},
		Grid:  L.OptString(6, ""),
	})
	return 0
}

func (p *Plan) luaRequest3(L *lua.LState) int {
	p.Requests = append(p.Requests, Request{
		ID:    L.CheckString(1),
		Start: geo.Vec3{number(L, 2), number(L, 3), number(L, 4)},
		End:   geo.Vec3{number(L, 5), number(L, 6), number(L, 7)},
		Grid:  L.OptString(8, ""),
	})
	return 0
}

func number(L *lua.LState, n int) float64 {
	return float64(L.CheckNumber(n))
}

func layer(L *lua.LState, n int) geo.LayerMask {
	m, err := geo.ParseLayer(L.OptString(n, "obstacle"))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return m
}

// Apply adds the plan's holes and obstacles to f.
func (p *Plan) Apply(f *terrain.Field) error {
	if f == nil {
		return fmt.Errorf("scenario %s: no terrain field", p.Name)
	}
	for _, h := range p.Holes {
		f.AddHole(h.X0, h.Z0, h.X1, h.Z1)
	}
	for _, b := range p.Boxes {
		f.AddBox(b.X0, b.Z0, b.X1, b.Z1, b.Layer)
	}
	for _, c := range p.Circles {
		f.AddCircle(c.X, c.Z, c.R, c.Layer)
	}
	return nil
}

// Submit queues the plan's requests on svc. done receives each result.
// Nothing is queued if a request names an unknown grid.
func (p *Plan) Submit(svc *pathing.Service, done func(Request, geo.Path)) error {
	grids := make([]*geo.Grid, len(p.Requests))
	for i, r := range p.Requests {
		if r.Grid == "" {
			continue
		}
		g, ok := svc.GridByName(r.Grid)
		if !ok {
			return fmt.Errorf("scenario %s: request %q: unknown grid %q", p.Name, r.ID, r.Grid)
		}
		grids[i] = g
	}
	for i, r := range p.Requests {
		svc.RequestPath(r.ID, r.Start, r.End, func(path geo.Path) {
			if done != nil {
				done(r, path)
			}
		}, grids[i])
	}
	return nil
}
