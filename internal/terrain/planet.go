package terrain

import (
	"math"
	"sync"

	"github.com/udisondev/gridnav/internal/geo"
)

// Planet is a spherical ground surface with spherical obstacles resting on it.
type Planet struct {
	centre geo.Vec3
	radius float64

	mu        sync.RWMutex
	obstacles []ball
}

type ball struct {
	centre geo.Vec3
	radius float64
	layer  geo.LayerMask
}

var _ geo.Surface = (*Planet)(nil)

// NewPlanet creates a planet of the given radius around centre.
func NewPlanet(centre geo.Vec3, radius float64) *Planet {
	return &Planet{centre: centre, radius: radius}
}

// Centre returns the planet centre.
func (p *Planet) Centre() geo.Vec3 { return p.centre }

// Radius returns the ground radius.
func (p *Planet) Radius() float64 { return p.radius }

// AddObstacle places an obstacle of radius r on the surface in direction dir
// from the centre.
func (p *Planet) AddObstacle(dir geo.Vec3, r float64, layer geo.LayerMask) {
	if dir.Len() == 0 {
		return
	}
	if layer == 0 {
		layer = geo.LayerObstacle
	}
	c := p.centre.Add(dir.Normalize().Mul(p.radius))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.obstacles = append(p.obstacles, ball{centre: c, radius: r, layer: layer})
}

// Obstacles returns the number of obstacles.
func (p *Planet) Obstacles() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.obstacles)
}

// Raycast intersects the segment from-to with the ground sphere.
func (p *Planet) Raycast(from, to geo.Vec3, mask geo.LayerMask) (geo.Hit, bool) {
	if mask&geo.LayerGround == 0 {
		return geo.Hit{}, false
	}
	t, ok := segmentSphere(from, to, p.centre, p.radius)
	if !ok {
		return geo.Hit{}, false
	}
	pt := from.Add(to.Sub(from).Mul(t))
	normal := pt.Sub(p.centre)
	if normal.Len() == 0 {
		normal = geo.Up
	}
	return geo.Hit{Point: pt, Normal: normal.Normalize()}, true
}

// CheckSphere reports whether an obstacle on mask overlaps the sphere at center.
func (p *Planet) CheckSphere(center geo.Vec3, radius float64, mask geo.LayerMask) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, o := range p.obstacles {
		if o.layer&mask != 0 && o.centre.Sub(center).Len() < o.radius+radius {
			return true
		}
	}
	return false
}

// Linecast reports whether the segment a-b passes through an obstacle on mask.
func (p *Planet) Linecast(a, b geo.Vec3, mask geo.LayerMask) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, o := range p.obstacles {
		if o.layer&mask == 0 {
			continue
		}
		if _, ok := segmentSphere(a, b, o.centre, o.radius); ok {
			return true
		}
	}
	return false
}

// segmentSphere returns the smallest t in [0,1] where from + t*(to-from)
// touches the sphere. A segment starting inside the sphere hits at t=0.
func segmentSphere(from, to, centre geo.Vec3, r float64) (float64, bool) {
	d := to.Sub(from)
	m := from.Sub(centre)
	c := m.Dot(m) - r*r
	if c <= 0 {
		return 0, true
	}
	a := d.Dot(d)
	if a == 0 {
		return 0, false
	}
	b := m.Dot(d)
	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}
	t := (-b - math.Sqrt(disc)) / a
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}
