package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a world-space position. Y is up; planar grids lie in the X-Z plane.
type Vec3 = mgl64.Vec3

// Up is the world up axis.
var Up = Vec3{0, 1, 0}

// LayerMask selects obstacle layers, one bit per layer.
type LayerMask uint32

// Common layers.
const (
	LayerGround   LayerMask = 1 << 0
	LayerObstacle LayerMask = 1 << 1
	LayerWater    LayerMask = 1 << 2
	LayerAll      LayerMask = math.MaxUint32
)

var layerNames = map[string]LayerMask{
	"ground":   LayerGround,
	"obstacle": LayerObstacle,
	"water":    LayerWater,
	"all":      LayerAll,
}

// ParseLayer returns the layer with the given name.
func ParseLayer(name string) (LayerMask, error) {
	if m, ok := layerNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown layer %q", name)
}

// ParseLayerMask combines named layers into a mask.
func ParseLayerMask(names []string) (LayerMask, error) {
	var mask LayerMask
	for _, n := range names {
		m, err := ParseLayer(n)
		if err != nil {
			return 0, err
		}
		mask |= m
	}
	return mask, nil
}

// Hit describes a surface intersection.
type Hit struct {
	Point  Vec3
	Normal Vec3
}

// Surface is the world geometry a grid is scanned against.
type Surface interface {
	// Raycast returns the first surface on a layer in mask hit by the segment from -> to.
	Raycast(from, to Vec3, mask LayerMask) (Hit, bool)
	// CheckSphere reports whether an obstacle on a layer in mask lies within radius of center.
	CheckSphere(center Vec3, radius float64, mask LayerMask) bool
	// Linecast reports whether the segment a-b is blocked by an obstacle on a layer in mask.
	Linecast(a, b Vec3, mask LayerMask) bool
}

// AngleDeg returns the angle between a and b in degrees.
func AngleDeg(a, b Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la == 0 || lb == 0 {
		return 0
	}
	cos := mgl64.Clamp(a.Dot(b)/(la*lb), -1, 1)
	return mgl64.RadToDeg(math.Acos(cos))
}
