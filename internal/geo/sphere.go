package geo

import "math"

// cubePoint maps face-local coordinates u, v in [-1, 1] to a point on the unit
// cube. Values outside [-1, 1] extend past the face edge, which is how
// neighbours on adjacent faces are found.
func cubePoint(face int, u, v float64) Vec3 {
	switch face {
	case FaceNegZ:
		return Vec3{u, v, -1}
	case FacePosX:
		return Vec3{1, v, u}
	case FacePosZ:
		return Vec3{-u, v, 1}
	case FaceNegX:
		return Vec3{-1, v, -u}
	case FacePosY:
		return Vec3{u, 1, v}
	default:
		return Vec3{u, -1, -v}
	}
}

// cubeFace is the inverse of cubePoint: the face a direction points through
// and its face-local coordinates.
func cubeFace(d Vec3) (face int, u, v float64, ok bool) {
	x, y, z := d.X(), d.Y(), d.Z()
	ax, ay, az := math.Abs(x), math.Abs(y), math.Abs(z)
	switch {
	case ax == 0 && ay == 0 && az == 0:
		return 0, 0, 0, false
	case ax >= ay && ax >= az:
		if x > 0 {
			return FacePosX, z / ax, y / ax, true
		}
		return FaceNegX, -z / ax, y / ax, true
	case ay >= ax && ay >= az:
		if y > 0 {
			return FacePosY, x / ay, z / ay, true
		}
		return FaceNegY, x / ay, -z / ay, true
	default:
		if z > 0 {
			return FacePosZ, -x / az, y / az, true
		}
		return FaceNegZ, x / az, y / az, true
	}
}

// cellCentre returns the face-local coordinate of the centre of cell i out of n.
func cellCentre(i, n int) float64 {
	return (2*float64(i)+1)/float64(n) - 1
}

// cubeCell returns the cell a direction from the sphere centre falls into.
func cubeCell(d Vec3, n int) (face, x, y int, ok bool) {
	face, u, v, ok := cubeFace(d)
	if !ok || n <= 0 {
		return 0, 0, 0, false
	}
	x = clampInt(int(math.Floor((u+1)/2*float64(n))), 0, n-1)
	y = clampInt(int(math.Floor((v+1)/2*float64(n))), 0, n-1)
	return face, x, y, true
}

// sphereDirection returns the unit direction from the centre to cell (x, y) on face.
func sphereDirection(face, x, y, n int) Vec3 {
	return cubePoint(face, cellCentre(x, n), cellCentre(y, n)).Normalize()
}

// probeSphere casts from the probe sphere towards the centre; the surface
// normal must lie within the slope limit of the outward direction.
func (g *Grid) probeSphere(face, x, y int) *Node {
	s := g.settings
	dir := sphereDirection(face, x, y, g.width)
	from := s.Offset.Add(dir.Mul(s.Radius))

	n := &Node{X: x, Y: y, Face: face, World: from}
	if g.surface == nil {
		return n
	}
	hit, ok := g.surface.Raycast(from, s.Offset, s.WalkableMask)
	if !ok {
		return n
	}
	n.World = hit.Point
	n.Walkable = AngleDeg(dir, hit.Normal) < s.SlopeLimit &&
		!g.surface.CheckSphere(hit.Point, 2*s.NodeRadius, s.UnwalkableMask)
	return n
}

// sphereNeighboursLocked steps one cell in each of the eight directions,
// wrapping over face edges by re-projecting the extended cube point.
func (g *Grid) sphereNeighboursLocked(node *Node, out []*Node) []*Node {
	n := g.width
	start := len(out)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			p := cubePoint(node.Face, cellCentre(node.X+dx, n), cellCentre(node.Y+dy, n))
			face, x, y, ok := cubeCell(p, n)
			if !ok {
				continue
			}
			nb := g.nodeAtLocked(face, x, y)
			if nb == nil || nb == node || containsNode(out[start:], nb) {
				continue
			}
			out = append(out, nb)
		}
	}
	return out
}

func containsNode(nodes []*Node, n *Node) bool {
	for _, m := range nodes {
		if m == n {
			return true
		}
	}
	return false
}
