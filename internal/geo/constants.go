package geo

// A* step weights. Integer fixed point: 10 per orthogonal step,
// 14 per diagonal step (10*sqrt(2) rounded).
const (
	CostStraight = 10
	CostDiagonal = 14
)

// Scan and search scheduling defaults.
const (
	DefaultScanRowsPerStep   = 25
	DefaultExpansionsPerStep = 100
	DefaultNearWalkableRange = 50
	DefaultSlopeLimit        = 45.0
	DefaultProbeHeight       = 500.0
)

// MaxGridNodes bounds width * height * faces of a single grid.
const MaxGridNodes = 1 << 26

// Cube-sphere faces. Order matches the scan order of the spherical topology.
const (
	FaceNegZ = iota
	FacePosX
	FacePosZ
	FaceNegX
	FacePosY
	FaceNegY
	CubeFaces
)
