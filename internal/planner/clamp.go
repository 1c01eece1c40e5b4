package planner

// Clamp ranges shared by every collaborator that accepts user geometry.
const (
	EdgeMin    = 100
	EdgeMax    = 20000
	QualityMin = 1
	QualityMax = 100
)

// ClampEdge bounds a max-edge, width or height value to [EdgeMin, EdgeMax].
func ClampEdge(v int) int { return Clamp(v, EdgeMin, EdgeMax) }

// ClampQuality bounds an encoder quality to [QualityMin, QualityMax].
func ClampQuality(v int) int { return Clamp(v, QualityMin, QualityMax) }

// ClampMode returns m with every geometry field clamped and an empty
// gravity replaced by center.
func ClampMode(m ResizeMode) ResizeMode {
	m.MaxEdge = ClampEdge(m.MaxEdge)
	m.Width = ClampEdge(m.Width)
	m.Height = ClampEdge(m.Height)
	if m.Gravity == "" {
		m.Gravity = GravityCenter
	}
	return m
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
