package planner

import (
	"math"
	"strings"
)

// BuildPlan produces the Plan for a resize mode and quality. Inputs are trusted
// to be clamped already (see ClampEdge and ClampQuality); BuildPlan performs no
// validation of its own.
//
// Flow:
//  1. Translate the mode into a geometry directive (shrink-only or cover+crop)
//  2. Pass quality through verbatim
//  3. Always request metadata stripping
func BuildPlan(mode ResizeMode, quality int) Plan {
	plan := Plan{Quality: quality, Strip: true}

	switch mode.Kind {
	case ModeFixedCrop:
		g := mode.Gravity
		if g == "" {
			g = GravityCenter
		}
		plan.Geometry = GeometryDirective{
			Kind:    CoverThenCrop,
			Width:   mode.Width,
			Height:  mode.Height,
			Gravity: g,
		}
	default:
		plan.Geometry = GeometryDirective{Kind: ShrinkTo, Edge: mode.MaxEdge}
	}
	return plan
}

// OutputSize reports the pixel size a source of srcW x srcH must end up with
// under this directive. ShrinkTo never enlarges; CoverThenCrop is always
// exactly Width x Height.
func (d GeometryDirective) OutputSize(srcW, srcH int) (int, int) {
	if d.Kind == CoverThenCrop {
		return d.Width, d.Height
	}
	if srcW <= 0 || srcH <= 0 || (srcW <= d.Edge && srcH <= d.Edge) {
		return srcW, srcH
	}
	scale := float64(d.Edge) / float64(max(srcW, srcH))
	return scaledDim(srcW, scale), scaledDim(srcH, scale)
}

// CoverSize is the intermediate size of the cover-scale stage: the smallest
// aspect-preserving size where both axes reach the target box.
func (d GeometryDirective) CoverSize(srcW, srcH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return d.Width, d.Height
	}
	// Integer cross-multiplication keeps the binding axis exact.
	sw, sh := int64(srcW), int64(srcH)
	tw, th := int64(d.Width), int64(d.Height)
	if tw*sh >= th*sw {
		return d.Width, max(int(ceilDiv(sh*tw, sw)), d.Height)
	}
	return max(int(ceilDiv(sw*th, sh)), d.Width), d.Height
}

// CropOffset returns the top-left corner of the Width x Height window inside
// a covered image of coverW x coverH, anchored at Gravity.
func (d GeometryDirective) CropOffset(coverW, coverH int) (int, int) {
	dx, dy := coverW-d.Width, coverH-d.Height
	x, y := dx/2, dy/2
	switch d.Gravity {
	case GravityNorthWest, GravityWest, GravitySouthWest:
		x = 0
	case GravityNorthEast, GravityEast, GravitySouthEast:
		x = dx
	}
	switch d.Gravity {
	case GravityNorthWest, GravityNorth, GravityNorthEast:
		y = 0
	case GravitySouthWest, GravitySouth, GravitySouthEast:
		y = dy
	}
	return x, y
}

func scaledDim(v int, scale float64) int {
	n := int(math.Round(float64(v) * scale))
	if n < 1 {
		return 1
	}
	return n
}

func ceilDiv(a, b int64) int64 { return (a + b - 1) / b }

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
func upper(s string) string { return strings.ToUpper(s) }
