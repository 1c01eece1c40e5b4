// Package planner turns user resize parameters into an engine-neutral Plan.
//
// A ResizeMode is either bounded-edge (shrink so the longer side fits, never
// enlarge) or fixed-crop (cover-scale, then crop to an exact rectangle at a
// gravity anchor). BuildPlan maps it to a GeometryDirective that the magick
// and native engines translate into their own operations.
package planner
