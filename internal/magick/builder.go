package magick

import (
	"fmt"
	"strconv"

	"github.com/backmassage/magickbatch/internal/check"
	"github.com/backmassage/magickbatch/internal/planner"
)

// Args constructs the complete argument slice for one job, engine first.
// The output is written as "<fmt>:<dst>" so the encoder is pinned by the job
// format rather than guessed from the destination name.
func Args(h check.Handle, job planner.ConversionJob) []string {
	args := make([]string, 0, 12)

	args = append(args, h.Program(), job.Source.Path)
	args = append(args, GeometryArgs(job.Plan.Geometry)...)

	if job.Plan.Strip {
		args = append(args, "-strip")
	}
	args = append(args, "-quality", strconv.Itoa(job.Plan.Quality))

	args = append(args, string(job.Format)+":"+job.Destination)
	return args
}

// GeometryArgs translates a geometry directive into ImageMagick options.
//
//	ShrinkTo(e)            -resize exe>
//	CoverThenCrop(w,h,g)   -resize wxh^ -gravity G -extent wxh
//
// The ">" flag is the shrink-only marker; "^" fills the box and lets one
// axis overflow, which -extent then trims.
func GeometryArgs(d planner.GeometryDirective) []string {
	if d.Kind == planner.CoverThenCrop {
		box := fmt.Sprintf("%dx%d", d.Width, d.Height)
		return []string{
			"-resize", box + "^",
			"-gravity", GravityName(d.Gravity),
			"-extent", box,
		}
	}
	return []string{"-resize", fmt.Sprintf("%dx%d>", d.Edge, d.Edge)}
}

var gravityNames = map[planner.Gravity]string{
	planner.GravityNorthWest: "NorthWest",
	planner.GravityNorth:     "North",
	planner.GravityNorthEast: "NorthEast",
	planner.GravityWest:      "West",
	planner.GravityCenter:    "Center",
	planner.GravityEast:      "East",
	planner.GravitySouthWest: "SouthWest",
	planner.GravitySouth:     "South",
	planner.GravitySouthEast: "SouthEast",
}

// GravityName returns ImageMagick's spelling of g. Unknown values fall back
// to Center.
func GravityName(g planner.Gravity) string {
	if n, ok := gravityNames[g]; ok {
		return n
	}
	return "Center"
}
