package planner

import "fmt"

// --- Enum types for validated string fields ---

// ModeKind selects the resize policy.
type ModeKind string

const (
	ModeBoundedEdge ModeKind = "bounded" // Shrink so the longer edge fits MaxEdge (default).
	ModeFixedCrop   ModeKind = "crop"    // Cover-scale, then crop to exactly Width x Height.
)

// Gravity is the anchor used when cropping to a fixed rectangle.
type Gravity string

const (
	GravityNorthWest Gravity = "northwest"
	GravityNorth     Gravity = "north"
	GravityNorthEast Gravity = "northeast"
	GravityWest      Gravity = "west"
	GravityCenter    Gravity = "center"
	GravityEast      Gravity = "east"
	GravitySouthWest Gravity = "southwest"
	GravitySouth     Gravity = "south"
	GravitySouthEast Gravity = "southeast"
)

// Gravities lists every valid anchor in compass order.
var Gravities = []Gravity{
	GravityNorthWest, GravityNorth, GravityNorthEast,
	GravityWest, GravityCenter, GravityEast,
	GravitySouthWest, GravitySouth, GravitySouthEast,
}

// ParseGravity accepts any case and the "centre" spelling.
func ParseGravity(s string) (Gravity, error) {
	switch g := Gravity(lower(s)); g {
	case "centre":
		return GravityCenter, nil
	case GravityNorthWest, GravityNorth, GravityNorthEast,
		GravityWest, GravityCenter, GravityEast,
		GravitySouthWest, GravitySouth, GravitySouthEast:
		return g, nil
	}
	return "", fmt.Errorf("invalid gravity %q (use one of northwest, north, northeast, west, center, east, southwest, south, southeast)", s)
}

// Format is a target output encoding. The value doubles as file extension.
type Format string

const (
	FormatJPG  Format = "jpg"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
)

// Selection is the user-facing format choice.
type Selection string

const (
	SelectJPG  Selection = "jpg"
	SelectWebP Selection = "webp" // Default.
	SelectBoth Selection = "both" // jpg and webp, one job each.
	SelectAVIF Selection = "avif"
)

// ParseSelection validates a --format value.
func ParseSelection(s string) (Selection, error) {
	switch sel := Selection(lower(s)); sel {
	case SelectJPG, SelectWebP, SelectBoth, SelectAVIF:
		return sel, nil
	case "jpeg":
		return SelectJPG, nil
	}
	return "", fmt.Errorf("invalid format %q (use 'jpg', 'webp', 'both' or 'avif')", s)
}

// Formats expands the selection into independent target formats, in the
// order jobs are dispatched.
func (s Selection) Formats() []Format {
	switch s {
	case SelectJPG:
		return []Format{FormatJPG}
	case SelectWebP:
		return []Format{FormatWebP}
	case SelectBoth:
		return []Format{FormatJPG, FormatWebP}
	case SelectAVIF:
		return []Format{FormatAVIF}
	}
	return nil
}

// ResizeMode is the tagged choice between the two resize policies. Only the
// fields belonging to Kind are meaningful.
type ResizeMode struct {
	Kind ModeKind

	// ModeBoundedEdge.
	MaxEdge int

	// ModeFixedCrop.
	Width   int
	Height  int
	Gravity Gravity
}

// BoundedEdge returns a shrink-only mode limited to maxEdge on both axes.
func BoundedEdge(maxEdge int) ResizeMode {
	return ResizeMode{Kind: ModeBoundedEdge, MaxEdge: maxEdge}
}

// FixedCrop returns a cover-then-crop mode producing exactly width x height.
func FixedCrop(width, height int, g Gravity) ResizeMode {
	return ResizeMode{Kind: ModeFixedCrop, Width: width, Height: height, Gravity: g}
}

// String is used in batch headers, e.g. "max edge 1600px" or "crop 1200x800 @ center".
func (m ResizeMode) String() string {
	if m.Kind == ModeFixedCrop {
		return fmt.Sprintf("crop %dx%d @ %s", m.Width, m.Height, m.Gravity)
	}
	return fmt.Sprintf("max edge %dpx (shrink only)", m.MaxEdge)
}

// DirectiveKind identifies the geometry transformation handed to an engine.
type DirectiveKind int

const (
	ShrinkTo      DirectiveKind = iota // Fit inside Edge x Edge, never enlarge.
	CoverThenCrop                      // Scale to cover Width x Height, crop at Gravity.
)

// GeometryDirective is the engine-neutral description of the pixel geometry
// for one job. Engines translate it into their own arguments.
type GeometryDirective struct {
	Kind    DirectiveKind
	Edge    int
	Width   int
	Height  int
	Gravity Gravity
}

// Plan holds the complete set of decisions for converting one source file.
// It is produced by BuildPlan and consumed by the engines.
type Plan struct {
	Geometry GeometryDirective
	Quality  int  // Encoder quality, passed through verbatim.
	Strip    bool // Strip metadata. Always set by BuildPlan.
}

// SourceFile is one discovered input image.
type SourceFile struct {
	Path string // Full path as discovered.
	Name string // File name with extension.
	Base string // File name without its final extension.
}

// ConversionJob is one (source, format, plan) unit of work.
type ConversionJob struct {
	Source      SourceFile
	Format      Format
	Plan        Plan
	Destination string
}

// Label is the short human form used in log lines, e.g. "WEBP photo.png".
func (j ConversionJob) Label() string {
	return fmt.Sprintf("%s %s", upper(string(j.Format)), j.Source.Name)
}
