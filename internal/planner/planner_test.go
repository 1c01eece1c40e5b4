package planner

import (
	"testing"
)

// --- BuildPlan decision tests ---

func TestBuildPlan_BoundedEdge(t *testing.T) {
	plan := BuildPlan(BoundedEdge(1600), 85)
	if plan.Geometry.Kind != ShrinkTo {
		t.Fatalf("Kind: got %v, want ShrinkTo", plan.Geometry.Kind)
	}
	if plan.Geometry.Edge != 1600 {
		t.Errorf("Edge: got %d, want 1600", plan.Geometry.Edge)
	}
	if plan.Quality != 85 {
		t.Errorf("Quality: got %d, want 85", plan.Quality)
	}
	if !plan.Strip {
		t.Error("Strip must always be set")
	}
}

func TestBuildPlan_FixedCrop(t *testing.T) {
	plan := BuildPlan(FixedCrop(1200, 800, GravityNorthEast), 70)
	g := plan.Geometry
	if g.Kind != CoverThenCrop {
		t.Fatalf("Kind: got %v, want CoverThenCrop", g.Kind)
	}
	if g.Width != 1200 || g.Height != 800 || g.Gravity != GravityNorthEast {
		t.Errorf("geometry: got %+v", g)
	}
	if !plan.Strip {
		t.Error("Strip must always be set")
	}
}

func TestBuildPlan_FixedCropDefaultsGravity(t *testing.T) {
	plan := BuildPlan(ResizeMode{Kind: ModeFixedCrop, Width: 300, Height: 300}, 80)
	if plan.Geometry.Gravity != GravityCenter {
		t.Errorf("Gravity: got %q, want center", plan.Geometry.Gravity)
	}
}

func TestBuildPlan_TrustsInputs(t *testing.T) {
	// No re-validation: out-of-range values pass through untouched.
	plan := BuildPlan(BoundedEdge(5), 500)
	if plan.Geometry.Edge != 5 || plan.Quality != 500 {
		t.Errorf("got edge=%d quality=%d, want 5/500", plan.Geometry.Edge, plan.Quality)
	}
}

// --- Clamp tests ---

func TestClampEdge(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 100}, {0, 100}, {99, 100}, {100, 100}, {1600, 1600},
		{20000, 20000}, {20001, 20000}, {1 << 30, 20000},
	}
	for _, tt := range tests {
		if got := ClampEdge(tt.in); got != tt.want {
			t.Errorf("ClampEdge(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampQuality(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, 1}, {0, 1}, {1, 1}, {85, 85}, {100, 100}, {101, 100},
	}
	for _, tt := range tests {
		if got := ClampQuality(tt.in); got != tt.want {
			t.Errorf("ClampQuality(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampMode(t *testing.T) {
	m := ClampMode(ResizeMode{Kind: ModeFixedCrop, MaxEdge: 1, Width: 50000, Height: 0})
	if m.MaxEdge != 100 || m.Width != 20000 || m.Height != 100 {
		t.Errorf("got %+v", m)
	}
	if m.Gravity != GravityCenter {
		t.Errorf("Gravity: got %q, want center", m.Gravity)
	}
}

// --- Geometry law tests ---

func TestOutputSize_ShrinkOnly(t *testing.T) {
	d := BuildPlan(BoundedEdge(1600), 85).Geometry
	tests := []struct {
		name       string
		w, h       int
		wantW, wantH int
	}{
		{"small stays", 800, 600, 800, 600},
		{"exact edge stays", 1600, 1600, 1600, 1600},
		{"landscape shrinks", 4000, 3000, 1600, 1200},
		{"portrait shrinks", 3000, 4000, 1200, 1600},
		{"one axis over", 2000, 100, 1600, 80},
		{"extreme strip keeps 1px", 20000, 2, 1600, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := d.OutputSize(tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("OutputSize(%d,%d) = %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
			if w > tt.w || h > tt.h {
				t.Errorf("enlarged %dx%d to %dx%d", tt.w, tt.h, w, h)
			}
		})
	}
}

func TestOutputSize_FixedCropExact(t *testing.T) {
	d := BuildPlan(FixedCrop(1200, 800, GravityCenter), 85).Geometry
	for _, src := range [][2]int{{4000, 3000}, {300, 200}, {800, 4000}, {1200, 800}, {1, 1}} {
		w, h := d.OutputSize(src[0], src[1])
		if w != 1200 || h != 800 {
			t.Errorf("OutputSize(%dx%d) = %dx%d, want 1200x800", src[0], src[1], w, h)
		}
	}
}

func TestCoverSize_CoversBox(t *testing.T) {
	d := BuildPlan(FixedCrop(1200, 800, GravityCenter), 85).Geometry
	for _, src := range [][2]int{{4000, 3000}, {300, 200}, {800, 4000}, {1199, 801}} {
		w, h := d.CoverSize(src[0], src[1])
		if w < 1200 || h < 800 {
			t.Errorf("CoverSize(%dx%d) = %dx%d does not cover 1200x800", src[0], src[1], w, h)
		}
		if w != 1200 && h != 800 {
			t.Errorf("CoverSize(%dx%d) = %dx%d overflows both axes", src[0], src[1], w, h)
		}
	}
}

func TestCropOffset_Gravity(t *testing.T) {
	tests := []struct {
		g          Gravity
		wantX, wantY int
	}{
		{GravityNorthWest, 0, 0},
		{GravityNorth, 50, 0},
		{GravityNorthEast, 100, 0},
		{GravityWest, 0, 20},
		{GravityCenter, 50, 20},
		{GravityEast, 100, 20},
		{GravitySouthWest, 0, 40},
		{GravitySouth, 50, 40},
		{GravitySouthEast, 100, 40},
	}
	for _, tt := range tests {
		d := GeometryDirective{Kind: CoverThenCrop, Width: 200, Height: 100, Gravity: tt.g}
		x, y := d.CropOffset(300, 140)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("%s: got (%d,%d), want (%d,%d)", tt.g, x, y, tt.wantX, tt.wantY)
		}
	}
}

// --- Enum parsing ---

func TestParseGravity(t *testing.T) {
	for _, g := range Gravities {
		got, err := ParseGravity(string(g))
		if err != nil || got != g {
			t.Errorf("ParseGravity(%q) = %q, %v", g, got, err)
		}
	}
	if got, _ := ParseGravity("Centre"); got != GravityCenter {
		t.Errorf("ParseGravity(Centre) = %q, want center", got)
	}
	if _, err := ParseGravity("middle"); err == nil {
		t.Error("ParseGravity(middle) should fail")
	}
}

func TestSelectionFormats(t *testing.T) {
	tests := []struct {
		sel  Selection
		want []Format
	}{
		{SelectJPG, []Format{FormatJPG}},
		{SelectWebP, []Format{FormatWebP}},
		{SelectBoth, []Format{FormatJPG, FormatWebP}},
		{SelectAVIF, []Format{FormatAVIF}},
		{"gif", nil},
	}
	for _, tt := range tests {
		got := tt.sel.Formats()
		if len(got) != len(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.sel, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q: got %v, want %v", tt.sel, got, tt.want)
			}
		}
	}
}

func TestParseSelection(t *testing.T) {
	if s, err := ParseSelection("JPEG"); err != nil || s != SelectJPG {
		t.Errorf("ParseSelection(JPEG) = %q, %v", s, err)
	}
	if _, err := ParseSelection("tiff"); err == nil {
		t.Error("ParseSelection(tiff) should fail")
	}
}
