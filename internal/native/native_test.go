package native

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/magickbatch/internal/planner"
)

// writePNG creates a w x h gradient png and returns its path.
func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func job(src, dst string, f planner.Format, mode planner.ResizeMode) planner.ConversionJob {
	return planner.ConversionJob{
		Source:      planner.SourceFile{Path: src, Name: filepath.Base(src)},
		Format:      f,
		Plan:        planner.BuildPlan(mode, 85),
		Destination: dst,
	}
}

func TestConvert_JPG(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "wide.png", 300, 200)

	tests := []struct {
		name  string
		mode  planner.ResizeMode
		wantW int
		wantH int
	}{
		{"shrink", planner.BoundedEdge(150), 150, 100},
		{"no enlarge", planner.BoundedEdge(1600), 300, 200},
		{"crop", planner.FixedCrop(120, 120, planner.GravityCenter), 120, 120},
		{"crop upscale", planner.FixedCrop(600, 100, planner.GravitySouthEast), 600, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(dir, tt.name+".jpg")
			if _, err := New().Convert(context.Background(), job(src, dst, planner.FormatJPG, tt.mode)); err != nil {
				t.Fatalf("Convert: %v", err)
			}
			w, h, err := Dimensions(dst)
			if err != nil {
				t.Fatal(err)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestConvert_WebPUnsupported(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "a.png", 10, 10)
	dst := filepath.Join(dir, "a.webp")

	_, err := New().Convert(context.Background(), job(src, dst, planner.FormatWebP, planner.BoundedEdge(100)))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("no output should be created for an unsupported format")
	}
}

func TestConvert_CorruptSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New().Convert(context.Background(), job(src, filepath.Join(dir, "broken.jpg"), planner.FormatJPG, planner.BoundedEdge(100)))
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestConvert_AVIF(t *testing.T) {
	if testing.Short() {
		t.Skip("avif encoding is slow")
	}
	dir := t.TempDir()
	src := writePNG(t, dir, "tall.png", 40, 80)
	dst := filepath.Join(dir, "tall.avif")

	if _, err := New().Convert(context.Background(), job(src, dst, planner.FormatAVIF, planner.BoundedEdge(100))); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	w, h, err := Dimensions(dst)
	if err != nil {
		t.Fatal(err)
	}
	if w != 40 || h != 80 {
		t.Errorf("got %dx%d, want 40x80", w, h)
	}
}

func TestApply_CropGravity(t *testing.T) {
	// Left half red, right half blue; cropping a square from the west or
	// east edge must keep only that colour.
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= 100 {
				c = color.RGBA{B: 255, A: 255}
			}
			src.Set(x, y, c)
		}
	}
	west := Apply(src, planner.BuildPlan(planner.FixedCrop(50, 50, planner.GravityWest), 85).Geometry)
	east := Apply(src, planner.BuildPlan(planner.FixedCrop(50, 50, planner.GravityEast), 85).Geometry)

	if r, _, b, _ := west.At(25, 25).RGBA(); r < b {
		t.Error("west crop should be red")
	}
	if r, _, b, _ := east.At(25, 25).RGBA(); b < r {
		t.Error("east crop should be blue")
	}
}
