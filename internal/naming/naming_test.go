package naming

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestBaseName_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "photo.jpg", "photo"},
		{"upper ext", "PHOTO.JPEG", "PHOTO"},
		{"inner dots", "my.holiday.2024.png", "my.holiday.2024"},
		{"spaces", "summer trip 01.jpg", "summer trip 01"},
		{"unicode", "Größe café 東京.png", "Größe café 東京"},
		{"emoji", "🎉 party.jpeg", "🎉 party"},
		{"with dir", filepath.Join("in", "sub dir", "a b.c.jpg"), "a b.c"},
		{"no ext", "README", "README"},
		{"dotfile", ".png", ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BaseName(tt.in); got != tt.want {
				t.Errorf("BaseName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetOutputPath(t *testing.T) {
	got := GetOutputPath("/out", "my.holiday pic", "webp")
	want := filepath.Join("/out", "my.holiday pic.webp")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if BaseName(got) != "my.holiday pic" {
		t.Errorf("round trip lost the base name: %q", BaseName(got))
	}
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "x.jpg")
	b := filepath.Join(dir, ".", "x.jpg")
	if !SamePath(a, b) {
		t.Errorf("SamePath(%q, %q) = false, want true", a, b)
	}
	if SamePath(a, filepath.Join(dir, "x.webp")) {
		t.Error("different files reported as same")
	}
}

func TestCollisionTracker(t *testing.T) {
	ct := NewCollisionTracker()
	out := "/out/photo.webp"

	if _, clash := ct.Claim("/in/photo.jpg", out); clash {
		t.Fatal("first claim must not clash")
	}
	if _, clash := ct.Claim("/in/photo.jpg", out); clash {
		t.Fatal("re-claim by the same source must not clash")
	}
	prev, clash := ct.Claim("/in/photo.png", out)
	if !clash || prev != "/in/photo.jpg" {
		t.Errorf("got (%q, %v), want (/in/photo.jpg, true)", prev, clash)
	}
	if _, clash := ct.Claim("/in/other.png", "/out/other.webp"); clash {
		t.Error("unrelated output must not clash")
	}
}

func TestSourceSet_Match(t *testing.T) {
	dir := t.TempDir()
	jpg := filepath.Join(dir, "pic.jpg")
	png := filepath.Join(dir, "pic.png")
	for _, p := range []string{jpg, png} {
		if err := os.WriteFile(p, []byte("src"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	set := NewSourceSet([]string{jpg, png})

	if src, ok := set.Match(filepath.Join(dir, "pic.jpg")); !ok || src != jpg {
		t.Errorf("Match(pic.jpg) = %q, %v; want %q", src, ok, jpg)
	}
	if _, ok := set.Match(filepath.Join(dir, "pic.webp")); ok {
		t.Error("a new output must not match a source")
	}
	if src, ok := set.Match(filepath.Join(dir, ".", "sub", "..", "pic.png")); !ok || src != png {
		t.Errorf("unclean path: got %q, %v", src, ok)
	}
}

func TestSourceSet_MatchViaSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(src, []byte("src"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(t.TempDir(), "out")
	if err := os.Symlink(dir, link); err != nil {
		t.Skip("symlinks unavailable")
	}
	if _, ok := NewSourceSet([]string{src}).Match(filepath.Join(link, "a.jpg")); !ok {
		t.Error("path through a symlinked directory should match its source")
	}
}
