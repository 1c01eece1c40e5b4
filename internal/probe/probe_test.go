package probe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/backmassage/magickbatch/internal/check"
)

func TestParseInfo(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    ImageInfo
		wantErr bool
	}{
		{"webp", "WEBP 1600 1067 84211B", ImageInfo{Format: "WEBP", Width: 1600, Height: 1067, Size: 84211}, false},
		{"jpeg no size", "JPEG 1200 800\n", ImageInfo{Format: "JPEG", Width: 1200, Height: 800}, false},
		{"plain size", "PNG 10 20 512", ImageInfo{Format: "PNG", Width: 10, Height: 20, Size: 512}, false},
		{"empty", "", ImageInfo{}, true},
		{"garbage", "WEBP wide tall", ImageInfo{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInfo(tt.out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && *got != tt.want {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestProber_Dimensions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub needs /bin/sh")
	}
	dir := t.TempDir()
	stub := filepath.Join(dir, "magick")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 'WEBP 640 480 1000B'\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	w, h, err := Prober{Handle: check.Handle{Name: "magick", Path: stub}}.Dimensions(context.Background(), "x.webp")
	if err != nil {
		t.Fatal(err)
	}
	if w != 640 || h != 480 {
		t.Errorf("got %dx%d, want 640x480", w, h)
	}
}
