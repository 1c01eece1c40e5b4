package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/backmassage/magickbatch/internal/check"
)

// ImageInfo holds what the engine reports for one file.
type ImageInfo struct {
	Format string // Magick format tag, e.g. "WEBP", "JPEG".
	Width  int
	Height int
	Size   int64 // Bytes on disk as reported by the engine.
}

// infoFormat is the -format template; one line, space separated.
const infoFormat = "%m %w %h %B"

// Probe runs a single ping call against path and returns the parsed result.
// Only the first frame is inspected.
func Probe(ctx context.Context, h check.Handle, path string) (*ImageInfo, error) {
	cmd := exec.CommandContext(ctx, h.Program(), "-ping", path+"[0]", "-format", infoFormat, "info:")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s ping %q: %w", h.Name, path, err)
	}
	return ParseInfo(string(out))
}

// ParseInfo converts raw "-format" output into an ImageInfo.
// Exported for testing without a real engine.
func ParseInfo(out string) (*ImageInfo, error) {
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return nil, fmt.Errorf("parse image info: unexpected output %q", strings.TrimSpace(out))
	}
	w, errW := strconv.Atoi(fields[1])
	h, errH := strconv.Atoi(fields[2])
	if errW != nil || errH != nil {
		return nil, fmt.Errorf("parse image info: bad dimensions in %q", strings.TrimSpace(out))
	}
	info := &ImageInfo{Format: fields[0], Width: w, Height: h}
	if len(fields) > 3 {
		info.Size = parseSize(fields[3])
	}
	return info, nil
}

// Prober adapts Probe to the batch verifier contract.
type Prober struct {
	Handle check.Handle
}

// Dimensions returns the pixel size of the image at path.
func (p Prober) Dimensions(ctx context.Context, path string) (int, int, error) {
	info, err := Probe(ctx, p.Handle, path)
	if err != nil {
		return 0, 0, err
	}
	return info.Width, info.Height, nil
}

// parseSize accepts plain byte counts and ImageMagick's "12345B" spelling.
func parseSize(s string) int64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "B")
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
