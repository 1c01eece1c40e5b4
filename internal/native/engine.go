package native

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/gen2brain/avif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/backmassage/magickbatch/internal/planner"
)

// ErrUnsupportedFormat is returned for target formats the builtin engine
// cannot encode.
var ErrUnsupportedFormat = errors.New("format not supported by the builtin engine")

// DefaultAVIFSpeed trades encode time for size; 0 is slowest, 10 fastest.
const DefaultAVIFSpeed = 8

// Engine is the in-process converter. The zero value is usable.
type Engine struct {
	AVIFSpeed int
}

// New returns an Engine with default encoder settings.
func New() *Engine {
	return &Engine{AVIFSpeed: DefaultAVIFSpeed}
}

// Convert decodes the source, applies the plan geometry and writes the
// destination. Metadata never survives re-encoding, which satisfies the
// plan's strip request. The returned output string is always empty.
func (e *Engine) Convert(ctx context.Context, job planner.ConversionJob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if job.Format != planner.FormatJPG && job.Format != planner.FormatAVIF {
		return "", fmt.Errorf("%s: %w", job.Format, ErrUnsupportedFormat)
	}

	src, err := decodeFile(job.Source.Path)
	if err != nil {
		return "", err
	}
	img := Apply(src, job.Plan.Geometry)

	f, err := os.Create(job.Destination)
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	if err := e.encode(f, img, job.Format, job.Plan.Quality); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close output: %w", err)
	}
	return "", nil
}

func (e *Engine) encode(w io.Writer, img image.Image, f planner.Format, quality int) error {
	switch f {
	case planner.FormatJPG:
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encode jpg: %w", err)
		}
	case planner.FormatAVIF:
		opts := avif.Options{
			Quality:           quality,
			QualityAlpha:      quality,
			Speed:             e.AVIFSpeed,
			ChromaSubsampling: image.YCbCrSubsampleRatio420,
		}
		if err := avif.Encode(w, img, opts); err != nil {
			return fmt.Errorf("encode avif: %w", err)
		}
	default:
		return fmt.Errorf("%s: %w", f, ErrUnsupportedFormat)
	}
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Apply returns src transformed by d. ShrinkTo returns src itself when it
// already fits.
func Apply(src image.Image, d planner.GeometryDirective) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()

	if d.Kind != planner.CoverThenCrop {
		w, h := d.OutputSize(sw, sh)
		if w == sw && h == sh {
			return src
		}
		return scale(src, w, h)
	}

	cw, ch := d.CoverSize(sw, sh)
	covered := scale(src, cw, ch)
	x, y := d.CropOffset(cw, ch)

	out := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))
	draw.Draw(out, out.Bounds(), covered, image.Pt(x, y), draw.Src)
	return out
}

func scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
