package native

import (
	"context"
	"fmt"
	"image"
	"os"
)

// Dimensions reads only the image header at path. Any registered format is
// accepted: jpg, png, webp and avif.
func Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("read header %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Verifier satisfies the batch verifier contract with Dimensions.
type Verifier struct{}

func (Verifier) Dimensions(_ context.Context, path string) (int, int, error) {
	return Dimensions(path)
}
