// Package native converts images in-process, without an external engine.
//
// Decoding covers jpg and png (standard library) plus webp and avif for
// dimension checks. Resampling uses golang.org/x/image/draw with the
// Catmull-Rom kernel. Encoding covers jpg (image/jpeg) and avif
// (github.com/gen2brain/avif); there is no pure-Go webp encoder, so webp jobs
// fail with ErrUnsupportedFormat.
package native
