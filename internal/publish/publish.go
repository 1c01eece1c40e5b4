package publish

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// Env prefix for publish credentials that have no standard variable.
const envPrefix = "MAGICKBATCH_"

// Publisher uploads named objects to one target.
type Publisher interface {
	Put(ctx context.Context, name string, r io.Reader) error
	Close() error
}

// Logger is the subset of *logging.Logger used here.
type Logger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
}

// Result counts the outcome of one Publish call.
type Result struct {
	Uploaded int
	Failed   int
}

// New connects a publisher for t. getenv supplies credentials (os.Getenv in
// production).
func New(ctx context.Context, t Target, getenv func(string) string) (Publisher, error) {
	switch t.Scheme {
	case SchemeS3:
		return newS3(t, getenv)
	case SchemeGCS:
		return newGCS(ctx, t, getenv)
	case SchemeSFTP:
		return newSFTP(ctx, t, getenv)
	case SchemeFile:
		return newDir(t)
	default:
		return nil, fmt.Errorf("unsupported publish scheme %q", t.Scheme)
	}
}

// Publish uploads files by base name. A failed file is logged and the rest
// continue.
func Publish(ctx context.Context, p Publisher, target Target, files []string, log Logger) Result {
	var res Result
	for _, f := range files {
		name := filepath.Base(f)
		if err := putFile(ctx, p, f, name); err != nil {
			log.Warn("Publish %s failed: %v", name, err)
			res.Failed++
			continue
		}
		res.Uploaded++
	}
	if len(files) > 0 {
		log.Info("Published %d of %d file(s) to %s", res.Uploaded, len(files), target)
	}
	return res
}

func putFile(ctx context.Context, p Publisher, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.Put(ctx, name, f)
}

// contentType maps an output extension to its MIME type.
func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".webp":
		return "image/webp"
	case ".avif":
		return "image/avif"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
