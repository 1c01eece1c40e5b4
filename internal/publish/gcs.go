package publish

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type gcsPublisher struct {
	target Target
	client *storage.Client
}

// newGCS uses the service account JSON named by MAGICKBATCH_GCS_CREDENTIALS,
// falling back to application default credentials.
func newGCS(ctx context.Context, t Target, getenv func(string) string) (*gcsPublisher, error) {
	var opts []option.ClientOption
	if path := getenv(envPrefix + "GCS_CREDENTIALS"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read GCS credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(data))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &gcsPublisher{target: t, client: client}, nil
}

func (p *gcsPublisher) Put(ctx context.Context, name string, r io.Reader) error {
	obj := p.client.Bucket(p.target.Bucket).Object(p.target.Key(name))
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType(name)
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return fmt.Errorf("upload %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("finish upload %s: %w", name, err)
	}
	return nil
}

func (p *gcsPublisher) Close() error { return p.client.Close() }
