package publish

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Publisher struct {
	target   Target
	uploader *manager.Uploader
}

// newS3 builds an uploader from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
// optional AWS_SESSION_TOKEN and AWS_REGION. MAGICKBATCH_S3_ENDPOINT points
// at an S3-compatible service (path-style addressing).
func newS3(t Target, getenv func(string) string) (*s3Publisher, error) {
	key, secret := getenv("AWS_ACCESS_KEY_ID"), getenv("AWS_SECRET_ACCESS_KEY")
	if key == "" || secret == "" {
		return nil, errors.New("s3 publish needs AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
	}
	region := getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(key, secret, getenv("AWS_SESSION_TOKEN")),
	}
	if ep := getenv(envPrefix + "S3_ENDPOINT"); ep != "" {
		opts.BaseEndpoint = aws.String(ep)
		opts.UsePathStyle = true
	}
	client := s3.New(opts)
	return &s3Publisher{target: t, uploader: manager.NewUploader(client)}, nil
}

func (p *s3Publisher) Put(ctx context.Context, name string, r io.Reader) error {
	key := p.target.Key(name)
	_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.target.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s to bucket %s: %w", key, p.target.Bucket, err)
	}
	return nil
}

func (p *s3Publisher) Close() error { return nil }
