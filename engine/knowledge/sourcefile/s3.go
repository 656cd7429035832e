package sourcefile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher downloads source documents from S3 using the default credential chain.
type S3Fetcher struct {
	client objectGetter
}

func NewS3Fetcher(ctx context.Context, region string) (*S3Fetcher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sourcefile: load aws config: %w", err)
	}
	return &S3Fetcher{client: s3.NewFromConfig(awsCfg)}, nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key, dest string) error {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return fmt.Errorf("s3://%s/%s: %w", bucket, key, ErrObjectNotFound)
		}
		return fmt.Errorf("sourcefile: get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return writeFile(dest, out.Body)
}

// writeFile replaces dest atomically.
func writeFile(dest string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("sourcefile: create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("sourcefile: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("sourcefile: write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("sourcefile: write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("sourcefile: write %s: %w", dest, err)
	}
	return nil
}
