// Package objectstore uploads report packages to S3.
package objectstore

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"

	"github.com/jacksonlee411/attainment-reports/modules/distribution/services"
)

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Options struct {
	Bucket  string
	Region  string
	Profile string
	Prefix  string
}

type Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewUploader loads the default AWS configuration, optionally pinned to a
// region and shared profile.
func NewUploader(ctx context.Context, opts Options) (*Uploader, error) {
	if opts.Bucket == "" {
		return nil, errors.Wrap(services.ErrUnavailable, "s3 bucket is not configured")
	}
	var loaders []func(*config.LoadOptions) error
	if opts.Region != "" {
		loaders = append(loaders, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loaders = append(loaders, config.WithSharedConfigProfile(opts.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, errors.Wrapf(services.ErrUnavailable, "load aws config: %v", err)
	}
	return NewUploaderWithClient(s3.NewFromConfig(cfg), opts.Bucket, opts.Prefix), nil
}

func NewUploaderWithClient(client PutObjectAPI, bucket, prefix string) *Uploader {
	return &Uploader{client: client, bucket: bucket, prefix: prefix}
}

// Key is the object key a file is stored under.
func (u *Uploader) Key(file string) string {
	return path.Join(u.prefix, filepath.Base(file))
}

// Upload stores file under Key(file) and returns the key.
func (u *Uploader) Upload(ctx context.Context, file string) (string, error) {
	mt, err := mimetype.DetectFile(file)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", file)
	}
	f, err := os.Open(file)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", file)
	}
	defer f.Close()

	key := u.Key(file)
	if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(mt.String()),
	}); err != nil {
		return "", errors.Wrapf(err, "put s3://%s/%s", u.bucket, key)
	}
	return key, nil
}
