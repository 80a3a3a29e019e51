// Package archive optionally uploads flushed trace files to cold storage
// before the runtime manager's GC helper deletes them locally. Spoor itself
// defines no archival step; this is purely additive and, left unwired (the
// default), the GC helper behaves exactly as spoor's does.
package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/justapithecus/tracecore/iox"
)

// Archiver uploads a flushed trace file's bytes somewhere durable before it
// is removed from local disk.
type Archiver interface {
	Archive(ctx context.Context, localPath string) error
}

// S3Config configures an S3Archiver.
type S3Config struct {
	// Bucket is the destination S3 bucket (required).
	Bucket string
	// Prefix is prepended to every uploaded object's key.
	Prefix string
	// Region selects an AWS region; empty uses the SDK's default chain.
	Region string
}

// S3Archiver uploads trace files to S3, keyed by their base file name
// (which already encodes session id, thread id, and flush timestamp) under
// an optional prefix.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ Archiver = (*S3Archiver)(nil)

// NewS3Archiver loads AWS credentials from the SDK's default chain (env
// vars, shared config, IAM role) and returns an Archiver backed by cfg.
func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive: bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	return &S3Archiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Archive uploads the file at localPath to the archiver's bucket/prefix,
// keyed by its base file name.
func (a *S3Archiver) Archive(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", localPath, err)
	}
	defer iox.DiscardClose(f)

	key := a.key(path.Base(localPath))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", key, err)
	}
	return nil
}

func (a *S3Archiver) key(fileName string) string {
	if a.prefix == "" {
		return fileName
	}
	return strings.TrimSuffix(a.prefix, "/") + "/" + fileName
}
