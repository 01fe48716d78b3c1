// Package blobstore implements the Blob Store holding the assignment files.
package blobstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
)

// maxDeleteBatch is the maximum number of keys accepted by DeleteObjects.
const maxDeleteBatch = 1000

var ErrEmptyPrefix = errors.New("refusing to remove an empty prefix")

type s3API interface {
	s3.ListObjectsV2APIClient
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Store talks to the S3 compatible endpoint of Supabase Storage.
type S3Store struct {
	client s3API
	bucket string
}

// NewS3Store creates an S3Store from configuration.
func NewS3Store(ctx context.Context, conf core.StorageConfig) (*S3Store, error) {
	if conf.Bucket == "" || conf.AccessKey == "" || conf.SecretKey == "" || conf.Endpoint == "" {
		return nil, core.NewConfigError("STORAGE_ENDPOINT", "STORAGE_ACCESS_KEY", "STORAGE_SECRET_KEY", "STORAGE_BUCKET")
	}

	endpoint := conf.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	region := conf.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, "")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = conf.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})
	return newS3Store(client, conf.Bucket), nil
}

func newS3Store(client s3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// RemovePrefix deletes every object whose key starts with prefix and returns how many were deleted.
func (s *S3Store) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	if strings.Trim(prefix, "/") == "" {
		return 0, ErrEmptyPrefix
	}

	var removed int
	pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(maxDeleteBatch),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return removed, core.NewUpstreamError("storage", "listing "+prefix, err)
		}

		keys := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			keys = append(keys, types.ObjectIdentifier{Key: obj.Key})
		}
		for start := 0; start < len(keys); start += maxDeleteBatch {
			end := start + maxDeleteBatch
			if end > len(keys) {
				end = len(keys)
			}
			n, err := s.deleteBatch(ctx, keys[start:end])
			removed += n
			if err != nil {
				return removed, err
			}
		}
	}
	return removed, nil
}

func (s *S3Store) deleteBatch(ctx context.Context, keys []types.ObjectIdentifier) (int, error) {
	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: keys, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return 0, core.NewUpstreamError("storage", "deleting objects", err)
	}
	if len(out.Errors) == 0 {
		return len(keys), nil
	}

	msgs := make([]string, 0, len(out.Errors))
	for _, e := range out.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
	}
	return len(keys) - len(out.Errors), core.NewUpstreamError("storage", "deleting objects", errors.New(strings.Join(msgs, "; ")))
}
