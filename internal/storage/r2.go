package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Config holds the Cloudflare R2 (S3 compatible) settings.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Endpoint overrides the account derived endpoint.
	Endpoint string
}

// R2Store keeps media in an R2 bucket.
type R2Store struct {
	client *s3.Client
	bucket string
}

// NewR2Store constructs an S3 client pointed at R2.
func NewR2Store(ctx context.Context, cfg R2Config) (*R2Store, error) {
	if cfg.Bucket == "" || (cfg.AccountID == "" && cfg.Endpoint == "") {
		return nil, Error.New("missing R2 bucket or account")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, Error.New("failed to load AWS config for R2: %v", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(strings.TrimSuffix(endpoint, "/"))
		o.UsePathStyle = true
	})

	return &R2Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *R2Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return Error.New("failed to upload %q to r2: %v", key, err)
	}
	return nil
}

// Delete removes an object; S3 semantics already treat a missing key as success.
func (s *R2Store) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Error.New("failed to delete %q from r2: %v", key, err)
	}
	return nil
}
