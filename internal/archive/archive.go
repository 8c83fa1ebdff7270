// Package archive persists finished safety cards to S3-compatible object
// storage. Archival is best-effort audit output; the pipeline never depends
// on it succeeding.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
	"github.com/mertkaradayi/redflag-sub001/internal/util/jsonutil"
)

var ErrNotFound = fmt.Errorf("archive: object not found")

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Put stores the card as JSON under <key>.json, where key is the cache key
// of the analysis ("packageId@network").
func (s *S3Store) Put(ctx context.Context, key string, card artifact.SafetyCard) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	data, err := jsonutil.MarshalNoEscape(card)
	if err != nil {
		return fmt.Errorf("encode safety card: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey(key), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

// Get retrieves a previously archived card. Used by operational tooling,
// not by the pipeline.
func (s *S3Store) Get(ctx context.Context, key string) (artifact.SafetyCard, error) {
	var card artifact.SafetyCard
	if s == nil {
		return card, fmt.Errorf("store is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return card, fmt.Errorf("key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return card, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return card, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return card, ErrNotFound
		}
		return card, err
	}
	if err := jsonutil.UnmarshalRaw(data, &card); err != nil {
		return card, fmt.Errorf("decode safety card: %w", err)
	}
	return card, nil
}

func objectKey(key string) string {
	return strings.ReplaceAll(key, "@", "/") + ".json"
}
