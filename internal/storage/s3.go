package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store backs files with an S3-compatible object store (AWS S3 or
// DigitalOcean Spaces). Object ACLs carry the public/private visibility and
// private objects are served through presigned URLs.
type S3Store struct {
	name     string
	client   *minio.Client
	bucket   string
	folder   string
	endpoint string
	useSSL   bool
}

// S3Options configures an S3-compatible store.
type S3Options struct {
	Name     string
	Endpoint string
	Region   string
	Bucket   string
	Folder   string
	Key      string
	Secret   string
	UseSSL   bool
}

// NewS3Store connects a store to an S3-compatible endpoint.
func NewS3Store(opts S3Options) (*S3Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.Key, opts.Secret, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Name, err)
	}

	return &S3Store{
		name:     opts.Name,
		client:   client,
		bucket:   opts.Bucket,
		folder:   opts.Folder,
		endpoint: opts.Endpoint,
		useSSL:   opts.UseSSL,
	}, nil
}

func (s *S3Store) Name() string   { return s.name }
func (s *S3Store) Folder() string { return s.folder }

func (s *S3Store) Put(folder, sourcePath, fileName, visibility string) (string, error) {
	relative := fileName
	if folder != "" {
		relative = folder + "/" + fileName
	}

	opts := minio.PutObjectOptions{}
	if visibility == VisibilityPublic {
		opts.UserMetadata = map[string]string{"x-amz-acl": "public-read"}
	}

	if _, err := s.client.FPutObject(context.Background(), s.bucket, relative, sourcePath, opts); err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return relative, nil
}

func (s *S3Store) Delete(path string) error {
	return s.client.RemoveObject(context.Background(), s.bucket, path, minio.RemoveObjectOptions{})
}

func (s *S3Store) SetVisibility(path, visibility string) error {
	// S3 has no in-place ACL rewrite through the object API we use; copy the
	// object onto itself with the new canned ACL.
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: path}
	dst := minio.CopyDestOptions{
		Bucket:          s.bucket,
		Object:          path,
		ReplaceMetadata: true,
		UserMetadata:    map[string]string{"x-amz-acl": cannedACL(visibility)},
	}
	_, err := s.client.CopyObject(context.Background(), dst, src)
	return err
}

func cannedACL(visibility string) string {
	if visibility == VisibilityPrivate {
		return "private"
	}
	return "public-read"
}

func (s *S3Store) URL(path string) string {
	scheme := "https"
	if !s.useSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, strings.TrimPrefix(path, "/"))
}

func (s *S3Store) TemporaryURL(path string, ttl time.Duration) (string, error) {
	signed, err := s.client.PresignedGetObject(context.Background(), s.bucket, path, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return signed.String(), nil
}
