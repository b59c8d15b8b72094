package s3infra

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNotDataURI is returned by ParseDataURI for values that are not base64 data URIs.
var ErrNotDataURI = errors.New("not a base64 data URI")

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store keeps notification images in a single bucket.
type Store struct {
	objects   objectAPI
	presigner *s3.PresignClient
	bucket    string
	ttl       time.Duration
}

// NewClient creates an S3 client. When endpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(awsCfg aws.Config, endpointURL string) *s3.Client {
	var clientOpts []func(*s3.Options)
	if endpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...)
}

// NewStore creates a Store; presigned URLs live for ttl.
func NewStore(client *s3.Client, bucket string, ttl time.Duration) *Store {
	return &Store{
		objects:   client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		ttl:       ttl,
	}
}

// UploadDataURI decodes a base64 data URI and stores it under prefix.
// It returns the object key.
func (s *Store) UploadDataURI(ctx context.Context, prefix, name, dataURI string) (string, error) {
	contentType, data, err := ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	key := path.Join(prefix, name+extensionFor(contentType))
	_, err = s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return key, nil
}

// PresignedURL generates a time-limited GET URL for key.
func (s *Store) PresignedURL(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}
	return req.URL, nil
}

// Delete removes an object. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// ParseDataURI splits "data:<mime>;base64,<payload>" into content type and bytes.
func ParseDataURI(v string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(v, "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrNotDataURI
	}
	contentType := strings.TrimSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: decode base64: %v", ErrNotDataURI, err)
	}
	return contentType, data, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
