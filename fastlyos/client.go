// Package fastlyos provides a strongly-typed client for Fastly Object
// Storage and other S3-compatible object stores.
//
// The client is a thin orchestration layer: every operation is a single
// outbound request built from caller-supplied parameters, delegated to the
// wrapped aws-sdk-go-v2 S3 client, with the response reshaped into a local
// result type. Request signing, retries, and connection pooling remain the
// SDK's responsibility.
//
// Configuration merges explicit fields, FASTLY_* environment variables, and
// defaults:
//
//	client, err := fastlyos.New(ctx, fastlyos.Config{
//	    Endpoint:        "https://us-east.object.fastlystorage.app",
//	    AccessKeyID:     "key",
//	    SecretAccessKey: "secret",
//	})
//
// Every failure surfaces as *Error with a stable code, the HTTP status when
// one is known, and the operation/bucket/key context. The raw SDK error is
// wrapped, never leaked as the returned type.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Concurrent UploadPart calls for
// the same upload id are not serialized here; the backend is responsible
// for correctness under concurrent part uploads.
package fastlyos

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client is the facade over the four operation groups. Construct with New
// or NewWithClient; Destroy releases the pooled connections.
type Client struct {
	cfg        Config
	httpClient *http.Client
	createTemp func() (*os.File, error) // temp file factory for large-upload spooling

	buckets   *bucketOps
	objects   *objectOps
	multipart *multipartOps
	presigner *presignOps
	log       *slog.Logger
}

// New resolves and validates the configuration, builds the underlying S3
// client, and returns a ready facade. A configuration failure is fatal: no
// underlying client is created.
func New(ctx context.Context, cfg Config) (*Client, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: resolved.Timeout}
	api, err := newS3Client(ctx, resolved, httpClient)
	if err != nil {
		return nil, err
	}

	c := newWithClients(api, s3.NewPresignClient(api), resolved)
	c.httpClient = httpClient
	return c, nil
}

// NewWithClient builds a facade around pre-constructed clients. Intended
// for tests and for callers that manage their own SDK configuration; the
// config is still resolved and validated.
func NewWithClient(api API, presign PresignAPI, cfg Config) (*Client, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	return newWithClients(api, presign, resolved), nil
}

func newWithClients(api API, presign PresignAPI, cfg Config) *Client {
	log := cfg.Logger
	return &Client{
		cfg:        cfg,
		createTemp: func() (*os.File, error) { return os.CreateTemp("", "fastlyos-*") },
		buckets:    &bucketOps{api: api, log: log},
		objects:    &objectOps{api: api, log: log},
		multipart:  newMultipartOps(api, log),
		presigner:  &presignOps{presign: presign, log: log},
		log:        log,
	}
}

// Config returns the resolved configuration the client was built with.
func (c *Client) Config() Config { return c.cfg }

// CreateBucket creates a bucket. ACL and region options are passed through
// to the backend.
func (c *Client) CreateBucket(ctx context.Context, name string, opts *CreateBucketOptions) error {
	return c.buckets.create(ctx, name, opts)
}

// DeleteBucket deletes a bucket. Backend refusals (for example a non-empty
// bucket) are wrapped and surfaced, never silently ignored.
func (c *Client) DeleteBucket(ctx context.Context, name string) error {
	return c.buckets.delete(ctx, name)
}

// ListBuckets returns every bucket with its creation date.
func (c *Client) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	return c.buckets.list(ctx)
}

// GetBucketInfo returns one bucket's info, or a NotFound error.
func (c *Client) GetBucketInfo(ctx context.Context, name string) (*BucketInfo, error) {
	return c.buckets.info(ctx, name)
}

// UploadObject uploads body in a single put.
func (c *Client) UploadObject(ctx context.Context, bucket, key string, body io.Reader, opts *UploadOptions) (*UploadResult, error) {
	return c.objects.upload(ctx, bucket, key, body, opts)
}

// GetObject downloads and fully materializes an object.
func (c *Client) GetObject(ctx context.Context, bucket, key string, opts *GetOptions) (*GetObjectResult, error) {
	return c.objects.get(ctx, bucket, key, opts)
}

// GetObjectStream returns an open byte stream; the caller owns and must
// close the body.
func (c *Client) GetObjectStream(ctx context.Context, bucket, key string, opts *GetOptions) (*ObjectStream, error) {
	return c.objects.getStream(ctx, bucket, key, opts)
}

// DeleteObject deletes an object.
func (c *Client) DeleteObject(ctx context.Context, bucket, key string) error {
	return c.objects.delete(ctx, bucket, key)
}

// CopyObject performs a server-side copy.
func (c *Client) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, opts *CopyOptions) (*CopyResult, error) {
	return c.objects.copy(ctx, srcBucket, srcKey, dstBucket, dstKey, opts)
}

// HeadObject returns object metadata without transferring the body.
func (c *Client) HeadObject(ctx context.Context, bucket, key string) (*ObjectMetadata, error) {
	return c.objects.head(ctx, bucket, key)
}

// ListObjects returns one listing page.
func (c *Client) ListObjects(ctx context.Context, bucket string, opts *ListObjectsOptions) (*ListObjectsResult, error) {
	return c.objects.list(ctx, bucket, opts)
}

// ListAllObjects drives pagination to completion.
func (c *Client) ListAllObjects(ctx context.Context, bucket, prefix string) ([]ObjectSummary, error) {
	return c.objects.listAll(ctx, bucket, prefix)
}

// CreateMultipartUpload initiates a multipart upload and registers the
// returned upload id.
func (c *Client) CreateMultipartUpload(ctx context.Context, bucket, key string, opts *CreateMultipartOptions) (*MultipartUpload, error) {
	return c.multipart.create(ctx, bucket, key, opts)
}

// UploadPart uploads one part of a tracked multipart upload.
func (c *Client) UploadPart(ctx context.Context, uploadID string, partNumber int32, body io.Reader) (*UploadPartResult, error) {
	return c.multipart.uploadPart(ctx, uploadID, partNumber, body)
}

// CompleteMultipartUpload finalizes a tracked multipart upload.
func (c *Client) CompleteMultipartUpload(ctx context.Context, uploadID string, parts []CompletedPart) (*CompleteMultipartResult, error) {
	return c.multipart.complete(ctx, uploadID, parts)
}

// AbortMultipartUpload cancels a tracked multipart upload.
func (c *Client) AbortMultipartUpload(ctx context.Context, uploadID string) error {
	return c.multipart.abort(ctx, uploadID)
}

// GetPresignedDownloadURL signs a time-limited read URL.
func (c *Client) GetPresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	return c.presigner.downloadURL(ctx, bucket, key, expires)
}

// GetPresignedUploadURL signs a time-limited write URL.
func (c *Client) GetPresignedUploadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	return c.presigner.uploadURL(ctx, bucket, key, expires)
}

// Destroy releases the pooled connections owned by the client. Call exactly
// once; operations after Destroy are undefined.
func (c *Client) Destroy() {
	c.log.Debug("destroying client")
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
}
