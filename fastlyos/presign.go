package fastlyos

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// presignOps wraps the request-signing family of calls. Signing is local;
// no URL caching or reuse happens here.
type presignOps struct {
	presign PresignAPI
	log     *slog.Logger
}

// downloadURL signs a read request with the given lifetime and returns the
// absolute URL.
func (p *presignOps) downloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if err := checkIdentifiers("GetPresignedDownloadURL", bucket, key); err != nil {
		return "", err
	}

	p.log.Debug("presigning download", "bucket", bucket, "key", key, "expires", expires)

	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		p.log.Error("presign download failed", "bucket", bucket, "key", key, "error", err)
		return "", wrapErr("GetPresignedDownloadURL", bucket, key, err)
	}

	return req.URL, nil
}

// uploadURL signs a write request with the given lifetime and returns the
// absolute URL.
func (p *presignOps) uploadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if err := checkIdentifiers("GetPresignedUploadURL", bucket, key); err != nil {
		return "", err
	}

	p.log.Debug("presigning upload", "bucket", bucket, "key", key, "expires", expires)

	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		p.log.Error("presign upload failed", "bucket", bucket, "key", key, "error", err)
		return "", wrapErr("GetPresignedUploadURL", bucket, key, err)
	}

	return req.URL, nil
}
