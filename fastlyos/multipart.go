package fastlyos

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// uploadSession resolves a backend-issued upload ID back to its bucket and
// key so callers do not repeat them on every part. Tracking is in-memory
// only: an upload started before a process restart can only be resumed by
// querying the backend for outstanding multipart uploads, which this layer
// does not do.
type uploadSession struct {
	bucket string
	key    string
}

// multipartOps wraps the multipart family of calls and tracks live sessions.
type multipartOps struct {
	api API
	log *slog.Logger

	mu       sync.Mutex
	sessions map[string]uploadSession
}

func newMultipartOps(api API, log *slog.Logger) *multipartOps {
	return &multipartOps{
		api:      api,
		log:      log,
		sessions: make(map[string]uploadSession),
	}
}

func (m *multipartOps) lookup(uploadID string) (uploadSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[uploadID]
	return sess, ok
}

func (m *multipartOps) create(ctx context.Context, bucket, key string, opts *CreateMultipartOptions) (*MultipartUpload, error) {
	if err := checkIdentifiers("CreateMultipartUpload", bucket, key); err != nil {
		return nil, err
	}

	m.log.Debug("creating multipart upload", "bucket", bucket, "key", key)

	in := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if opts != nil {
		if opts.ContentType != "" {
			in.ContentType = aws.String(opts.ContentType)
		}
		if len(opts.Metadata) > 0 {
			in.Metadata = opts.Metadata
		}
		if opts.ACL != "" {
			in.ACL = types.ObjectCannedACL(opts.ACL)
		}
		if opts.StorageClass != "" {
			in.StorageClass = types.StorageClass(opts.StorageClass)
		}
	}

	out, err := m.api.CreateMultipartUpload(ctx, in)
	if err != nil {
		m.log.Error("create multipart upload failed", "bucket", bucket, "key", key, "error", err)
		return nil, wrapErr("CreateMultipartUpload", bucket, key, err)
	}

	uploadID := aws.ToString(out.UploadId)
	if uploadID == "" {
		return nil, newError("CreateMultipartUpload", bucket, key, CodeNoUploadID, 0,
			"backend omitted the upload id")
	}

	m.mu.Lock()
	m.sessions[uploadID] = uploadSession{bucket: bucket, key: key}
	m.mu.Unlock()

	m.log.Info("multipart upload created", "bucket", bucket, "key", key, "uploadId", uploadID)
	return &MultipartUpload{UploadID: uploadID, Bucket: bucket, Key: key}, nil
}

// uploadPart sends one part. Part numbers are caller-assigned; the valid
// range [1, 10000] is enforced by the backend, not re-validated here.
func (m *multipartOps) uploadPart(ctx context.Context, uploadID string, partNumber int32, body io.Reader) (*UploadPartResult, error) {
	sess, ok := m.lookup(uploadID)
	if !ok {
		return nil, newError("UploadPart", "", "", CodeUploadNotFound, 0,
			"unknown upload id "+uploadID)
	}

	m.log.Debug("uploading part",
		"bucket", sess.bucket, "key", sess.key, "uploadId", uploadID, "part", partNumber)

	out, err := m.api.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(sess.bucket),
		Key:        aws.String(sess.key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
		Body:       body,
	})
	if err != nil {
		m.log.Error("upload part failed",
			"bucket", sess.bucket, "key", sess.key, "part", partNumber, "error", err)
		return nil, wrapErr("UploadPart", sess.bucket, sess.key, err)
	}

	etag := aws.ToString(out.ETag)
	if etag == "" {
		return nil, newError("UploadPart", sess.bucket, sess.key, CodeNoEtag, 0,
			"backend omitted the part etag")
	}

	return &UploadPartResult{PartNumber: partNumber, ETag: etag}, nil
}

// complete finalizes the upload and removes the session after the backend
// confirms. The caller supplies the complete, correctly ordered part list;
// part validation and reordering happen in the backend.
func (m *multipartOps) complete(ctx context.Context, uploadID string, parts []CompletedPart) (*CompleteMultipartResult, error) {
	sess, ok := m.lookup(uploadID)
	if !ok {
		return nil, newError("CompleteMultipartUpload", "", "", CodeUploadNotFound, 0,
			"unknown upload id "+uploadID)
	}

	m.log.Debug("completing multipart upload",
		"bucket", sess.bucket, "key", sess.key, "uploadId", uploadID, "parts", len(parts))

	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		})
	}

	out, err := m.api.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(sess.bucket),
		Key:             aws.String(sess.key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		m.log.Error("complete multipart upload failed",
			"bucket", sess.bucket, "key", sess.key, "uploadId", uploadID, "error", err)
		return nil, wrapErr("CompleteMultipartUpload", sess.bucket, sess.key, err)
	}

	m.mu.Lock()
	delete(m.sessions, uploadID)
	m.mu.Unlock()

	m.log.Info("multipart upload completed",
		"bucket", sess.bucket, "key", sess.key, "uploadId", uploadID)
	return &CompleteMultipartResult{
		ETag:      aws.ToString(out.ETag),
		VersionID: aws.ToString(out.VersionId),
		Location:  aws.ToString(out.Location),
	}, nil
}

// abort cancels the upload and removes the session after the backend
// confirms.
func (m *multipartOps) abort(ctx context.Context, uploadID string) error {
	sess, ok := m.lookup(uploadID)
	if !ok {
		return newError("AbortMultipartUpload", "", "", CodeUploadNotFound, 0,
			"unknown upload id "+uploadID)
	}

	m.log.Debug("aborting multipart upload",
		"bucket", sess.bucket, "key", sess.key, "uploadId", uploadID)

	if _, err := m.api.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(sess.bucket),
		Key:      aws.String(sess.key),
		UploadId: aws.String(uploadID),
	}); err != nil {
		m.log.Error("abort multipart upload failed",
			"bucket", sess.bucket, "key", sess.key, "uploadId", uploadID, "error", err)
		return wrapErr("AbortMultipartUpload", sess.bucket, sess.key, err)
	}

	m.mu.Lock()
	delete(m.sessions, uploadID)
	m.mu.Unlock()

	m.log.Info("multipart upload aborted",
		"bucket", sess.bucket, "key", sess.key, "uploadId", uploadID)
	return nil
}
