package fastlyos

import (
	"context"
	"io"
	"os"
	"time"
)

// S3 multipart upload constraints.
const (
	// minPartSize is the minimum part size for multipart uploads (except
	// the last part).
	minPartSize = 5 * 1024 * 1024 // 5MB

	// maxParts is the maximum number of parts allowed in one upload.
	maxParts = 10000

	// maxObjectSize is the S3 service limit for a single object.
	maxObjectSize = 5 * 1024 * 1024 * 1024 * 1024 // 5TB
)

// UploadLargeObject streams body through an orchestrated multipart upload:
// initiate, upload parts of partSize, complete. On any part failure the
// upload is aborted before the error is returned.
//
// The body is spooled to a temp file first so parts can be read by section
// with O(1) memory usage and so the total size is known up front. partSize
// values of zero or less select the 5MB minimum; sizes that would exceed
// 10,000 parts are scaled up automatically.
func (c *Client) UploadLargeObject(ctx context.Context, bucket, key string, body io.Reader, partSize int64, opts *CreateMultipartOptions) (*CompleteMultipartResult, error) {
	if err := checkIdentifiers("UploadLargeObject", bucket, key); err != nil {
		return nil, err
	}

	tmpFile, err := c.createTemp()
	if err != nil {
		return nil, wrapErr("UploadLargeObject", bucket, key, err)
	}
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
	}()

	size, err := io.Copy(tmpFile, body)
	if err != nil {
		return nil, wrapErr("UploadLargeObject", bucket, key, err)
	}
	if size > maxObjectSize {
		return nil, newError("UploadLargeObject", bucket, key, CodeUnknown, 0,
			"object exceeds the 5TB service limit")
	}

	if partSize <= 0 {
		partSize = minPartSize
	}
	// Scale up to stay under the part-count limit: ceil(size / maxParts).
	if size > partSize*maxParts {
		partSize = (size + maxParts - 1) / maxParts
	}

	upload, err := c.multipart.create(ctx, bucket, key, opts)
	if err != nil {
		return nil, err
	}

	// Abort on failure. Uses a background context so cleanup still runs
	// when the original context was canceled.
	abortUpload := func() {
		abortCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = c.multipart.abort(abortCtx, upload.UploadID)
	}

	var parts []CompletedPart
	var offset int64
	partNum := int32(0)
	for offset < size {
		partNum++
		thisPartSize := partSize
		if remaining := size - offset; remaining < thisPartSize {
			thisPartSize = remaining
		}

		partReader := io.NewSectionReader(tmpFile, offset, thisPartSize)
		res, err := c.multipart.uploadPart(ctx, upload.UploadID, partNum, partReader)
		if err != nil {
			abortUpload()
			return nil, err
		}
		parts = append(parts, CompletedPart{PartNumber: res.PartNumber, ETag: res.ETag})

		offset += thisPartSize
	}

	result, err := c.multipart.complete(ctx, upload.UploadID, parts)
	if err != nil {
		abortUpload()
		return nil, err
	}
	return result, nil
}
