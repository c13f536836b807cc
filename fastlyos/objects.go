package fastlyos

import (
	"context"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/padfoot044/fastly-object-storage/internal/validate"
)

// objectOps wraps the object family of calls.
type objectOps struct {
	api API
	log *slog.Logger
}

// checkIdentifiers validates bucket and key uniformly on every entry point.
func checkIdentifiers(op, bucket, key string) *Error {
	if err := validate.BucketName(bucket); err != nil {
		return newError(op, bucket, key, CodeInvalidBucketName, 0, err.Error())
	}
	if err := validate.ObjectKey(key); err != nil {
		return newError(op, bucket, key, CodeInvalidObjectKey, 0, err.Error())
	}
	return nil
}

func (o *objectOps) upload(ctx context.Context, bucket, key string, body io.Reader, opts *UploadOptions) (*UploadResult, error) {
	if err := checkIdentifiers("UploadObject", bucket, key); err != nil {
		return nil, err
	}

	o.log.Debug("uploading object", "bucket", bucket, "key", key)

	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	applyUploadOptions(in, opts)

	out, err := o.api.PutObject(ctx, in)
	if err != nil {
		o.log.Error("upload failed", "bucket", bucket, "key", key, "error", err)
		return nil, wrapErr("UploadObject", bucket, key, err)
	}

	o.log.Info("object uploaded", "bucket", bucket, "key", key, "etag", aws.ToString(out.ETag))
	return &UploadResult{
		ETag:                 aws.ToString(out.ETag),
		VersionID:            aws.ToString(out.VersionId),
		ServerSideEncryption: string(out.ServerSideEncryption),
	}, nil
}

func applyUploadOptions(in *s3.PutObjectInput, opts *UploadOptions) {
	if opts == nil {
		return
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Metadata) > 0 {
		in.Metadata = opts.Metadata
	}
	if opts.CacheControl != "" {
		in.CacheControl = aws.String(opts.CacheControl)
	}
	if opts.ContentDisposition != "" {
		in.ContentDisposition = aws.String(opts.ContentDisposition)
	}
	if opts.ContentEncoding != "" {
		in.ContentEncoding = aws.String(opts.ContentEncoding)
	}
	if opts.ACL != "" {
		in.ACL = types.ObjectCannedACL(opts.ACL)
	}
	if opts.ServerSideEncryption != "" {
		in.ServerSideEncryption = types.ServerSideEncryption(opts.ServerSideEncryption)
	}
	if opts.StorageClass != "" {
		in.StorageClass = types.StorageClass(opts.StorageClass)
	}
}

func (o *objectOps) get(ctx context.Context, bucket, key string, opts *GetOptions) (*GetObjectResult, error) {
	stream, err := o.getStream(ctx, bucket, key, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stream.Body.Close() }()

	data, err := io.ReadAll(stream.Body)
	if err != nil {
		o.log.Error("reading body failed", "bucket", bucket, "key", key, "error", err)
		return nil, wrapErr("GetObject", bucket, key, err)
	}

	res := &GetObjectResult{ObjectMetadata: stream.ObjectMetadata, Body: data}
	if res.ContentLength == 0 {
		res.ContentLength = int64(len(data))
	}
	return res, nil
}

func (o *objectOps) getStream(ctx context.Context, bucket, key string, opts *GetOptions) (*ObjectStream, error) {
	if err := checkIdentifiers("GetObject", bucket, key); err != nil {
		return nil, err
	}

	o.log.Debug("fetching object", "bucket", bucket, "key", key)

	in := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if opts != nil {
		if opts.Range != "" {
			in.Range = aws.String(opts.Range)
		}
		in.IfModifiedSince = opts.IfModifiedSince
		in.IfUnmodifiedSince = opts.IfUnmodifiedSince
		if opts.IfMatch != "" {
			in.IfMatch = aws.String(opts.IfMatch)
		}
		if opts.IfNoneMatch != "" {
			in.IfNoneMatch = aws.String(opts.IfNoneMatch)
		}
	}

	out, err := o.api.GetObject(ctx, in)
	if err != nil {
		o.log.Error("fetch failed", "bucket", bucket, "key", key, "error", err)
		return nil, wrapErr("GetObject", bucket, key, err)
	}
	if out.Body == nil {
		return nil, newError("GetObject", bucket, key, CodeEmptyBody, 0, "backend returned no payload")
	}

	return &ObjectStream{
		ObjectMetadata: ObjectMetadata{
			ContentType:     aws.ToString(out.ContentType),
			ContentEncoding: aws.ToString(out.ContentEncoding),
			ContentLength:   aws.ToInt64(out.ContentLength),
			ETag:            aws.ToString(out.ETag),
			LastModified:    aws.ToTime(out.LastModified),
			Metadata:        out.Metadata,
			StorageClass:    string(out.StorageClass),
		},
		Body: out.Body,
	}, nil
}

// delete issues a single delete. Deleting a non-existent key is whatever
// the backend reports, forwarded as-is.
func (o *objectOps) delete(ctx context.Context, bucket, key string) error {
	if err := checkIdentifiers("DeleteObject", bucket, key); err != nil {
		return err
	}

	o.log.Debug("deleting object", "bucket", bucket, "key", key)

	if _, err := o.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		o.log.Error("delete failed", "bucket", bucket, "key", key, "error", err)
		return wrapErr("DeleteObject", bucket, key, err)
	}

	o.log.Info("object deleted", "bucket", bucket, "key", key)
	return nil
}

func (o *objectOps) copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, opts *CopyOptions) (*CopyResult, error) {
	if err := checkIdentifiers("CopyObject", srcBucket, srcKey); err != nil {
		return nil, err
	}
	if err := checkIdentifiers("CopyObject", dstBucket, dstKey); err != nil {
		return nil, err
	}

	o.log.Debug("copying object",
		"source", srcBucket+"/"+srcKey, "bucket", dstBucket, "key", dstKey)

	in := &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(srcBucket + "/" + srcKey),
	}
	if opts != nil {
		if opts.MetadataDirective != "" {
			in.MetadataDirective = types.MetadataDirective(opts.MetadataDirective)
		}
		if opts.ContentType != "" {
			in.ContentType = aws.String(opts.ContentType)
		}
		if len(opts.Metadata) > 0 {
			in.Metadata = opts.Metadata
		}
	}

	out, err := o.api.CopyObject(ctx, in)
	if err != nil {
		o.log.Error("copy failed", "bucket", dstBucket, "key", dstKey, "error", err)
		return nil, wrapErr("CopyObject", dstBucket, dstKey, err)
	}

	res := &CopyResult{VersionID: aws.ToString(out.VersionId)}
	if out.CopyObjectResult != nil {
		res.ETag = aws.ToString(out.CopyObjectResult.ETag)
	}

	o.log.Info("object copied",
		"source", srcBucket+"/"+srcKey, "bucket", dstBucket, "key", dstKey)
	return res, nil
}

// head fetches object metadata without transferring the body.
func (o *objectOps) head(ctx context.Context, bucket, key string) (*ObjectMetadata, error) {
	if err := checkIdentifiers("HeadObject", bucket, key); err != nil {
		return nil, err
	}

	o.log.Debug("heading object", "bucket", bucket, "key", key)

	out, err := o.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		o.log.Error("head failed", "bucket", bucket, "key", key, "error", err)
		return nil, wrapErr("HeadObject", bucket, key, err)
	}

	return &ObjectMetadata{
		ContentType:     aws.ToString(out.ContentType),
		ContentEncoding: aws.ToString(out.ContentEncoding),
		ContentLength:   aws.ToInt64(out.ContentLength),
		ETag:            aws.ToString(out.ETag),
		LastModified:    aws.ToTime(out.LastModified),
		Metadata:        out.Metadata,
		StorageClass:    string(out.StorageClass),
	}, nil
}

// list returns a single page. The caller loops, feeding
// NextContinuationToken back in until IsTruncated is false.
func (o *objectOps) list(ctx context.Context, bucket string, opts *ListObjectsOptions) (*ListObjectsResult, error) {
	if err := validate.BucketName(bucket); err != nil {
		return nil, newError("ListObjects", bucket, "", CodeInvalidBucketName, 0, err.Error())
	}

	o.log.Debug("listing objects", "bucket", bucket)

	in := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if opts != nil {
		if opts.Prefix != "" {
			in.Prefix = aws.String(opts.Prefix)
		}
		if opts.Delimiter != "" {
			in.Delimiter = aws.String(opts.Delimiter)
		}
		if opts.MaxKeys > 0 {
			in.MaxKeys = aws.Int32(opts.MaxKeys)
		}
		if opts.ContinuationToken != "" {
			in.ContinuationToken = aws.String(opts.ContinuationToken)
		}
		if opts.StartAfter != "" {
			in.StartAfter = aws.String(opts.StartAfter)
		}
	}

	out, err := o.api.ListObjectsV2(ctx, in)
	if err != nil {
		o.log.Error("list failed", "bucket", bucket, "error", err)
		return nil, wrapErr("ListObjects", bucket, "", err)
	}

	res := &ListObjectsResult{
		IsTruncated:           aws.ToBool(out.IsTruncated),
		NextContinuationToken: aws.ToString(out.NextContinuationToken),
		Name:                  aws.ToString(out.Name),
		Prefix:                aws.ToString(out.Prefix),
		MaxKeys:               aws.ToInt32(out.MaxKeys),
		KeyCount:              aws.ToInt32(out.KeyCount),
	}
	for _, obj := range out.Contents {
		res.Contents = append(res.Contents, ObjectSummary{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ETag:         aws.ToString(obj.ETag),
			LastModified: aws.ToTime(obj.LastModified),
			StorageClass: string(obj.StorageClass),
		})
	}
	for _, cp := range out.CommonPrefixes {
		res.CommonPrefixes = append(res.CommonPrefixes, aws.ToString(cp.Prefix))
	}

	o.log.Debug("listed objects", "bucket", bucket, "count", len(res.Contents),
		"truncated", res.IsTruncated)
	return res, nil
}

// listAll drives the continuation-token loop to completion and returns
// every matching object.
func (o *objectOps) listAll(ctx context.Context, bucket, prefix string) ([]ObjectSummary, error) {
	var all []ObjectSummary
	opts := &ListObjectsOptions{Prefix: prefix}

	for {
		page, err := o.list(ctx, bucket, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Contents...)

		if !page.IsTruncated || page.NextContinuationToken == "" {
			break
		}
		opts.ContinuationToken = page.NextContinuationToken
	}

	return all, nil
}
