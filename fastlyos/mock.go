package fastlyos

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// -----------------------------------------------------------------------------
// Mock S3 Client for Testing
// -----------------------------------------------------------------------------

// mockObject is one stored object with its descriptive fields.
type mockObject struct {
	data               []byte
	etag               string
	contentType        string
	contentEncoding    string
	cacheControl       string
	contentDisposition string
	metadata           map[string]string
	storageClass       string
	sse                string
	lastModified       time.Time
}

// mockMultipartUpload tracks an in-progress multipart upload.
type mockMultipartUpload struct {
	bucket string
	key    string
	parts  map[int32][]byte
	etags  map[int32]string
}

// MockS3Client is a test double for API and PresignAPI. It keeps buckets,
// objects, and multipart uploads in memory and is safe for concurrent use.
type MockS3Client struct {
	mu       sync.RWMutex
	buckets  map[string]time.Time
	objects  map[string]map[string]*mockObject // bucket -> key -> object
	uploads  map[string]*mockMultipartUpload   // uploadID -> upload
	uploadID int

	// Call counters for test assertions.
	PutObjectCalls             int
	CreateMultipartUploadCalls int
	AbortMultipartUploadCalls  int

	// UploadPartFailOnCall causes UploadPart to fail on the Nth call.
	// Set to 0 to disable (default).
	UploadPartFailOnCall int
	uploadPartCalls      int

	// OmitUploadID makes CreateMultipartUpload respond without an upload id.
	OmitUploadID bool

	// OmitPartETag makes UploadPart respond without an ETag.
	OmitPartETag bool

	// ReturnEmptyBody makes GetObject respond with a nil body.
	ReturnEmptyBody bool
}

// NewMockS3Client creates a new mock S3 client for testing.
func NewMockS3Client() *MockS3Client {
	return &MockS3Client{
		buckets: make(map[string]time.Time),
		objects: make(map[string]map[string]*mockObject),
		uploads: make(map[string]*mockMultipartUpload),
	}
}

// ResetCounts resets call counters for test isolation.
func (m *MockS3Client) ResetCounts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutObjectCalls = 0
	m.CreateMultipartUploadCalls = 0
	m.AbortMultipartUploadCalls = 0
	m.uploadPartCalls = 0
}

func etagFor(data []byte) string {
	return fmt.Sprintf("%q", fmt.Sprintf("%x", md5.Sum(data)))
}

// -----------------------------------------------------------------------------
// Bucket operations
// -----------------------------------------------------------------------------

func (m *MockS3Client) CreateBucket(_ context.Context, params *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	name := aws.ToString(params.Bucket)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.buckets[name]; exists {
		return nil, &smithyAPIError{code: "BucketAlreadyOwnedByYou", message: "bucket already exists"}
	}
	m.buckets[name] = time.Now().UTC()
	m.objects[name] = make(map[string]*mockObject)

	return &s3.CreateBucketOutput{Location: aws.String("/" + name)}, nil
}

func (m *MockS3Client) DeleteBucket(_ context.Context, params *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	name := aws.ToString(params.Bucket)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.buckets[name]; !exists {
		return nil, &types.NoSuchBucket{}
	}
	if len(m.objects[name]) > 0 {
		return nil, &smithyAPIError{code: "BucketNotEmpty", message: "the bucket you tried to delete is not empty"}
	}
	delete(m.buckets, name)
	delete(m.objects, name)

	return &s3.DeleteBucketOutput{}, nil
}

func (m *MockS3Client) ListBuckets(_ context.Context, _ *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	buckets := make([]types.Bucket, 0, len(names))
	for _, name := range names {
		created := m.buckets[name]
		buckets = append(buckets, types.Bucket{
			Name:         aws.String(name),
			CreationDate: aws.Time(created),
		})
	}

	return &s3.ListBucketsOutput{Buckets: buckets}, nil
}

func (m *MockS3Client) HeadBucket(_ context.Context, params *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	name := aws.ToString(params.Bucket)

	m.mu.RLock()
	_, exists := m.buckets[name]
	m.mu.RUnlock()

	if !exists {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

// -----------------------------------------------------------------------------
// Object operations
// -----------------------------------------------------------------------------

func (m *MockS3Client) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	bucket := aws.ToString(params.Bucket)
	key := aws.ToString(params.Key)

	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.PutObjectCalls++

	objs, exists := m.objects[bucket]
	if !exists {
		return nil, &types.NoSuchBucket{}
	}

	obj := &mockObject{
		data:               data,
		etag:               etagFor(data),
		contentType:        aws.ToString(params.ContentType),
		contentEncoding:    aws.ToString(params.ContentEncoding),
		cacheControl:       aws.ToString(params.CacheControl),
		contentDisposition: aws.ToString(params.ContentDisposition),
		metadata:           params.Metadata,
		storageClass:       string(params.StorageClass),
		sse:                string(params.ServerSideEncryption),
		lastModified:       time.Now().UTC(),
	}
	objs[key] = obj

	out := &s3.PutObjectOutput{ETag: aws.String(obj.etag)}
	if obj.sse != "" {
		out.ServerSideEncryption = types.ServerSideEncryption(obj.sse)
	}
	return out, nil
}

func (m *MockS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	bucket := aws.ToString(params.Bucket)
	key := aws.ToString(params.Key)

	m.mu.RLock()
	objs, bucketExists := m.objects[bucket]
	var obj *mockObject
	if bucketExists {
		obj = objs[key]
	}
	empty := m.ReturnEmptyBody
	m.mu.RUnlock()

	if !bucketExists {
		return nil, &types.NoSuchBucket{}
	}
	if obj == nil {
		return nil, &types.NoSuchKey{}
	}

	data := obj.data
	if params.Range != nil {
		rangeStr := aws.ToString(params.Range)
		var start, end int64
		_, _ = fmt.Sscanf(rangeStr, "bytes=%d-%d", &start, &end)
		if start >= int64(len(data)) {
			return nil, &smithyAPIError{code: "InvalidRange"}
		}
		if end >= int64(len(data)) {
			end = int64(len(data)) - 1
		}
		data = data[start : end+1]
	}

	out := &s3.GetObjectOutput{
		ContentLength: aws.Int64(int64(len(data))),
		ETag:          aws.String(obj.etag),
		LastModified:  aws.Time(obj.lastModified),
		Metadata:      obj.metadata,
	}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	if obj.contentEncoding != "" {
		out.ContentEncoding = aws.String(obj.contentEncoding)
	}
	if obj.storageClass != "" {
		out.StorageClass = types.StorageClass(obj.storageClass)
	}
	if !empty {
		out.Body = io.NopCloser(bytes.NewReader(data))
	}
	return out, nil
}

func (m *MockS3Client) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	bucket := aws.ToString(params.Bucket)
	key := aws.ToString(params.Key)

	m.mu.RLock()
	defer m.mu.RUnlock()

	objs, bucketExists := m.objects[bucket]
	if !bucketExists {
		return nil, &types.NoSuchBucket{}
	}
	obj, exists := objs[key]
	if !exists {
		return nil, &types.NotFound{}
	}

	out := &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ETag:          aws.String(obj.etag),
		LastModified:  aws.Time(obj.lastModified),
		Metadata:      obj.metadata,
	}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	if obj.contentEncoding != "" {
		out.ContentEncoding = aws.String(obj.contentEncoding)
	}
	if obj.storageClass != "" {
		out.StorageClass = types.StorageClass(obj.storageClass)
	}
	return out, nil
}

func (m *MockS3Client) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	bucket := aws.ToString(params.Bucket)
	key := aws.ToString(params.Key)

	m.mu.Lock()
	defer m.mu.Unlock()

	objs, exists := m.objects[bucket]
	if !exists {
		return nil, &types.NoSuchBucket{}
	}
	// S3 DeleteObject is idempotent; missing keys do not error.
	delete(objs, key)

	return &s3.DeleteObjectOutput{}, nil
}

func (m *MockS3Client) CopyObject(_ context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	source := aws.ToString(params.CopySource)
	dstBucket := aws.ToString(params.Bucket)
	dstKey := aws.ToString(params.Key)

	srcBucket, srcKey, ok := strings.Cut(source, "/")
	if !ok {
		return nil, &smithyAPIError{code: "InvalidArgument", message: "malformed copy source"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	srcObjs, exists := m.objects[srcBucket]
	if !exists {
		return nil, &types.NoSuchBucket{}
	}
	src, exists := srcObjs[srcKey]
	if !exists {
		return nil, &types.NoSuchKey{}
	}
	dstObjs, exists := m.objects[dstBucket]
	if !exists {
		return nil, &types.NoSuchBucket{}
	}

	dst := *src
	dst.lastModified = time.Now().UTC()
	if params.MetadataDirective == types.MetadataDirectiveReplace {
		dst.metadata = params.Metadata
		if params.ContentType != nil {
			dst.contentType = aws.ToString(params.ContentType)
		}
	}
	dstObjs[dstKey] = &dst

	return &s3.CopyObjectOutput{
		CopyObjectResult: &types.CopyObjectResult{
			ETag:         aws.String(dst.etag),
			LastModified: aws.Time(dst.lastModified),
		},
	}, nil
}

func (m *MockS3Client) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	bucket := aws.ToString(params.Bucket)
	prefix := aws.ToString(params.Prefix)
	delimiter := aws.ToString(params.Delimiter)
	startAfter := aws.ToString(params.StartAfter)
	token := aws.ToString(params.ContinuationToken)

	maxKeys := int32(1000)
	if params.MaxKeys != nil && *params.MaxKeys > 0 {
		maxKeys = *params.MaxKeys
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	objs, exists := m.objects[bucket]
	if !exists {
		return nil, &types.NoSuchBucket{}
	}

	keys := make([]string, 0, len(objs))
	for key := range objs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	// The continuation token is the last key of the previous page; listing
	// resumes strictly after it. StartAfter behaves the same way.
	resumeAfter := startAfter
	if token != "" {
		resumeAfter = token
	}

	var contents []types.Object
	var commonPrefixes []string
	seenPrefixes := make(map[string]bool)
	truncated := false
	var lastKey string

	for _, key := range keys {
		if resumeAfter != "" && key <= resumeAfter {
			continue
		}

		// Keys containing the delimiter past the prefix roll up into a
		// common prefix instead of appearing as contents.
		if delimiter != "" {
			rest := strings.TrimPrefix(key, prefix)
			if idx := strings.Index(rest, delimiter); idx >= 0 {
				cp := prefix + rest[:idx+len(delimiter)]
				if !seenPrefixes[cp] {
					if int32(len(contents)+len(seenPrefixes)) >= maxKeys {
						truncated = true
						break
					}
					seenPrefixes[cp] = true
					commonPrefixes = append(commonPrefixes, cp)
					lastKey = key
				}
				continue
			}
		}

		if int32(len(contents)+len(seenPrefixes)) >= maxKeys {
			truncated = true
			break
		}
		obj := objs[key]
		contents = append(contents, types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.data))),
			ETag:         aws.String(obj.etag),
			LastModified: aws.Time(obj.lastModified),
		})
		lastKey = key
	}

	out := &s3.ListObjectsV2Output{
		Contents:    contents,
		IsTruncated: aws.Bool(truncated),
		Name:        aws.String(bucket),
		MaxKeys:     aws.Int32(maxKeys),
		KeyCount:    aws.Int32(int32(len(contents) + len(commonPrefixes))),
	}
	if prefix != "" {
		out.Prefix = aws.String(prefix)
	}
	for _, cp := range commonPrefixes {
		out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(cp)})
	}
	if truncated {
		out.NextContinuationToken = aws.String(lastKey)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Multipart operations
// -----------------------------------------------------------------------------

func (m *MockS3Client) CreateMultipartUpload(_ context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	bucket := aws.ToString(params.Bucket)
	key := aws.ToString(params.Key)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateMultipartUploadCalls++

	if _, exists := m.buckets[bucket]; !exists {
		return nil, &types.NoSuchBucket{}
	}

	if m.OmitUploadID {
		return &s3.CreateMultipartUploadOutput{
			Bucket: params.Bucket,
			Key:    params.Key,
		}, nil
	}

	m.uploadID++
	uploadID := fmt.Sprintf("upload-%d", m.uploadID)
	m.uploads[uploadID] = &mockMultipartUpload{
		bucket: bucket,
		key:    key,
		parts:  make(map[int32][]byte),
		etags:  make(map[int32]string),
	}

	return &s3.CreateMultipartUploadOutput{
		Bucket:   params.Bucket,
		Key:      params.Key,
		UploadId: aws.String(uploadID),
	}, nil
}

func (m *MockS3Client) UploadPart(_ context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	uploadID := aws.ToString(params.UploadId)
	partNum := aws.ToInt32(params.PartNumber)

	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.uploadPartCalls++
	if m.UploadPartFailOnCall > 0 && m.uploadPartCalls >= m.UploadPartFailOnCall {
		return nil, &smithyAPIError{code: "InternalError", message: "simulated upload part failure"}
	}

	upload, exists := m.uploads[uploadID]
	if !exists {
		return nil, &smithyAPIError{code: "NoSuchUpload", message: "upload not found"}
	}

	upload.parts[partNum] = data

	if m.OmitPartETag {
		return &s3.UploadPartOutput{}, nil
	}

	etag := etagFor(data)
	upload.etags[partNum] = etag
	return &s3.UploadPartOutput{ETag: aws.String(etag)}, nil
}

func (m *MockS3Client) CompleteMultipartUpload(_ context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	uploadID := aws.ToString(params.UploadId)

	m.mu.Lock()
	defer m.mu.Unlock()

	upload, exists := m.uploads[uploadID]
	if !exists {
		return nil, &smithyAPIError{code: "NoSuchUpload", message: "upload not found"}
	}

	// Assemble parts in the caller-supplied order.
	var assembled []byte
	if params.MultipartUpload != nil {
		for _, p := range params.MultipartUpload.Parts {
			assembled = append(assembled, upload.parts[aws.ToInt32(p.PartNumber)]...)
		}
	}

	objs, exists := m.objects[upload.bucket]
	if !exists {
		return nil, &types.NoSuchBucket{}
	}
	obj := &mockObject{
		data:         assembled,
		etag:         etagFor(assembled),
		lastModified: time.Now().UTC(),
	}
	objs[upload.key] = obj
	delete(m.uploads, uploadID)

	return &s3.CompleteMultipartUploadOutput{
		Bucket:   aws.String(upload.bucket),
		Key:      aws.String(upload.key),
		ETag:     aws.String(obj.etag),
		Location: aws.String(fmt.Sprintf("https://%s.mock.fastlystorage.app/%s", upload.bucket, upload.key)),
	}, nil
}

func (m *MockS3Client) AbortMultipartUpload(_ context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	uploadID := aws.ToString(params.UploadId)

	m.mu.Lock()
	m.AbortMultipartUploadCalls++
	delete(m.uploads, uploadID)
	m.mu.Unlock()

	return &s3.AbortMultipartUploadOutput{}, nil
}

// -----------------------------------------------------------------------------
// Presign operations
// -----------------------------------------------------------------------------

func (m *MockS3Client) presignURL(method, bucket, key string, optFns []func(*s3.PresignOptions)) *v4.PresignedHTTPRequest {
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	return &v4.PresignedHTTPRequest{
		URL: fmt.Sprintf("https://%s.mock.fastlystorage.app/%s?X-Amz-Expires=%d",
			bucket, key, int(opts.Expires.Seconds())),
		Method: method,
	}
}

func (m *MockS3Client) PresignGetObject(_ context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return m.presignURL("GET", aws.ToString(params.Bucket), aws.ToString(params.Key), optFns), nil
}

func (m *MockS3Client) PresignPutObject(_ context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return m.presignURL("PUT", aws.ToString(params.Bucket), aws.ToString(params.Key), optFns), nil
}

// Compile-time checks: the mock satisfies both client interfaces.
var (
	_ API        = (*MockS3Client)(nil)
	_ PresignAPI = (*MockS3Client)(nil)
)

// smithyAPIError implements smithy.APIError for testing.
type smithyAPIError struct {
	code    string
	message string
}

func (e *smithyAPIError) Error() string {
	return e.message
}

func (e *smithyAPIError) ErrorCode() string {
	return e.code
}

func (e *smithyAPIError) ErrorMessage() string {
	return e.message
}

func (e *smithyAPIError) ErrorFault() smithy.ErrorFault {
	return smithy.FaultUnknown
}
