package fastlyos

import (
	"io"
	"time"
)

// BucketInfo describes one bucket as reported by a listing call.
type BucketInfo struct {
	Name         string
	CreationDate time.Time
}

// CreateBucketOptions configures bucket creation. ACL and Region are
// passed through to the backend unmodified; values this layer does not
// enumerate are still forwarded.
type CreateBucketOptions struct {
	ACL    string
	Region string
}

// UploadOptions configures an object upload. All fields are forwarded to
// the backend unmodified.
type UploadOptions struct {
	ContentType          string
	Metadata             map[string]string
	CacheControl         string
	ContentDisposition   string
	ContentEncoding      string
	ACL                  string
	ServerSideEncryption string
	StorageClass         string
}

// UploadResult describes a completed upload.
type UploadResult struct {
	ETag                 string
	VersionID            string
	ServerSideEncryption string
}

// GetOptions carries conditional-request fields for downloads. They are
// forwarded to the backend; conditional logic is not reimplemented here.
type GetOptions struct {
	Range             string
	IfModifiedSince   *time.Time
	IfUnmodifiedSince *time.Time
	IfMatch           string
	IfNoneMatch       string
}

// ObjectMetadata holds descriptive facts about a stored object. It is
// reconstructed fresh from each response and never cached.
type ObjectMetadata struct {
	ContentType     string
	ContentEncoding string
	ContentLength   int64
	ETag            string
	LastModified    time.Time
	Metadata        map[string]string
	StorageClass    string
}

// GetObjectResult is a fully materialized download.
type GetObjectResult struct {
	ObjectMetadata
	Body []byte
}

// ObjectStream is an open, not-yet-consumed download. The caller owns Body
// and must close it.
type ObjectStream struct {
	ObjectMetadata
	Body io.ReadCloser
}

// Metadata directives for CopyObject.
const (
	MetadataDirectiveCopy    = "COPY"
	MetadataDirectiveReplace = "REPLACE"
)

// CopyOptions configures a server-side copy.
type CopyOptions struct {
	// MetadataDirective is COPY (default) or REPLACE.
	MetadataDirective string
	ContentType       string
	Metadata          map[string]string
}

// CopyResult describes a completed copy.
type CopyResult struct {
	ETag      string
	VersionID string
}

// ListObjectsOptions configures one page of a listing. Pagination is
// cursor-based and caller-driven: feed NextContinuationToken back in until
// IsTruncated is false.
type ListObjectsOptions struct {
	Prefix            string
	Delimiter         string
	MaxKeys           int32
	ContinuationToken string
	StartAfter        string
}

// ObjectSummary describes one object in a listing page.
type ObjectSummary struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
	StorageClass string
}

// ListObjectsResult is one page of a listing.
type ListObjectsResult struct {
	Contents              []ObjectSummary
	CommonPrefixes        []string
	IsTruncated           bool
	NextContinuationToken string
	Name                  string
	Prefix                string
	MaxKeys               int32
	KeyCount              int32
}

// MultipartUpload identifies an in-progress multipart upload. The upload ID
// is an opaque token issued by the backend.
type MultipartUpload struct {
	UploadID string
	Bucket   string
	Key      string
}

// CreateMultipartOptions configures multipart upload initiation.
type CreateMultipartOptions struct {
	ContentType  string
	Metadata     map[string]string
	ACL          string
	StorageClass string
}

// UploadPartResult describes one uploaded part.
type UploadPartResult struct {
	PartNumber int32
	ETag       string
}

// CompletedPart is the caller-assembled record of an uploaded part, passed
// to CompleteMultipartUpload. The caller is responsible for ordering and
// collecting the full list.
type CompletedPart struct {
	PartNumber int32
	ETag       string
}

// CompleteMultipartResult describes a completed multipart upload.
type CompleteMultipartResult struct {
	ETag      string
	VersionID string
	Location  string
}
