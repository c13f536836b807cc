package fastlyos

import (
	"errors"
	"fmt"
	"net"
	"strings"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Error codes for failures raised by this layer. Backend failures keep the
// backend's own error code.
const (
	CodeInvalidConfig     = "InvalidConfig"
	CodeInvalidBucketName = "InvalidBucketName"
	CodeInvalidObjectKey  = "InvalidObjectKey"
	CodeNotFound          = "NotFound"
	CodeNoUploadID        = "NoUploadId"
	CodeNoEtag            = "NoEtag"
	CodeEmptyBody         = "EmptyBody"
	CodeUploadNotFound    = "UploadNotFound"
	CodeSerialization     = "SerializationError"
	CodeUnknown           = "Unknown"
)

// Error is the single failure shape surfaced by every operation. It wraps
// the underlying transport or service error with a stable code, the HTTP
// status when one is known, and the operation/bucket/key context.
type Error struct {
	Op         string
	Bucket     string
	Key        string
	Code       string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("fastlyos: ")
	b.WriteString(e.Op)
	if e.Bucket != "" {
		b.WriteString(" ")
		b.WriteString(e.Bucket)
		if e.Key != "" {
			b.WriteString("/")
			b.WriteString(e.Key)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Code)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (http %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// retryableCodes are service error codes that indicate transient conditions.
var retryableCodes = map[string]bool{
	"RequestTimeout":       true,
	"Throttling":           true,
	"ThrottlingException":  true,
	"SlowDown":             true,
	"InternalError":        true,
	"ServiceUnavailable":   true,
	"RequestLimitExceeded": true,
}

// Retryable reports whether the failure is worth retrying: HTTP 5xx, 429,
// 408, known transient service codes, and network timeouts. This layer never
// retries on its own; retry behavior lives in the wrapped SDK client.
func (e *Error) Retryable() bool {
	if e.StatusCode >= 500 || e.StatusCode == 429 || e.StatusCode == 408 {
		return true
	}
	if retryableCodes[e.Code] {
		return true
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// AsError unwraps err into the normalized *Error shape.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// newError builds an Error for a failure detected locally, before or after
// the backend call, with no underlying cause to wrap.
func newError(op, bucket, key, code string, status int, msg string) *Error {
	return &Error{
		Op:         op,
		Bucket:     bucket,
		Key:        key,
		Code:       code,
		StatusCode: status,
		Message:    msg,
	}
}

// wrapErr normalizes a backend failure. The raw SDK error is never surfaced
// directly; callers always see *Error with the backend's code and status.
func wrapErr(op, bucket, key string, err error) *Error {
	if e, ok := AsError(err); ok {
		return e
	}

	e := &Error{
		Op:      op,
		Bucket:  bucket,
		Key:     key,
		Code:    CodeUnknown,
		Message: err.Error(),
		Err:     err,
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		e.StatusCode = respErr.HTTPStatusCode()
	}

	if isNotFound(err) {
		e.Code = CodeNotFound
		if e.StatusCode == 0 {
			e.StatusCode = 404
		}
		return e
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e.Code = apiErr.ErrorCode()
		e.Message = apiErr.ErrorMessage()
	}
	return e
}

// isNotFound checks if an error indicates a missing bucket or object.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "NoSuchBucket" || code == "404"
	}
	return false
}
