package fastlyos

import (
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestError_Retryable(t *testing.T) {
	tests := []struct {
		name string
		err  Error
		want bool
	}{
		{"500", Error{StatusCode: 500}, true},
		{"503", Error{StatusCode: 503}, true},
		{"429", Error{StatusCode: 429}, true},
		{"408", Error{StatusCode: 408}, true},
		{"404", Error{StatusCode: 404}, false},
		{"403", Error{StatusCode: 403}, false},
		{"no status, unknown code", Error{Code: CodeUnknown}, false},
		{"SlowDown", Error{Code: "SlowDown"}, true},
		{"Throttling", Error{Code: "Throttling"}, true},
		{"InternalError", Error{Code: "InternalError"}, true},
		{"InvalidBucketName", Error{Code: CodeInvalidBucketName}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapErr_NoSuchKey(t *testing.T) {
	e := wrapErr("GetObject", "b", "k", &types.NoSuchKey{})
	if e.Code != CodeNotFound {
		t.Errorf("expected code NotFound, got %s", e.Code)
	}
	if e.StatusCode != 404 {
		t.Errorf("expected status 404, got %d", e.StatusCode)
	}
	if e.Op != "GetObject" || e.Bucket != "b" || e.Key != "k" {
		t.Errorf("context not preserved: %+v", e)
	}
}

func TestWrapErr_APIErrorCodePassthrough(t *testing.T) {
	cause := &smithyAPIError{code: "BucketNotEmpty", message: "not empty"}
	e := wrapErr("DeleteBucket", "b", "", cause)
	if e.Code != "BucketNotEmpty" {
		t.Errorf("expected backend code preserved, got %s", e.Code)
	}
	if !errors.Is(e, error(cause)) {
		t.Error("expected the cause to remain unwrappable")
	}
}

func TestWrapErr_AlreadyNormalized(t *testing.T) {
	orig := newError("GetObject", "b", "k", CodeEmptyBody, 0, "no payload")
	if got := wrapErr("Outer", "", "", orig); got != orig {
		t.Error("expected already-normalized errors to pass through unchanged")
	}
}

func TestError_String(t *testing.T) {
	e := &Error{Op: "GetObject", Bucket: "b", Key: "k", Code: CodeNotFound, StatusCode: 404, Message: "missing"}
	s := e.Error()
	for _, want := range []string{"GetObject", "b/k", "NotFound", "404", "missing"} {
		if !strings.Contains(s, want) {
			t.Errorf("error string %q missing %q", s, want)
		}
	}
}

func TestAsError(t *testing.T) {
	var err error = newError("Op", "b", "", CodeNotFound, 404, "")
	e, ok := AsError(err)
	if !ok || e.Code != CodeNotFound {
		t.Error("AsError failed to unwrap")
	}
	if _, ok := AsError(errors.New("plain")); ok {
		t.Error("AsError matched a plain error")
	}
}
