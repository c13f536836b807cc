// Package validate provides syntactic checks for bucket names and object
// keys. Checks run locally, before any request is issued; the backend
// remains the final authority on identifiers it accepts.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// S3 identifier limits.
const (
	minBucketNameLen = 3
	maxBucketNameLen = 63

	// maxObjectKeyLen is the S3 key length limit in bytes.
	maxObjectKeyLen = 1024
)

// bucketNameRE matches lowercase DNS-style bucket names: must start and end
// with a letter or digit, with dots and hyphens allowed in between.
var bucketNameRE = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

// BucketName reports whether name is a syntactically valid bucket name.
func BucketName(name string) error {
	if len(name) < minBucketNameLen || len(name) > maxBucketNameLen {
		return fmt.Errorf("bucket name must be %d-%d characters, got %d",
			minBucketNameLen, maxBucketNameLen, len(name))
	}
	if !bucketNameRE.MatchString(name) {
		return fmt.Errorf("bucket name %q contains invalid characters", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("bucket name %q contains consecutive dots", name)
	}
	return nil
}

// ObjectKey reports whether key is a syntactically valid object key.
func ObjectKey(key string) error {
	if key == "" {
		return fmt.Errorf("object key must not be empty")
	}
	if len(key) > maxObjectKeyLen {
		return fmt.Errorf("object key exceeds %d bytes, got %d", maxObjectKeyLen, len(key))
	}
	return nil
}
