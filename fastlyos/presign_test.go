package fastlyos

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPresignedDownloadURL(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, NewMockS3Client())

	url, err := c.GetPresignedDownloadURL(ctx, "test-bucket", "f.txt", 15*time.Minute)
	if err != nil {
		t.Fatalf("GetPresignedDownloadURL failed: %v", err)
	}
	if !strings.HasPrefix(url, "https://") {
		t.Errorf("expected an absolute URL, got %q", url)
	}
	if !strings.Contains(url, "test-bucket") || !strings.Contains(url, "f.txt") {
		t.Errorf("URL missing bucket/key: %q", url)
	}
	if !strings.Contains(url, "X-Amz-Expires=900") {
		t.Errorf("URL missing expiry: %q", url)
	}
}

func TestPresignedUploadURL(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, NewMockS3Client())

	url, err := c.GetPresignedUploadURL(ctx, "test-bucket", "f.txt", time.Hour)
	if err != nil {
		t.Fatalf("GetPresignedUploadURL failed: %v", err)
	}
	if !strings.Contains(url, "X-Amz-Expires=3600") {
		t.Errorf("URL missing expiry: %q", url)
	}
}

func TestPresignedURL_Deterministic(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, NewMockS3Client())

	a, err := c.GetPresignedDownloadURL(ctx, "test-bucket", "f.txt", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.GetPresignedDownloadURL(ctx, "test-bucket", "f.txt", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("identical inputs produced different URLs:\n%s\n%s", a, b)
	}
}

func TestPresignedURL_InvalidIdentifiers(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, NewMockS3Client())

	_, err := c.GetPresignedDownloadURL(ctx, "ab", "f.txt", time.Minute)
	assertCode(t, err, CodeInvalidBucketName)

	_, err = c.GetPresignedUploadURL(ctx, "test-bucket", "", time.Minute)
	assertCode(t, err, CodeInvalidObjectKey)
}
