package fastlyos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
)

func strReader(s string) io.Reader { return strings.NewReader(s) }

func newTestBucket(t *testing.T) (*Client, string) {
	t.Helper()
	c := newTestClient(t, NewMockS3Client())
	if err := c.CreateBucket(context.Background(), "test-bucket", nil); err != nil {
		t.Fatalf("CreateBucket failed: %v", err)
	}
	return c, "test-bucket"
}

func TestUploadGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	payload := []byte("hello object storage")
	up, err := c.UploadObject(ctx, bucket, "f.txt", bytes.NewReader(payload), &UploadOptions{
		ContentType: "text/plain",
		Metadata:    map[string]string{"owner": "tests"},
	})
	if err != nil {
		t.Fatalf("UploadObject failed: %v", err)
	}
	if up.ETag == "" {
		t.Error("expected an etag")
	}

	got, err := c.GetObject(ctx, bucket, "f.txt", nil)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if !bytes.Equal(got.Body, payload) {
		t.Errorf("body mismatch: got %q", got.Body)
	}
	if got.ETag != up.ETag {
		t.Errorf("etag mismatch: upload %q get %q", up.ETag, got.ETag)
	}
	if got.ContentType != "text/plain" {
		t.Errorf("content type not preserved: %q", got.ContentType)
	}
	if got.Metadata["owner"] != "tests" {
		t.Errorf("metadata not preserved: %+v", got.Metadata)
	}
	if got.ContentLength != int64(len(payload)) {
		t.Errorf("content length %d, want %d", got.ContentLength, len(payload))
	}
}

func TestUploadObject_InvalidIdentifiers(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	_, err := c.UploadObject(ctx, "ab", "f.txt", strReader("x"), nil)
	assertCode(t, err, CodeInvalidBucketName)

	_, err = c.UploadObject(ctx, bucket, "", strReader("x"), nil)
	assertCode(t, err, CodeInvalidObjectKey)

	_, err = c.UploadObject(ctx, bucket, strings.Repeat("k", 1025), strReader("x"), nil)
	assertCode(t, err, CodeInvalidObjectKey)
}

func TestGetObject_NotFound(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	_, err := c.GetObject(ctx, bucket, "missing.txt", nil)
	assertCode(t, err, CodeNotFound)
}

func TestGetObject_EmptyBody(t *testing.T) {
	ctx := context.Background()
	mock := NewMockS3Client()
	c := newTestClient(t, mock)
	if err := c.CreateBucket(ctx, "test-bucket", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.UploadObject(ctx, "test-bucket", "f.txt", strReader("x"), nil); err != nil {
		t.Fatal(err)
	}

	mock.ReturnEmptyBody = true
	_, err := c.GetObject(ctx, "test-bucket", "f.txt", nil)
	assertCode(t, err, CodeEmptyBody)
}

func TestGetObjectStream(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	payload := []byte("streamed payload")
	if _, err := c.UploadObject(ctx, bucket, "s.bin", bytes.NewReader(payload), nil); err != nil {
		t.Fatal(err)
	}

	stream, err := c.GetObjectStream(ctx, bucket, "s.bin", nil)
	if err != nil {
		t.Fatalf("GetObjectStream failed: %v", err)
	}
	defer func() { _ = stream.Body.Close() }()

	data, err := io.ReadAll(stream.Body)
	if err != nil {
		t.Fatalf("reading stream failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("stream mismatch: got %q", data)
	}
}

func TestGetObject_Range(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	if _, err := c.UploadObject(ctx, bucket, "r.txt", strReader("0123456789"), nil); err != nil {
		t.Fatal(err)
	}

	got, err := c.GetObject(ctx, bucket, "r.txt", &GetOptions{Range: "bytes=2-5"})
	if err != nil {
		t.Fatalf("ranged GetObject failed: %v", err)
	}
	if string(got.Body) != "2345" {
		t.Errorf("range read mismatch: got %q", got.Body)
	}
}

func TestDeleteObject(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	if _, err := c.UploadObject(ctx, bucket, "d.txt", strReader("x"), nil); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteObject(ctx, bucket, "d.txt"); err != nil {
		t.Fatalf("DeleteObject failed: %v", err)
	}
	_, err := c.GetObject(ctx, bucket, "d.txt", nil)
	assertCode(t, err, CodeNotFound)
}

func TestCopyObject(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	if _, err := c.UploadObject(ctx, bucket, "src.txt", strReader("copy me"), &UploadOptions{
		Metadata: map[string]string{"origin": "src"},
	}); err != nil {
		t.Fatal(err)
	}

	res, err := c.CopyObject(ctx, bucket, "src.txt", bucket, "dst.txt", nil)
	if err != nil {
		t.Fatalf("CopyObject failed: %v", err)
	}
	if res.ETag == "" {
		t.Error("expected an etag")
	}

	got, err := c.GetObject(ctx, bucket, "dst.txt", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Body) != "copy me" {
		t.Errorf("copied body mismatch: %q", got.Body)
	}
	if got.Metadata["origin"] != "src" {
		t.Error("expected metadata copied by default")
	}
}

func TestCopyObject_ReplaceMetadata(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	if _, err := c.UploadObject(ctx, bucket, "src.txt", strReader("x"), &UploadOptions{
		Metadata: map[string]string{"origin": "src"},
	}); err != nil {
		t.Fatal(err)
	}

	_, err := c.CopyObject(ctx, bucket, "src.txt", bucket, "dst.txt", &CopyOptions{
		MetadataDirective: MetadataDirectiveReplace,
		Metadata:          map[string]string{"origin": "replaced"},
	})
	if err != nil {
		t.Fatal(err)
	}

	meta, err := c.HeadObject(ctx, bucket, "dst.txt")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Metadata["origin"] != "replaced" {
		t.Errorf("expected replaced metadata, got %+v", meta.Metadata)
	}
}

func TestHeadObject(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	if _, err := c.UploadObject(ctx, bucket, "h.txt", strReader("head me"), &UploadOptions{
		ContentType: "text/plain",
	}); err != nil {
		t.Fatal(err)
	}

	meta, err := c.HeadObject(ctx, bucket, "h.txt")
	if err != nil {
		t.Fatalf("HeadObject failed: %v", err)
	}
	if meta.ContentLength != int64(len("head me")) {
		t.Errorf("content length %d", meta.ContentLength)
	}
	if meta.ContentType != "text/plain" {
		t.Errorf("content type %q", meta.ContentType)
	}
	if meta.ETag == "" {
		t.Error("expected an etag")
	}
}

func TestListObjects_Pagination(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("data/obj-%d", i)
		if _, err := c.UploadObject(ctx, bucket, key, strReader("x"), nil); err != nil {
			t.Fatal(err)
		}
	}

	var all []string
	opts := &ListObjectsOptions{Prefix: "data/", MaxKeys: 2}
	pages := 0
	for {
		page, err := c.ListObjects(ctx, bucket, opts)
		if err != nil {
			t.Fatalf("ListObjects failed: %v", err)
		}
		pages++
		for _, obj := range page.Contents {
			all = append(all, obj.Key)
		}
		if !page.IsTruncated {
			break
		}
		if page.NextContinuationToken == "" {
			t.Fatal("truncated page without a continuation token")
		}
		opts.ContinuationToken = page.NextContinuationToken
	}

	if pages != 3 {
		t.Errorf("expected 3 pages, got %d", pages)
	}
	if len(all) != 5 {
		t.Errorf("expected 5 keys, got %d: %v", len(all), all)
	}
}

func TestListObjects_Delimiter(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	for _, key := range []string{"a/one", "a/two", "b/one", "top"} {
		if _, err := c.UploadObject(ctx, bucket, key, strReader("x"), nil); err != nil {
			t.Fatal(err)
		}
	}

	page, err := c.ListObjects(ctx, bucket, &ListObjectsOptions{Delimiter: "/"})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.CommonPrefixes) != 2 {
		t.Errorf("expected 2 common prefixes, got %v", page.CommonPrefixes)
	}
	if len(page.Contents) != 1 || page.Contents[0].Key != "top" {
		t.Errorf("expected only top-level key, got %+v", page.Contents)
	}
}

func TestListAllObjects(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	for i := 0; i < 7; i++ {
		key := fmt.Sprintf("bulk/obj-%d", i)
		if _, err := c.UploadObject(ctx, bucket, key, strReader("x"), nil); err != nil {
			t.Fatal(err)
		}
	}

	objs, err := c.ListAllObjects(ctx, bucket, "bulk/")
	if err != nil {
		t.Fatalf("ListAllObjects failed: %v", err)
	}
	if len(objs) != 7 {
		t.Errorf("expected 7 objects, got %d", len(objs))
	}
}
