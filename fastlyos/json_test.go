package fastlyos

import (
	"context"
	"testing"
)

type manifest struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func TestPutGetJSON_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	in := manifest{Name: "snapshot", Count: 3, Tags: []string{"a", "b"}}
	if _, err := c.PutJSON(ctx, bucket, "manifest.json", in); err != nil {
		t.Fatalf("PutJSON failed: %v", err)
	}

	meta, err := c.HeadObject(ctx, bucket, "manifest.json")
	if err != nil {
		t.Fatal(err)
	}
	if meta.ContentType != "application/json" {
		t.Errorf("expected application/json, got %q", meta.ContentType)
	}

	var out manifest
	if err := c.GetJSON(ctx, bucket, "manifest.json", &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Name != in.Name || out.Count != in.Count || len(out.Tags) != 2 {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestGetJSON_Malformed(t *testing.T) {
	ctx := context.Background()
	c, bucket := newTestBucket(t)

	if _, err := c.UploadObject(ctx, bucket, "bad.json", strReader("{not json"), nil); err != nil {
		t.Fatal(err)
	}

	var out manifest
	err := c.GetJSON(ctx, bucket, "bad.json", &out)
	assertCode(t, err, CodeSerialization)
}
