package fastlyos

import (
	"bytes"
	"context"

	jsoniter "github.com/json-iterator/go"
)

// json is a drop-in replacement for encoding/json with better performance.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PutJSON marshals v and uploads it with an application/json content type.
func (c *Client) PutJSON(ctx context.Context, bucket, key string, v any) (*UploadResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &Error{
			Op: "PutJSON", Bucket: bucket, Key: key,
			Code: CodeSerialization, Message: err.Error(), Err: err,
		}
	}
	return c.UploadObject(ctx, bucket, key, bytes.NewReader(data), &UploadOptions{
		ContentType: "application/json",
	})
}

// GetJSON downloads an object and unmarshals it into v.
func (c *Client) GetJSON(ctx context.Context, bucket, key string, v any) error {
	res, err := c.GetObject(ctx, bucket, key, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res.Body, v); err != nil {
		return &Error{
			Op: "GetJSON", Bucket: bucket, Key: key,
			Code: CodeSerialization, Message: err.Error(), Err: err,
		}
	}
	return nil
}
