package fastlyos

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Compressor wraps readers and writers with a compression codec. The
// Encoding value is what gets stored in the object's Content-Encoding.
type Compressor interface {
	// Name returns the codec identifier.
	Name() string

	// Encoding returns the Content-Encoding token for this codec.
	Encoding() string

	// Compress wraps a writer with compression.
	Compress(w io.Writer) (io.WriteCloser, error)

	// Decompress wraps a reader with decompression.
	Decompress(r io.Reader) (io.ReadCloser, error)
}

// -----------------------------------------------------------------------------
// Gzip Compressor
// -----------------------------------------------------------------------------

type gzipCompressor struct{}

// NewGzipCompressor creates a gzip compressor.
func NewGzipCompressor() Compressor {
	return &gzipCompressor{}
}

func (g *gzipCompressor) Name() string { return "gzip" }

func (g *gzipCompressor) Encoding() string { return "gzip" }

func (g *gzipCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (g *gzipCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// -----------------------------------------------------------------------------
// Zstd Compressor
// -----------------------------------------------------------------------------

type zstdCompressor struct{}

// NewZstdCompressor creates a zstd compressor. Zstd provides higher
// compression ratios and faster decompression than gzip.
func NewZstdCompressor() Compressor {
	return &zstdCompressor{}
}

func (z *zstdCompressor) Name() string { return "zstd" }

func (z *zstdCompressor) Encoding() string { return "zstd" }

func (z *zstdCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func (z *zstdCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return zr.IOReadCloser(), nil
}

// -----------------------------------------------------------------------------
// Compressed transfers
// -----------------------------------------------------------------------------

// UploadCompressed compresses body with comp before uploading and records
// the codec in Content-Encoding. Other upload options are forwarded
// unmodified.
func (c *Client) UploadCompressed(ctx context.Context, bucket, key string, body io.Reader, comp Compressor, opts *UploadOptions) (*UploadResult, error) {
	var buf bytes.Buffer
	cw, err := comp.Compress(&buf)
	if err != nil {
		return nil, wrapErr("UploadCompressed", bucket, key, err)
	}
	if _, err := io.Copy(cw, body); err != nil {
		return nil, wrapErr("UploadCompressed", bucket, key, err)
	}
	if err := cw.Close(); err != nil {
		return nil, wrapErr("UploadCompressed", bucket, key, err)
	}

	var o UploadOptions
	if opts != nil {
		o = *opts
	}
	o.ContentEncoding = comp.Encoding()

	return c.UploadObject(ctx, bucket, key, &buf, &o)
}

// GetDecompressed downloads an object compressed with comp and returns the
// decompressed bytes. The reported content length reflects the decompressed
// payload.
func (c *Client) GetDecompressed(ctx context.Context, bucket, key string, comp Compressor) (*GetObjectResult, error) {
	stream, err := c.GetObjectStream(ctx, bucket, key, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stream.Body.Close() }()

	dr, err := comp.Decompress(stream.Body)
	if err != nil {
		return nil, wrapErr("GetDecompressed", bucket, key, err)
	}
	defer func() { _ = dr.Close() }()

	data, err := io.ReadAll(dr)
	if err != nil {
		return nil, wrapErr("GetDecompressed", bucket, key, err)
	}

	res := &GetObjectResult{ObjectMetadata: stream.ObjectMetadata, Body: data}
	res.ContentLength = int64(len(data))
	return res, nil
}
