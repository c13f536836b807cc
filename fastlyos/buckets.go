package fastlyos

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/padfoot044/fastly-object-storage/internal/validate"
)

// bucketOps wraps the bucket family of calls.
type bucketOps struct {
	api API
	log *slog.Logger
}

func (b *bucketOps) create(ctx context.Context, name string, opts *CreateBucketOptions) error {
	if err := validate.BucketName(name); err != nil {
		return newError("CreateBucket", name, "", CodeInvalidBucketName, 0, err.Error())
	}

	b.log.Debug("creating bucket", "bucket", name)

	in := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if opts != nil {
		if opts.ACL != "" {
			in.ACL = types.BucketCannedACL(opts.ACL)
		}
		// us-east-1 must not appear as a location constraint.
		if opts.Region != "" && opts.Region != DefaultRegion {
			in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
				LocationConstraint: types.BucketLocationConstraint(opts.Region),
			}
		}
	}

	if _, err := b.api.CreateBucket(ctx, in); err != nil {
		b.log.Error("create bucket failed", "bucket", name, "error", err)
		return wrapErr("CreateBucket", name, "", err)
	}

	b.log.Info("bucket created", "bucket", name)
	return nil
}

func (b *bucketOps) delete(ctx context.Context, name string) error {
	if err := validate.BucketName(name); err != nil {
		return newError("DeleteBucket", name, "", CodeInvalidBucketName, 0, err.Error())
	}

	b.log.Debug("deleting bucket", "bucket", name)

	if _, err := b.api.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)}); err != nil {
		b.log.Error("delete bucket failed", "bucket", name, "error", err)
		return wrapErr("DeleteBucket", name, "", err)
	}

	b.log.Info("bucket deleted", "bucket", name)
	return nil
}

func (b *bucketOps) list(ctx context.Context) ([]BucketInfo, error) {
	b.log.Debug("listing buckets")

	out, err := b.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		b.log.Error("list buckets failed", "error", err)
		return nil, wrapErr("ListBuckets", "", "", err)
	}

	buckets := make([]BucketInfo, 0, len(out.Buckets))
	for _, bkt := range out.Buckets {
		buckets = append(buckets, BucketInfo{
			Name:         aws.ToString(bkt.Name),
			CreationDate: aws.ToTime(bkt.CreationDate),
		})
	}

	b.log.Debug("listed buckets", "count", len(buckets))
	return buckets, nil
}

// info resolves a single bucket by checking existence, then cross-referencing
// the full bucket list, because HeadBucket does not return a creation date.
// A bucket deleted between the two calls surfaces as NotFound.
func (b *bucketOps) info(ctx context.Context, name string) (*BucketInfo, error) {
	if err := validate.BucketName(name); err != nil {
		return nil, newError("GetBucketInfo", name, "", CodeInvalidBucketName, 0, err.Error())
	}

	b.log.Debug("fetching bucket info", "bucket", name)

	if _, err := b.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)}); err != nil {
		b.log.Error("head bucket failed", "bucket", name, "error", err)
		return nil, wrapErr("GetBucketInfo", name, "", err)
	}

	buckets, err := b.list(ctx)
	if err != nil {
		return nil, err
	}
	for _, bkt := range buckets {
		if bkt.Name == name {
			return &bkt, nil
		}
	}

	return nil, newError("GetBucketInfo", name, "", CodeNotFound, 404, "bucket not found in listing")
}
