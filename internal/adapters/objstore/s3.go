package objstore

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"logcrunch/internal/platform/config"
	perr "logcrunch/internal/platform/errors"
)

// S3Options describes the bucket connection
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// Timeout bounds each Read and Delete call; zero means no bound
	Timeout time.Duration
}

// S3OptionsFromConf reads OBJSTORE_* keys off the given config view
func S3OptionsFromConf(cfg config.Conf) S3Options {
	oc := cfg.Prefix("OBJSTORE_")
	return S3Options{
		Endpoint:  oc.MustString("ENDPOINT"),
		AccessKey: oc.MustString("ACCESS_KEY"),
		SecretKey: oc.MustString("SECRET_KEY"),
		Bucket:    oc.MustString("BUCKET"),
		UseSSL:    oc.MayBool("SSL", true),
		Timeout:   oc.MayDuration("TIMEOUT", 0),
	}
}

// S3 is the production Capability over an S3-compatible bucket.
// The client is safe for concurrent use; one S3 serves all retrieval units
type S3 struct {
	cli     *minio.Client
	bucket  string
	timeout time.Duration
}

// NewS3 dials the endpoint and returns a ready Capability
func NewS3(opts S3Options) (*S3, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeObjectStore, "object store client for %s", opts.Endpoint)
	}
	return &S3{cli: cli, bucket: opts.Bucket, timeout: opts.Timeout}, nil
}

func (s *S3) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// List enumerates keys under prefix, recursively
func (s *S3) List(ctx context.Context, prefix string) <-chan Entry {
	out := make(chan Entry)
	go func() {
		defer close(out)
		objs := s.cli.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		})
		for obj := range objs {
			e := Entry{Key: obj.Key}
			if obj.Err != nil {
				e = Entry{Err: perr.Wrapf(obj.Err, perr.ErrorCodeObjectStore, "list %s", s.bucket)}
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Read retrieves the full object body into memory
func (s *S3) Read(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	obj, err := s.cli.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeObjectStore, "get %q", key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeObjectStore, "read %q", key)
	}
	return data, nil
}

// Delete removes the object
func (s *S3) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	if err := s.cli.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeObjectStore, "delete %q", key)
	}
	return nil
}
