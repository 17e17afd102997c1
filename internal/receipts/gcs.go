package receipts

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"
)

const gcsPrefix = "receipts/"

// GCSStore uploads receipts to a Google Cloud Storage bucket. Objects are
// expected to be publicly readable through the bucket's IAM policy.
type GCSStore struct {
	svc    *gstorage.Service
	bucket string
}

func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	opts = append(opts, option.WithScopes(gstorage.DevstorageReadWriteScope))
	svc, err := gstorage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return &GCSStore{svc: svc, bucket: bucket}, nil
}

func (s *GCSStore) Save(ctx context.Context, u Upload) (string, error) {
	obj := &gstorage.Object{
		Name:         gcsPrefix + u.Name,
		ContentType:  u.ContentType,
		CacheControl: "public, max-age=31536000, immutable",
	}
	stored, err := s.svc.Objects.Insert(s.bucket, obj).
		Media(reader(u)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload receipt to gs://%s: %w", s.bucket, err)
	}
	return objectURL(s.bucket, stored.Name), nil
}

func objectURL(bucket, name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, name)
}
