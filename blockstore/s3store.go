package blockstore

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
)

/*
S3Store backs the block store adapter with S3-compatible object storage,
using the minio client. Each Append call writes one new object; addresses
encode the object's numeric key, and since every block is a whole object,
offset is always 0 and length is the object size.

Object keys are assigned from an in-process monotonic counter, which is
sound because only one writer session owns a given series' tree at a time -
concurrent processes writing the same bucket are out of scope here.
*/

////////////////////////////////////////////////////////////////////////////////

const minioErrObjectNotExist = "The specified key does not exist."

// S3Store is a Provider backed by an S3-compatible bucket.
type S3Store struct {
	mc       *minio.Client
	bucket   string
	prefix   string
	partsize uint64
	next     atomic.Uint64
}

// NewS3Store returns a new S3Store writing objects under prefix in bucket.
func NewS3Store(mc *minio.Client, bucket, prefix string, partsizeBytes uint64) *S3Store {
	return &S3Store{
		mc:       mc,
		bucket:   bucket,
		prefix:   prefix,
		partsize: partsizeBytes,
	}
}

func (s *S3Store) key(object uint64) string {
	return fmt.Sprintf("%s/%020d", s.prefix, object)
}

// Read returns the bytes previously written at addr.
func (s *S3Store) Read(ctx context.Context, addr Addr) ([]byte, error) {
	opts := minio.GetObjectOptions{}
	off, length := addr.offset(), addr.length()
	if err := opts.SetRange(int64(off), int64(off+length)-1); err != nil {
		return nil, fmt.Errorf("failed to set range: %w", err)
	}
	obj, err := s.mc.GetObject(ctx, s.bucket, s.key(addr.object()), opts)
	if err != nil {
		if isNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer obj.Close()
	buf := make([]byte, length)
	if _, err := obj.Read(buf); err != nil && err.Error() != "EOF" {
		if isNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return buf, nil
}

// Append writes data as a new immutable object and returns its address.
func (s *S3Store) Append(ctx context.Context, data []byte) (Addr, error) {
	id := s.next.Add(1) - 1
	_, err := s.mc.PutObject(
		ctx,
		s.bucket,
		s.key(id),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{PartSize: s.partsize},
	)
	if err != nil {
		return Addr{}, fmt.Errorf("%w: failed to write block: %w", ErrUnavailable, err)
	}
	return NewAddr(id, 0, uint64(len(data))), nil
}

// Sync is a no-op: minio's PutObject is synchronous from the caller's
// perspective, so there is no client-side buffer to flush.
func (s *S3Store) Sync(_ context.Context) error {
	return nil
}

func (s *S3Store) String() string {
	return fmt.Sprintf("s3(%s/%s)", s.bucket, s.prefix)
}

func isNotExist(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || err.Error() == minioErrObjectNotExist
}
