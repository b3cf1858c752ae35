package store

import (
	"context"
	"fmt"
	"io"
	"path"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"

	"github.com/chaiyosart/open-law/internal/period"
)

// SummaryKey is where the run summary is persisted.
const SummaryKey = "sync-summary.json"

// MetaKey returns the key of a period's metadata index.
func MetaKey(p period.Period) string {
	return path.Join("meta", p.Year(), p.String()+".jsonl")
}

// PDFPrefix returns the key prefix of a period's document directory.
func PDFPrefix(p period.Period) string {
	return path.Join("pdf", p.Year(), p.String()) + "/"
}

// PDFKey returns the key of one document in a period.
func PDFKey(p period.Period, name string) string {
	return PDFPrefix(p) + name
}

// ZipKey returns the key of a period's archive bundle.
func ZipKey(p period.Period) string {
	return path.Join("zip", p.Year(), p.String()+".zip")
}

// Entry describes one stored object under a prefix.
type Entry struct {
	Key  string
	Name string
	Size int64
}

// Store is the mirror target. All local state lives behind a
// blob.Bucket so the target can be a directory (fileblob) or an
// S3-compatible bucket URL.
type Store struct {
	bucket *blob.Bucket
}

// OpenDir opens a store rooted at a local directory, creating it if
// needed.
func OpenDir(dir string) (*Store, error) {
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{CreateDir: true})
	if err != nil {
		return nil, fmt.Errorf("open output dir %s: %w", dir, err)
	}
	return &Store{bucket: bucket}, nil
}

// OpenURL opens a store at a bucket URL (s3://, file://, mem://).
// The relevant driver must be blank-imported by the caller.
func OpenURL(ctx context.Context, urlstr string) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", urlstr, err)
	}
	return &Store{bucket: bucket}, nil
}

// NewWithBucket wraps an already-open bucket.
func NewWithBucket(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

// Close releases the underlying bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// Exists reports whether key is present with a non-zero size. A
// zero-byte object counts as absent: it is the residue of a failed
// write and must be fetched again.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return attrs.Size > 0, nil
}

// Write streams r into key, returning the byte count. A read error
// mid-stream still commits the bytes written so far; the Exists
// non-zero-size check is the only guard against such partials.
func (s *Store) Write(ctx context.Context, key string, r io.Reader) (int64, error) {
	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", key, err)
	}

	n, copyErr := io.Copy(w, r)
	closeErr := w.Close()
	if copyErr != nil {
		return n, fmt.Errorf("write %s: %w", key, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("commit %s: %w", key, closeErr)
	}
	return n, nil
}

// WriteAll stores data at key in one shot.
func (s *Store) WriteAll(ctx context.Context, key string, data []byte) error {
	if err := s.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// ReadAll reads the whole object at key. Returns ErrNotExist-coded
// errors unchanged so callers can test with IsNotExist.
func (s *Store) ReadAll(ctx context.Context, key string) ([]byte, error) {
	return s.bucket.ReadAll(ctx, key)
}

// IsNotExist reports whether err means the object is absent.
func IsNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}

// List returns the objects directly under prefix, in key order.
func (s *Store) List(ctx context.Context, prefix string) ([]Entry, error) {
	var entries []Entry
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		if obj.IsDir {
			continue
		}
		entries = append(entries, Entry{
			Key:  obj.Key,
			Name: path.Base(obj.Key),
			Size: obj.Size,
		})
	}
}

// TotalSize sums the sizes of all objects under prefix.
func (s *Store) TotalSize(ctx context.Context, prefix string) (int64, error) {
	entries, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total, nil
}

// ReaderAt returns a random-access reader over the object at key,
// backed by range reads, plus the object size. Used by the archive
// materializer to read zip central directories without loading the
// whole bundle.
func (s *Store) ReaderAt(ctx context.Context, key string) (io.ReaderAt, int64, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", key, err)
	}
	return &rangeReaderAt{ctx: ctx, bucket: s.bucket, key: key, size: attrs.Size}, attrs.Size, nil
}

type rangeReaderAt struct {
	ctx    context.Context
	bucket *blob.Bucket
	key    string
	size   int64
}

func (r *rangeReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= r.size {
		return 0, io.EOF
	}
	length := int64(len(p))
	if off+length > r.size {
		length = r.size - off
	}

	rr, err := r.bucket.NewRangeReader(r.ctx, r.key, off, length, nil)
	if err != nil {
		return 0, err
	}
	defer rr.Close()

	n, err := io.ReadFull(rr, p[:length])
	if err == nil && int64(n) < int64(len(p)) {
		err = io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}
