// Package manifest resolves the authoritative list of remote files
// for a period, preferring the metadata index over the tree listing
// API. The listing endpoint caps pages at 1000 entries and cannot
// always signal continuation, so it is the fallback, not the primary
// source.
package manifest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path"

	"github.com/rs/zerolog"

	"github.com/chaiyosart/open-law/internal/hub"
	"github.com/chaiyosart/open-law/internal/period"
	"github.com/chaiyosart/open-law/internal/store"
)

// FileDescriptor names one remote file and its local destination.
type FileDescriptor struct {
	// RemotePath is the repo-relative path, also used as the store key.
	RemotePath string

	// Name is the local file name within the period directory.
	Name string

	// Size is the remote size in bytes when known, 0 otherwise.
	Size int64
}

// indexRecord is the subset of a metadata index line we care about.
type indexRecord struct {
	PDFFile string `json:"pdf_file"`
}

// Resolver builds period manifests.
type Resolver struct {
	client *hub.Client
	store  *store.Store
	log    zerolog.Logger
}

// NewResolver creates a resolver reading indexes from st and falling
// back to listing calls on client.
func NewResolver(client *hub.Client, st *store.Store, log zerolog.Logger) *Resolver {
	return &Resolver{client: client, store: st, log: log.With().Str("component", "manifest").Logger()}
}

// Resolve produces the file descriptors for a period. When metaKey is
// non-empty the stored metadata index is authoritative; otherwise the
// paginated tree listing is used. A failed listing (typically an
// absent period directory) yields an empty manifest, not an error:
// such periods are assumed to be distributed as archive bundles.
func (r *Resolver) Resolve(ctx context.Context, p period.Period, metaKey string) ([]FileDescriptor, error) {
	if metaKey != "" {
		data, err := r.store.ReadAll(ctx, metaKey)
		if err == nil {
			return r.fromIndex(p, data), nil
		}
		r.log.Warn().Err(err).Str("period", p.String()).Msg("metadata index unreadable, falling back to listing")
	}
	return r.fromListing(ctx, p), nil
}

// fromIndex parses the stored JSONL index into a manifest.
func (r *Resolver) fromIndex(p period.Period, data []byte) []FileDescriptor {
	files := ParseIndex(p, data)
	r.log.Debug().Str("period", p.String()).Int("files", len(files)).Msg("manifest from metadata index")
	return files
}

// ParseIndex parses a metadata index (JSONL) into file descriptors.
// Records without a pdf_file field and unparseable lines are filtered
// out. Duplicate index entries would race two writers on the same
// destination, so names are deduplicated; the first record wins.
func ParseIndex(p period.Period, data []byte) []FileDescriptor {
	var files []FileDescriptor
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec indexRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.PDFFile == "" {
			continue
		}
		name := path.Base(rec.PDFFile)
		if seen[name] {
			continue
		}
		seen[name] = true
		files = append(files, FileDescriptor{
			RemotePath: store.PDFKey(p, name),
			Name:       name,
		})
	}
	return files
}

// fromListing pages through the tree endpoint for the period's pdf
// directory.
func (r *Resolver) fromListing(ctx context.Context, p period.Period) []FileDescriptor {
	dir := path.Join("pdf", p.Year(), p.String())
	entries, truncated, err := r.client.ListTree(ctx, dir)
	if err != nil {
		r.log.Warn().Err(err).Str("period", p.String()).Msg("listing failed, treating period as empty")
		return nil
	}
	if truncated {
		r.log.Warn().Str("period", p.String()).Int("entries", len(entries)).
			Msg("listing hit the page cap with no cursor, manifest may be incomplete")
	}

	var files []FileDescriptor
	seen := make(map[string]bool)
	for _, e := range entries {
		name := path.Base(e.Path)
		if seen[name] {
			continue
		}
		seen[name] = true
		files = append(files, FileDescriptor{
			RemotePath: e.Path,
			Name:       name,
			Size:       e.Size,
		})
	}
	return files
}
