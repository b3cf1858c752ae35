package syncer

import (
	"archive/zip"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/chaiyosart/open-law/internal/period"
	"github.com/chaiyosart/open-law/internal/store"
)

// ArchiveStatus classifies a materialization attempt.
type ArchiveStatus int

const (
	// ArchiveSkipped means the period's documents were already
	// present; the bundle was not touched.
	ArchiveSkipped ArchiveStatus = iota

	// ArchiveExtracted means the bundle was extracted, possibly with
	// member-level warnings (accepted partial success).
	ArchiveExtracted

	// ArchiveFailed means the bundle could not be obtained or read.
	ArchiveFailed
)

func (s ArchiveStatus) String() string {
	switch s {
	case ArchiveSkipped:
		return "skipped"
	case ArchiveExtracted:
		return "extracted"
	case ArchiveFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ArchiveResult is the outcome of materializing one period from its
// bundle. Extracted is the number of files present under the period's
// document prefix afterwards: a directory scan, not a member count.
type ArchiveResult struct {
	Status    ArchiveStatus
	Extracted int
	Warnings  []string
	Err       error
}

// materialize downloads the period's archive bundle if needed and
// extracts matching members into the document directory. Member-level
// failures are tolerated as warnings; only an unobtainable or
// unreadable bundle is a hard failure.
func (s *Syncer) materialize(ctx context.Context, p period.Period) ArchiveResult {
	prefix := store.PDFPrefix(p)

	entries, err := s.store.List(ctx, prefix)
	if err != nil {
		return ArchiveResult{Status: ArchiveFailed, Err: err}
	}
	if len(entries) > 0 {
		return ArchiveResult{Status: ArchiveSkipped, Extracted: len(entries)}
	}

	zipKey := store.ZipKey(p)
	ok, err := s.store.Exists(ctx, zipKey)
	if err != nil {
		return ArchiveResult{Status: ArchiveFailed, Err: err}
	}
	if !ok {
		body, err := s.client.Get(ctx, s.client.ResolveURL(zipKey))
		if err != nil {
			return ArchiveResult{Status: ArchiveFailed, Err: fmt.Errorf("fetch bundle: %w", err)}
		}
		_, writeErr := s.store.Write(ctx, zipKey, body)
		body.Close()
		if writeErr != nil {
			return ArchiveResult{Status: ArchiveFailed, Err: writeErr}
		}
	}

	ra, size, err := s.store.ReaderAt(ctx, zipKey)
	if err != nil {
		return ArchiveResult{Status: ArchiveFailed, Err: err}
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return ArchiveResult{Status: ArchiveFailed, Err: fmt.Errorf("open bundle: %w", err)}
	}

	var warnings []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.Contains(f.Name, p.String()) {
			continue
		}
		// Destination paths are flattened to the member's base name.
		dest := store.PDFKey(p, path.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		_, err = s.store.Write(ctx, dest, rc)
		rc.Close()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", f.Name, err))
		}
	}

	entries, err = s.store.List(ctx, prefix)
	if err != nil {
		return ArchiveResult{Status: ArchiveFailed, Err: err, Warnings: warnings}
	}
	return ArchiveResult{Status: ArchiveExtracted, Extracted: len(entries), Warnings: warnings}
}
