package syncer

import (
	"context"
	"sync"

	"github.com/chaiyosart/open-law/internal/manifest"
	"github.com/chaiyosart/open-law/internal/progress"
)

// Outcome classifies one file after the pool has processed it.
type Outcome int

const (
	// OutcomeDownloaded means the file was fetched and stored.
	OutcomeDownloaded Outcome = iota

	// OutcomeSkipped means the file was already present with a
	// non-zero size; no network call was made.
	OutcomeSkipped

	// OutcomeFailed means fetching or storing the file failed after
	// retries.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileResult is the classification of a single file descriptor.
type FileResult struct {
	Name    string
	Outcome Outcome
	Bytes   int64
	Err     error
}

// PoolResult aggregates a pool run. Every descriptor in the manifest
// is classified exactly once.
type PoolResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
	Results    []FileResult
}

// downloadAll fans the manifest out to a fixed pool of workers. At
// most cfg.Concurrency fetches are in flight at any point. Failures
// are isolated per file and never stop the pool; on context
// cancellation the remaining descriptors are classified as failed
// rather than dropped.
func (s *Syncer) downloadAll(ctx context.Context, files []manifest.FileDescriptor, rep *progress.Reporter) PoolResult {
	width := s.cfg.Concurrency
	if width <= 0 {
		width = 1
	}

	jobs := make(chan manifest.FileDescriptor)
	resultCh := make(chan FileResult)

	var wg sync.WaitGroup
	for i := 0; i < width; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fd := range jobs {
				r := s.downloadOne(ctx, fd)
				if rep != nil {
					rep.FileDone(r.Bytes)
				}
				resultCh <- r
			}
		}()
	}

	go func() {
		for _, fd := range files {
			jobs <- fd
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var res PoolResult
	for r := range resultCh {
		res.Results = append(res.Results, r)
		switch r.Outcome {
		case OutcomeDownloaded:
			res.Downloaded++
			res.Bytes += r.Bytes
		case OutcomeSkipped:
			res.Skipped++
		case OutcomeFailed:
			res.Failed++
			s.log.Warn().Err(r.Err).Str("file", r.Name).Msg("download failed")
		}
	}
	return res
}

// downloadOne processes a single descriptor: skip when present with a
// non-zero size, otherwise fetch and stream into the store.
func (s *Syncer) downloadOne(ctx context.Context, fd manifest.FileDescriptor) FileResult {
	if err := ctx.Err(); err != nil {
		return FileResult{Name: fd.Name, Outcome: OutcomeFailed, Err: err}
	}

	ok, err := s.store.Exists(ctx, fd.RemotePath)
	if err != nil {
		return FileResult{Name: fd.Name, Outcome: OutcomeFailed, Err: err}
	}
	if ok {
		return FileResult{Name: fd.Name, Outcome: OutcomeSkipped}
	}

	body, err := s.client.Get(ctx, s.client.ResolveURL(fd.RemotePath))
	if err != nil {
		return FileResult{Name: fd.Name, Outcome: OutcomeFailed, Err: err}
	}
	defer body.Close()

	n, err := s.store.Write(ctx, fd.RemotePath, body)
	if err != nil {
		return FileResult{Name: fd.Name, Outcome: OutcomeFailed, Err: err}
	}
	return FileResult{Name: fd.Name, Outcome: OutcomeDownloaded, Bytes: n}
}
