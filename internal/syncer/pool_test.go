package syncer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chaiyosart/open-law/internal/manifest"
	"github.com/chaiyosart/open-law/internal/store"
)

func descriptorsFor(t *testing.T, ym string, names ...string) []manifest.FileDescriptor {
	t.Helper()
	p := mustPeriod(t, ym)
	fds := make([]manifest.FileDescriptor, len(names))
	for i, n := range names {
		fds[i] = manifest.FileDescriptor{RemotePath: store.PDFKey(p, n), Name: n}
	}
	return fds
}

func TestDownloadAllResume(t *testing.T) {
	ctx := context.Background()
	h := newFakeHub()
	p := mustPeriod(t, "2024-01")

	names := []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"}
	for _, n := range names {
		h.files["pdf/2024/2024-01/"+n] = []byte("content-" + n)
	}

	s, st := newTestSyncer(t, h)

	// Two files already present with non-zero size.
	for _, n := range names[:2] {
		if err := st.WriteAll(ctx, store.PDFKey(p, n), []byte("old bytes")); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	res := s.downloadAll(ctx, descriptorsFor(t, "2024-01", names...), nil)

	if res.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", res.Skipped)
	}
	if res.Downloaded != 3 {
		t.Errorf("downloaded = %d, want 3", res.Downloaded)
	}
	if res.Failed != 0 {
		t.Errorf("failed = %d, want 0", res.Failed)
	}

	// Pre-existing files must never hit the network.
	for _, n := range names[:2] {
		if c := h.getCount("pdf/2024/2024-01/" + n); c != 0 {
			t.Errorf("%s fetched %d times, want 0", n, c)
		}
	}

	// Pre-existing content is kept as-is: no re-verification.
	data, err := st.ReadAll(ctx, store.PDFKey(p, "a.pdf"))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "old bytes" {
		t.Errorf("pre-existing file was rewritten: %q", data)
	}
}

func TestDownloadAllConcurrencyCap(t *testing.T) {
	ctx := context.Background()
	h := newFakeHub()
	h.delay = 20 * time.Millisecond

	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("f%02d.pdf", i)
		h.files["pdf/2024/2024-04/"+names[i]] = []byte("x")
	}

	s, _ := newTestSyncer(t, h)

	res := s.downloadAll(ctx, descriptorsFor(t, "2024-04", names...), nil)

	if got := len(res.Results); got != 20 {
		t.Fatalf("classified %d of 20 files", got)
	}
	if res.Downloaded != 20 {
		t.Errorf("downloaded = %d, want 20", res.Downloaded)
	}
	if max := h.maxInflight.Load(); max > 5 {
		t.Errorf("observed %d fetches in flight, cap is 5", max)
	}
}

func TestDownloadAllFailureIsolation(t *testing.T) {
	ctx := context.Background()
	h := newFakeHub()

	names := []string{"a.pdf", "b.pdf", "c.pdf"}
	for _, n := range names {
		h.files["pdf/2024/2024-05/"+n] = []byte("x")
	}
	h.status["pdf/2024/2024-05/b.pdf"] = 500

	s, _ := newTestSyncer(t, h)

	res := s.downloadAll(ctx, descriptorsFor(t, "2024-05", names...), nil)

	if res.Downloaded != 2 {
		t.Errorf("downloaded = %d, want 2", res.Downloaded)
	}
	if res.Failed != 1 {
		t.Errorf("failed = %d, want 1", res.Failed)
	}

	var failedName string
	for _, r := range res.Results {
		if r.Outcome == OutcomeFailed {
			failedName = r.Name
			if r.Err == nil {
				t.Error("failed result carries no error")
			}
		}
	}
	if failedName != "b.pdf" {
		t.Errorf("failed file = %q, want b.pdf", failedName)
	}

	// The retry budget applies to the failing file only.
	if c := h.getCount("pdf/2024/2024-05/b.pdf"); c != 2 {
		t.Errorf("b.pdf fetched %d times, want 2 (attempt budget)", c)
	}
	if c := h.getCount("pdf/2024/2024-05/a.pdf"); c != 1 {
		t.Errorf("a.pdf fetched %d times, want 1", c)
	}
}

func TestDownloadAllCancelledContextClassifiesEverything(t *testing.T) {
	h := newFakeHub()
	s, _ := newTestSyncer(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.downloadAll(ctx, descriptorsFor(t, "2024-06", "a.pdf", "b.pdf"), nil)
	if len(res.Results) != 2 {
		t.Fatalf("classified %d of 2 files", len(res.Results))
	}
	if res.Failed != 2 {
		t.Errorf("failed = %d, want 2", res.Failed)
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeDownloaded.String() != "downloaded" ||
		OutcomeSkipped.String() != "skipped" ||
		OutcomeFailed.String() != "failed" {
		t.Error("unexpected outcome strings")
	}
}
