package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestReporterRendersFinalLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{
		Total:          4,
		Label:          "2024-01",
		Output:         &buf,
		UpdateInterval: 10 * time.Millisecond,
	})

	r.Start()
	for i := 0; i < 4; i++ {
		r.FileDone(100)
	}
	time.Sleep(30 * time.Millisecond)
	r.Stop()
	time.Sleep(10 * time.Millisecond)

	out := buf.String()
	if !strings.Contains(out, "4/4 files") {
		t.Errorf("expected final count in output, got %q", out)
	}
	if !strings.Contains(out, "400 B") {
		t.Errorf("expected byte total in output, got %q", out)
	}
	if !strings.Contains(out, "2024-01") {
		t.Errorf("expected label in output, got %q", out)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	r := NewReporter(Options{Total: 1, Output: &bytes.Buffer{}})
	r.Start()
	r.Stop()
	r.Stop() // must not panic
}

func TestFileDoneIsConcurrencySafe(t *testing.T) {
	r := NewReporter(Options{Total: 100, Output: &bytes.Buffer{}})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.FileDone(1)
		}()
	}
	wg.Wait()

	if got := r.completed.Load(); got != 100 {
		t.Errorf("completed = %d, want 100", got)
	}
	if got := r.bytes.Load(); got != 100 {
		t.Errorf("bytes = %d, want 100", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.input); got != tt.expected {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
