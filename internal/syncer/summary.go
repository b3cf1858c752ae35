package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/chaiyosart/open-law/internal/progress"
	"github.com/chaiyosart/open-law/internal/store"
)

// PeriodSummary holds the outcome counts for one period. In archive
// mode Downloaded carries the extracted file count.
type PeriodSummary struct {
	Month      string `json:"month"`
	Downloaded int    `json:"downloaded"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Total      int    `json:"total"`
	Size       int64  `json:"size"`
}

// Totals aggregates counts across all periods of a run.
type Totals struct {
	Downloaded int   `json:"downloaded"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	Total      int   `json:"total"`
	Size       int64 `json:"size"`
}

// Summary is the durable output artifact of a run, overwritten each
// time. It is owned solely by the orchestrator and written once.
type Summary struct {
	Timestamp time.Time       `json:"timestamp"`
	Periods   []PeriodSummary `json:"periods"`
	Totals    Totals          `json:"totals"`
}

func (s *Summary) add(row PeriodSummary) {
	s.Periods = append(s.Periods, row)
	s.Totals.Downloaded += row.Downloaded
	s.Totals.Skipped += row.Skipped
	s.Totals.Failed += row.Failed
	s.Totals.Total += row.Total
	s.Totals.Size += row.Size
}

// writeSummary persists the summary at its well-known key.
func (s *Syncer) writeSummary(ctx context.Context, sum *Summary) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return s.store.WriteAll(ctx, store.SummaryKey, data)
}

// Print writes a human-readable rendering of the summary.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "\nSync summary (%s)\n", s.Timestamp.Format(time.RFC3339))
	for _, p := range s.Periods {
		fmt.Fprintf(w, "  %s  downloaded=%d skipped=%d failed=%d total=%d size=%s\n",
			p.Month, p.Downloaded, p.Skipped, p.Failed, p.Total, progress.FormatBytes(p.Size))
	}
	fmt.Fprintf(w, "  overall  downloaded=%d skipped=%d failed=%d total=%d size=%s\n",
		s.Totals.Downloaded, s.Totals.Skipped, s.Totals.Failed, s.Totals.Total,
		progress.FormatBytes(s.Totals.Size))
}
