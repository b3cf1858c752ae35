package syncer

import (
	"context"
	"sort"

	"github.com/chaiyosart/open-law/internal/manifest"
	"github.com/chaiyosart/open-law/internal/period"
	"github.com/chaiyosart/open-law/internal/store"
)

// VerifyResult compares the metadata-declared file set against the
// stored file set for a period.
type VerifyResult struct {
	Period   string
	HasIndex bool
	Expected int
	Found    int

	// Missing are names declared by the index but absent locally.
	Missing []string

	// Extra are names present locally but not declared by the index.
	Extra []string
}

// Verify diffs the declared and stored file sets for a period. With
// an empty metaKey (or an unreadable index) only the found count is
// reported. Purely diagnostic: nothing is remediated.
func (s *Syncer) Verify(ctx context.Context, p period.Period, metaKey string) (VerifyResult, error) {
	res := VerifyResult{Period: p.String()}

	entries, err := s.store.List(ctx, store.PDFPrefix(p))
	if err != nil {
		return res, err
	}
	res.Found = len(entries)

	if metaKey == "" {
		return res, nil
	}
	data, err := s.store.ReadAll(ctx, metaKey)
	if err != nil {
		return res, nil
	}

	res.HasIndex = true
	declared := make(map[string]bool)
	for _, fd := range manifest.ParseIndex(p, data) {
		declared[fd.Name] = true
	}
	res.Expected = len(declared)

	onDisk := make(map[string]bool, len(entries))
	for _, e := range entries {
		onDisk[e.Name] = true
	}

	for name := range declared {
		if !onDisk[name] {
			res.Missing = append(res.Missing, name)
		}
	}
	for name := range onDisk {
		if !declared[name] {
			res.Extra = append(res.Extra, name)
		}
	}
	sort.Strings(res.Missing)
	sort.Strings(res.Extra)

	return res, nil
}
