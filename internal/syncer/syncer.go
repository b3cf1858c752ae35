package syncer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/chaiyosart/open-law/internal/config"
	"github.com/chaiyosart/open-law/internal/hub"
	"github.com/chaiyosart/open-law/internal/manifest"
	"github.com/chaiyosart/open-law/internal/period"
	"github.com/chaiyosart/open-law/internal/progress"
	"github.com/chaiyosart/open-law/internal/store"
)

// Mode selects the per-period pipeline.
type Mode int

const (
	// ModeDownload syncs metadata and downloads individual documents.
	ModeDownload Mode = iota

	// ModeArchive syncs metadata and materializes the period from its
	// archive bundle.
	ModeArchive

	// ModeVerify only compares local state against the stored
	// metadata index. No network calls are made.
	ModeVerify
)

// Syncer runs the per-period mirror pipeline.
type Syncer struct {
	cfg      config.Config
	client   *hub.Client
	store    *store.Store
	resolver *manifest.Resolver
	log      zerolog.Logger
}

// New creates a syncer. The store and client are owned by the caller.
func New(cfg config.Config, client *hub.Client, st *store.Store, log zerolog.Logger) *Syncer {
	return &Syncer{
		cfg:      cfg,
		client:   client,
		store:    st,
		resolver: manifest.NewResolver(client, st, log),
		log:      log.With().Str("component", "syncer").Logger(),
	}
}

// Run processes the given periods strictly sequentially and returns
// the aggregated run summary. Per-file and per-period failures are
// accumulated in the summary, never propagated; the returned error
// covers only orchestration-level problems such as a failed summary
// write.
func (s *Syncer) Run(ctx context.Context, periods []period.Period, mode Mode) (*Summary, error) {
	sum := &Summary{Timestamp: time.Now().UTC()}

	for _, p := range periods {
		var row PeriodSummary
		switch mode {
		case ModeVerify:
			row = s.verifyPeriod(ctx, p)
		case ModeArchive:
			row = s.archivePeriod(ctx, p)
		default:
			row = s.downloadPeriod(ctx, p)
		}
		sum.add(row)
	}

	if mode != ModeVerify {
		if err := s.writeSummary(ctx, sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// downloadPeriod runs metadata sync, the bounded download pool and
// verification for one period.
func (s *Syncer) downloadPeriod(ctx context.Context, p period.Period) PeriodSummary {
	log := s.log.With().Str("period", p.String()).Logger()

	metaKey, metaStatus := s.syncMetadata(ctx, p)
	log.Info().Str("metadata", metaStatus.String()).Msg("metadata synced")

	files, err := s.resolver.Resolve(ctx, p, metaKey)
	if err != nil {
		log.Error().Err(err).Msg("manifest resolution failed")
		return PeriodSummary{Month: p.String()}
	}
	if len(files) == 0 {
		log.Warn().Msg("no content for period")
		return PeriodSummary{Month: p.String(), Size: s.periodSize(ctx, p)}
	}

	var rep *progress.Reporter
	if s.cfg.Progress {
		rep = progress.NewReporter(progress.Options{Total: len(files), Label: p.String()})
		rep.Start()
	}
	res := s.downloadAll(ctx, files, rep)
	if rep != nil {
		rep.Stop()
	}

	log.Info().
		Int("downloaded", res.Downloaded).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("period synced")

	s.logVerification(ctx, p, metaKey, log)

	return PeriodSummary{
		Month:      p.String(),
		Downloaded: res.Downloaded,
		Skipped:    res.Skipped,
		Failed:     res.Failed,
		Total:      len(files),
		Size:       s.periodSize(ctx, p),
	}
}

// archivePeriod materializes one period from its archive bundle.
func (s *Syncer) archivePeriod(ctx context.Context, p period.Period) PeriodSummary {
	log := s.log.With().Str("period", p.String()).Logger()

	metaKey, metaStatus := s.syncMetadata(ctx, p)
	log.Info().Str("metadata", metaStatus.String()).Msg("metadata synced")

	res := s.materialize(ctx, p)
	row := PeriodSummary{Month: p.String()}
	switch res.Status {
	case ArchiveSkipped:
		log.Info().Int("files", res.Extracted).Msg("documents already present, bundle skipped")
		row.Skipped = res.Extracted
		row.Total = res.Extracted
	case ArchiveExtracted:
		log.Info().Int("files", res.Extracted).Msg("bundle extracted")
		for _, w := range res.Warnings {
			log.Warn().Str("warning", w).Msg("extraction warning")
		}
		row.Downloaded = res.Extracted
		row.Total = res.Extracted
	case ArchiveFailed:
		log.Error().Err(res.Err).Msg("bundle materialization failed")
		row.Failed = 1
	}

	s.logVerification(ctx, p, metaKey, log)
	row.Size = s.periodSize(ctx, p)
	return row
}

// verifyPeriod checks local state against the stored metadata index
// without touching the network.
func (s *Syncer) verifyPeriod(ctx context.Context, p period.Period) PeriodSummary {
	log := s.log.With().Str("period", p.String()).Logger()

	metaKey := store.MetaKey(p)
	if ok, err := s.store.Exists(ctx, metaKey); err != nil || !ok {
		metaKey = ""
	}

	v, err := s.Verify(ctx, p, metaKey)
	if err != nil {
		log.Error().Err(err).Msg("verification failed")
		return PeriodSummary{Month: p.String()}
	}
	reportVerification(v, log)

	return PeriodSummary{
		Month: p.String(),
		Total: v.Found,
		Size:  s.periodSize(ctx, p),
	}
}

// logVerification runs the verifier after a sync and logs the
// outcome. Diagnostic only: missing or extra files are reported, not
// remediated.
func (s *Syncer) logVerification(ctx context.Context, p period.Period, metaKey string, log zerolog.Logger) {
	if metaKey == "" {
		return
	}
	v, err := s.Verify(ctx, p, metaKey)
	if err != nil {
		log.Warn().Err(err).Msg("verification failed")
		return
	}
	reportVerification(v, log)
}

func reportVerification(v VerifyResult, log zerolog.Logger) {
	if !v.HasIndex {
		log.Info().Int("found", v.Found).Msg("verified without index")
		return
	}
	ev := log.Info()
	if len(v.Missing) > 0 || len(v.Extra) > 0 {
		ev = log.Warn()
	}
	ev.Int("expected", v.Expected).
		Int("found", v.Found).
		Strs("missing", v.Missing).
		Strs("extra", v.Extra).
		Msg("verified against index")
}

func (s *Syncer) periodSize(ctx context.Context, p period.Period) int64 {
	size, err := s.store.TotalSize(ctx, store.PDFPrefix(p))
	if err != nil {
		s.log.Warn().Err(err).Str("period", p.String()).Msg("size accounting failed")
		return 0
	}
	return size
}
