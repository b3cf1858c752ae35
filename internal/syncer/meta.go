package syncer

import (
	"bytes"
	"context"

	"github.com/chaiyosart/open-law/internal/period"
	"github.com/chaiyosart/open-law/internal/store"
)

// MetaStatus describes the outcome of a metadata sync.
type MetaStatus int

const (
	// MetaNew means the index was fetched for the first time.
	MetaNew MetaStatus = iota

	// MetaUpdated means remote content differed from the stored copy.
	MetaUpdated

	// MetaUnchanged means remote content is byte-identical to the
	// stored copy; nothing was rewritten.
	MetaUnchanged

	// MetaStale means the fetch failed and the stored copy is used
	// as-is.
	MetaStale

	// MetaMissing means the fetch failed and there is no stored copy.
	MetaMissing
)

func (s MetaStatus) String() string {
	switch s {
	case MetaNew:
		return "new"
	case MetaUpdated:
		return "updated"
	case MetaUnchanged:
		return "unchanged"
	case MetaStale:
		return "stale"
	case MetaMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// syncMetadata refreshes a period's metadata index. The remote index
// is always re-fetched: its content can change even when the name
// does not. The returned key is empty when no usable index exists.
func (s *Syncer) syncMetadata(ctx context.Context, p period.Period) (string, MetaStatus) {
	key := store.MetaKey(p)
	log := s.log.With().Str("period", p.String()).Logger()

	data, err := s.client.GetBytes(ctx, s.client.ResolveURL(key))
	if err != nil {
		if ok, existsErr := s.store.Exists(ctx, key); existsErr == nil && ok {
			log.Warn().Err(err).Msg("metadata fetch failed, using stale local copy")
			return key, MetaStale
		}
		log.Warn().Err(err).Msg("metadata unavailable for period")
		return "", MetaMissing
	}

	status := MetaNew
	if existing, readErr := s.store.ReadAll(ctx, key); readErr == nil {
		if bytes.Equal(existing, data) {
			return key, MetaUnchanged
		}
		status = MetaUpdated
	}

	if err := s.store.WriteAll(ctx, key, data); err != nil {
		if status == MetaUpdated {
			log.Warn().Err(err).Msg("metadata write failed, keeping previous copy")
			return key, MetaStale
		}
		log.Warn().Err(err).Msg("metadata write failed")
		return "", MetaMissing
	}
	return key, status
}
