// Package syncer orchestrates the per-period mirror pipeline.
//
// Periods are processed strictly sequentially. For each period the
// pipeline is:
//
//	metadata sync -> (download pool | archive materializer) -> verify -> size accounting
//
// The download pool is a fixed set of workers fed from a jobs channel
// and drained over a results channel; at most Concurrency fetches are
// in flight at once. Per-file and per-period failures accumulate into
// the run summary and never abort the run. The summary is persisted
// once, at the end, as sync-summary.json.
package syncer
