// Package progress renders a live download bar on stderr.
//
// The reporter tracks a completed/total file count and a byte total,
// redrawn on a fixed interval. It is an observability side effect
// only: the download pool owns the authoritative per-file outcomes.
package progress
