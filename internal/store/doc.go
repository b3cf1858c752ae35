// Package store is the blob-backed mirror target.
//
// All durable state (metadata indexes, documents, archive bundles,
// the run summary) is written through a gocloud.dev blob.Bucket. The
// default target is a local directory via the fileblob driver, which
// produces the canonical on-disk layout:
//
//	meta/<year>/<year-month>.jsonl
//	pdf/<year>/<year-month>/<file>.pdf
//	zip/<year>/<year-month>.zip
//	sync-summary.json
//
// Presence plus non-zero size is the de-duplication signal: an object
// that exists with at least one byte is never fetched again. There is
// no content verification beyond that.
package store
