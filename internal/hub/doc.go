// Package hub is the client for the dataset hub HTTP API.
//
// This package handles:
//   - Raw content downloads via the resolve endpoint
//   - Directory listings via the paginated tree endpoint
//   - Bounded retry with linear backoff
//
// Every request failure is retried identically, including 4xx
// statuses: the hub occasionally serves transient 403s from its CDN,
// so the client does not try to distinguish retryable from permanent
// failures. The final error wraps a sentinel (ErrNotFound and
// friends) that callers can test with errors.Is.
//
// # Usage
//
//	client := hub.NewClient(hub.Options{
//	    Repo:     "owner/dataset",
//	    Attempts: 3,
//	})
//
//	body, err := client.Get(ctx, client.ResolveURL("meta/2024/2024-01.jsonl"))
//	defer body.Close()
//
//	entries, truncated, err := client.ListTree(ctx, "pdf/2024/2024-01")
package hub
