// Package batch runs independent loads concurrently and waits for all of
// them to settle.
//
// A failing task never cancels its siblings, and results are attributed by
// position, not by completion order:
//
//	results := batch.Settle(ctx, batch.DefaultConfig(),
//		batch.Task{Name: "summary", Run: loadSummary},
//		batch.Task{Name: "latest", Run: loadLatest},
//	)
//	if results.AllFailed() { ... }
//
// The executor:
//   - Bounds concurrency with errgroup.SetLimit
//   - Applies an optional per-task timeout
//   - Converts task panics into errors
//   - Logs each failure with the task name and duration
package batch
