// Package logtail reads the tail of flock's client log for the Activity view.
//
// # Overview
//
// flock logs through the standard library logger into <state_dir>/flock.log
// while the TUI owns the terminal. This package pulls the last N lines of that
// file and parses each one into an Entry (timestamp, inferred level, source
// component, message) so the UI can color and filter them.
//
// # Reading Log Files
//
// Read uses a ring buffer of size maxLines:
//
//   - Scans the file sequentially (one pass)
//   - Uses O(maxLines) memory, not O(file size)
//   - Returns lines in chronological order
//
// A missing file yields nil, nil; the log only exists after the first write.
//
// # Line Format
//
// Lines follow log.LstdFlags with a component prefix:
//
//	2025/10/08 21:01:05 feed: reload failed: execute request GET /posts/feed: ...
//
// Parse never fails. Lines without a timestamp keep their full text as the
// message. The level is inferred from keywords ("failed", "error" → ERROR;
// "skipping", "backing off" → WARN; everything else INFO).
package logtail
