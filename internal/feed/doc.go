// Package feed keeps the client-side copy of the post feed in sync with the
// backend.
//
// # Overview
//
// Store owns the ordered post collection. The UI reads immutable Snapshots;
// commands issued from bubbletea goroutines call Load, Refresh, ToggleLike,
// DeletePost and AdjustCommentCount. The mutex is never held across a
// gateway call.
//
// # Lifecycle
//
//	idle ──Load──> loading ──> ready | error
//	ready ──Refresh──> refreshing ──> ready | error (stale posts kept)
//
// An empty successful load is ready with no posts (Snapshot.Empty), not an
// error.
//
// # Request Generations
//
// Every load bumps a generation counter. When a response arrives for an
// older generation it is dropped, so a slow request can never overwrite the
// result of a newer one.
//
// # Optimistic Likes
//
// ToggleLike flips the like locally and records a tentative operation tagged
// with a sequence number, then calls the backend:
//
//   - success: the tag is dropped; the local flip stands
//   - failure, newest tag: the whole feed is reloaded from the server
//   - failure, a newer toggle is in flight: the post is marked dirty and
//     the newer toggle reloads when it completes
//   - failure, the newer toggle already completed: reload at once
//
// Reloads that land while a toggle is tentative re-apply the flip, so
// server data fetched before the backend processed the toggle does not hide
// it.
//
// # Comment Counts
//
// CommentsCount is only ever changed by AdjustCommentCount deltas sent by the
// comments layer after a successful create or delete. It is clamped at zero.
package feed
