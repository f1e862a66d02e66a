// Package app provides the orchestration layer for the flock application.
//
// # Overview
//
// This package wires together configuration, logging, the backend client, the
// session and the synchronization stores, then hands them to the UI. It is the
// composition root: nothing below it knows how the pieces are assembled.
//
// # Startup Sequence
//
//  1. Load config from ~/.config/flock/config.toml (plus FLOCK_* overrides)
//  2. Route the standard logger to <state_dir>/flock.log
//  3. Load display preferences (theme, last sign-in email)
//  4. Build the API client, geocoder and image uploader (API or S3)
//  5. Build session, feed, comments and compose stores
//  6. Restore the saved session (expired or rejected tokens sign out)
//  7. Launch the feed poller and start the TUI (blocks)
//
// # Components
//
//   - app.go: Run, uploader selection, log file setup
//   - poller.go: background feed refresh with exponential backoff
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()        Read config + env
//	       ├─────> api.NewClient()      Token via session closure
//	       ├─────> session.Initialize() Restore saved token
//	       ├─────> StartPoller()        feed.Refresh while signed in
//	       └─────> ui.Run()             Start TUI (blocks)
//
// # Polling Behavior
//
// The poller refreshes the feed every refresh_interval (default 30 seconds)
// while a user is signed in. Each consecutive failure doubles the wait, capped
// at 30 seconds; one success resets it. A zero interval disables polling. The
// UI reads store snapshots on its own tick, so a slow poll never blocks input.
//
// # Error Handling
//
// Fatal errors (returned from Run): invalid config, unwritable state
// directory, a client that cannot be built, an unreachable S3 bucket when the
// s3 upload backend is selected.
//
// Everything else is recoverable and logged: a failed session restore leaves
// the user signed out, poll failures back off and retry.
package app
