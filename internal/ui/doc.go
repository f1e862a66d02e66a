// Package ui provides the terminal user interface for flock.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds only presentation state; the
// posts, comments, draft and session live in their stores (feed, comments,
// compose, session), which are safe for concurrent use. The model never
// blocks on the network: every store operation runs inside a tea.Cmd and
// the model re-reads store snapshots on a short tick.
//
// # Package Structure
//
//   - app.go: Model, Update/View dispatch, snapshot handling and Run
//   - commands.go: messages, tick and snapshot commands, runOp, error text
//   - feed_view.go: post list, detail pane, likes, paging, post deletion
//   - comments_view.go: comment thread, comment input, comment likes
//   - compose_view.go: draft editor, image path prompt, publishing
//   - profile_view.go: profile summary, profile and location forms, sign out
//   - activity_view.go: tail of the client log with a level filter
//   - login_view.go: sign-in and registration form
//   - header.go, help.go, box.go: chrome shared by every view
//   - theme.go, style_helpers.go, strings.go: styling and text helpers
//
// # Views
//
//   - Sign in: shown whenever the session has no user
//   - Feed: post list with the selected post's detail, side by side on
//     wide terminals and stacked on narrow ones
//   - Comments: the selected post's thread and an input line
//   - Compose: create or edit a post with up to four images and a location
//   - Profile: the signed-in user's profile and posts
//   - Activity: the client's own log file
//
// # Optimistic Updates
//
// Likes, comments and deletes change the store before the backend answers.
// runOp starts the operation and schedules a snapshot a few milliseconds
// later, so the tentative state shows immediately. The store reconciles on
// failure and the next snapshot shows the outcome.
//
// # Event Flow
//
//  1. Run creates the Model and starts the program with the alt screen
//  2. tickMsg fires every DefaultUIInterval and requests a snapshotMsg
//  3. applySnapshot copies the snapshots and handles sign-in/out transitions
//  4. Key presses start commands that call into the stores
//  5. Context cancellation ends the program
package ui
