// Package comments keeps the comment list of the open post in sync with the
// backend.
//
// Only one post's comments are held at a time. Opening another post or
// closing the view bumps a generation counter, so any response still in
// flight for the old post is discarded.
//
// Like toggles are applied locally first and tagged with a sequence number.
// A failed toggle re-fetches the list. When a newer toggle on the same
// comment is still pending, the re-fetch is deferred until that toggle
// completes, so a stale failure never overwrites a tentative flip and the
// list still converges on the server's state.
//
// Create clears the input before the request and restores it on failure
// when the user has not typed anything new.
package comments
