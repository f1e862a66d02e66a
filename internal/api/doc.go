// Package api provides an HTTP client for the social backend's REST API.
//
// # Overview
//
// This package is the remote gateway for flock. It issues the feed, post,
// comment, like, profile, auth and upload calls, decodes the JSON replies into
// typed structs, and turns every failure into a single error shape (*Error).
// It holds no state besides the base URL and a TokenSource; the
// synchronization layers (feed, comments, compose) own all local state.
//
// # Architecture
//
//   - client.go: Client construction, request decoration, error mapping
//   - posts.go: feed, post CRUD, post likes, comments and comment likes
//   - users.go: profile, location and auth endpoints
//   - upload.go: multipart image upload returning an absolute URL
//   - geocode.go: reverse geocoding against a Nominatim-compatible service
//   - types.go: wire types (Post, Comment, Author, Profile, payloads)
//   - errors.go: Error, ErrorKind and inspection helpers
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and a flock User-Agent
//   - Carry a fresh X-Request-ID (uuid) for server-side correlation
//   - Send Authorization: Bearer <token> when the TokenSource has one
//   - Time out after 10 seconds (uploads after 20 seconds)
//
// # Error Handling
//
// Every Client method returns *Error on failure:
//
//   - KindNetwork: no response received (refused, DNS, timeout)
//   - KindServer: HTTP status >= 400, with the backend's message if any
//   - KindDecode: the body could not be decoded
//   - KindOther: request construction failed
//
// UserMessage extracts the server's message for display, falling back to a
// caller-supplied generic text.
//
// # Author References
//
// The backend sends a post or comment author either as a bare id string or
// as an embedded user object. Author models both as a tagged union; use
// AuthorID to get the identifier regardless of which form arrived.
//
// # Testing Considerations
//
// Use httptest.Server to stand in for the backend. The synchronization
// layers declare the slice of Client they need as their own Gateway
// interfaces, so they run against in-memory fakes.
package api
