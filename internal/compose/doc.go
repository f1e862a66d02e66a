// Package compose manages the draft behind the new-post and edit-post
// screens.
//
// A Composer holds at most one Draft: text, up to MaxImages image references
// (remote URLs kept as-is, local files uploaded on submit) and an optional
// location. Submit validates, uploads local images sequentially in list
// order, then creates or updates the post and asks the feed to reload.
// A failed image upload is logged and that image is dropped; it never aborts
// the submit.
package compose
