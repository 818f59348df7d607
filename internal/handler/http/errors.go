package http

import "errors"

// User-facing messages for posting-scoped operations, carried over from
// the original service's uniform-400 wording.
var (
	errNotAllowedToReadPosting = errors.New("not allowed to read this posting")
	errUserOrPostingNotFound   = errors.New("user or posting not found")
)
