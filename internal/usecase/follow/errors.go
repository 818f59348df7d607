// Package follow implements the user-facing subscribe/read-tracking
// operations: follow, unfollow, mark read/unread, filtered listing, and a
// force-update path for deactivated feeds.
package follow

import "errors"

// ErrUserNotFound indicates the given username has no matching user.
var ErrUserNotFound = errors.New("user not found")

// ErrIngestFailed indicates Ingestor could not fetch the requested link.
var ErrIngestFailed = errors.New("could not fetch feed")
