package client

import (
	"context"
	"net/url"
	"time"
)

// Bookmark owner tags. Bookmarks created by this package carry
// OwnerInternal; anything else marks a bookmark parked by a third party
// sharing the state namespace.
const (
	OwnerInternal = "oauth2client"
	OwnerExternal = "external"
)

// Bookmark is the saved pre-redirect context needed to resume the original
// caller after an authorization round trip. It lives for a single round
// trip: stored when the flow redirects away, consumed when the browser
// comes back.
type Bookmark struct {
	// State is the OAuth2 state parameter the bookmark is keyed by.
	State string `json:"state"`

	// URI and Params reproduce the request that triggered the redirect.
	URI    string     `json:"uri"`
	Params url.Values `json:"params,omitempty"`

	// Owner distinguishes bookmarks created here from external ones.
	Owner string `json:"owner"`

	CreatedAt time.Time `json:"created_at"`
}

// RegisterRedirect parks a caller-supplied bookmark in the store, so that an
// external party driving its own authorization round trip can have the user
// sent back through the same state namespace. The owner defaults to
// OwnerExternal when unset; bookmarks with an external owner are cleaned up
// after the round trip without any further redirect.
func RegisterRedirect(ctx context.Context, st Store, bm *Bookmark) error {
	if bm == nil || bm.State == "" {
		return newStateError(nil, "bookmark state must not be empty")
	}
	if bm.Owner == "" {
		bm.Owner = OwnerExternal
	}
	if bm.CreatedAt.IsZero() {
		bm.CreatedAt = time.Now()
	}
	return st.SaveBookmark(ctx, bm)
}
