package client

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// coordinator manages the park-redirect-resume protocol of the server-side
// flow. It performs no I/O of its own: it only records bookmarks in the
// store and hands back target URLs; issuing the actual HTTP redirects is the
// caller's job.
type coordinator struct {
	cfg   Config
	store Store
	log   *zap.Logger
	now   func() time.Time
}

// begin parks the current request as a bookmark under a fresh state value
// and returns the authorization URL the browser must be sent to.
func (co *coordinator) begin(ctx context.Context, req RequestInfo) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", newStateError(err, "failed to generate state")
	}

	bm := &Bookmark{
		State:     state,
		URI:       req.URI,
		Params:    req.Params,
		Owner:     OwnerInternal,
		CreatedAt: co.now(),
	}
	if err := co.store.SaveBookmark(ctx, bm); err != nil {
		return "", newStateError(err, "failed to save redirect bookmark")
	}

	authURL, err := url.Parse(co.cfg.AuthorizationEndpoint)
	if err != nil {
		return "", newConfigError("invalid authorization endpoint: %v", err)
	}
	query := authURL.Query()
	query.Set("response_type", "code")
	query.Set("client_id", co.cfg.ClientID)
	query.Set("redirect_uri", co.cfg.RedirectURI)
	query.Set("state", state)
	if co.cfg.Scope != "" {
		query.Set("scope", co.cfg.Scope)
	}
	authURL.RawQuery = query.Encode()

	co.log.Debug("redirecting to authorization server",
		zap.String("state", state),
		zap.String("original_uri", req.URI))

	return authURL.String(), nil
}

// resume looks up the bookmark for the inbound state. A nil bookmark with a
// nil error means the state is unrecognized or expired; the caller falls
// back to a fresh entry rather than failing.
func (co *coordinator) resume(ctx context.Context, req RequestInfo) (*Bookmark, error) {
	state := req.Params.Get("state")
	if state == "" {
		return nil, nil
	}
	bm, err := co.store.Bookmark(ctx, state)
	if err != nil {
		return nil, newStateError(err, "failed to load redirect bookmark")
	}
	return bm, nil
}

// returnTrip runs after a new token has been stored. When the inbound
// request carries a state we created a bookmark for, the bookmark is deleted
// and the browser is pointed back at the original URL, with the saved
// parameters restored and the authorization artifacts (code, state) removed.
// Bookmarks owned by a third party are deleted without any redirect; the
// external owner handles its own return trip.
func (co *coordinator) returnTrip(ctx context.Context, req RequestInfo) (string, bool, error) {
	state := req.Params.Get("state")
	if state == "" {
		return "", false, nil
	}
	bm, err := co.store.Bookmark(ctx, state)
	if err != nil {
		return "", false, newStateError(err, "failed to load redirect bookmark")
	}
	if bm == nil {
		return "", false, nil
	}

	if err := co.store.DeleteBookmark(ctx, state); err != nil {
		return "", false, newStateError(err, "failed to delete redirect bookmark")
	}
	if bm.Owner != OwnerInternal {
		co.log.Debug("cleaned up externally owned bookmark", zap.String("state", state))
		return "", false, nil
	}

	return mergeTarget(bm, req.Params, true), true, nil
}

// Authorized is called from the handler serving the configured redirect URI.
// It surfaces any error reported by the authorization server, then resolves
// the bookmark for the inbound state and returns the URL of the page that
// started the flow, with code and state passed along so that page can
// complete the exchange. Internally owned bookmarks are kept for the final
// return trip; external ones are consumed here.
func Authorized(ctx context.Context, st Store, req RequestInfo) (string, error) {
	if errCode := req.Params.Get("error"); errCode != "" {
		return "", newAuthServerError(errCode, req.Params.Get("error_description"), "authorization failed")
	}

	state := req.Params.Get("state")
	if state == "" {
		return "", newStateError(nil, "callback request carries no state")
	}
	bm, err := st.Bookmark(ctx, state)
	if err != nil {
		return "", newStateError(err, "failed to load redirect bookmark")
	}
	if bm == nil {
		return "", newStateError(nil, "unknown or expired state %q", state)
	}

	if bm.Owner != OwnerInternal {
		if err := st.DeleteBookmark(ctx, state); err != nil {
			return "", newStateError(err, "failed to delete redirect bookmark")
		}
	}

	return mergeTarget(bm, req.Params, false), nil
}

// mergeTarget combines a bookmark with the current inbound parameters into
// the redirect target. Saved parameters win over inbound ones; with clean
// set, code and state are stripped so they do not reappear in the address
// bar.
func mergeTarget(bm *Bookmark, params url.Values, clean bool) string {
	merged := url.Values{}
	for k, vs := range params {
		if clean && (k == "code" || k == "state") {
			continue
		}
		merged[k] = vs
	}
	for k, vs := range bm.Params {
		merged[k] = vs
	}

	if len(merged) == 0 {
		return bm.URI
	}
	return bm.URI + "?" + merged.Encode()
}

// generateState returns a cryptographically random, URL-safe state value.
func generateState() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
