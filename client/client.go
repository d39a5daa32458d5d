package client

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/naotama2002/oauth2-relying-go/internal/httpclient"
)

// Transport performs the HTTP call to the token endpoint. The default
// implementation wraps internal/httpclient; tests and callers with special
// transport needs can inject their own. An error is returned only for
// failures below the HTTP layer; OAuth2 error documents arrive as a
// TransportResponse with a non-2xx status.
type Transport interface {
	PostForm(ctx context.Context, endpoint string, form url.Values, headers map[string]string) (*TransportResponse, error)
}

// TransportResponse is the raw outcome of a token-endpoint call.
type TransportResponse struct {
	StatusCode int
	Body       []byte
}

// Result is the outcome of a token acquisition. Exactly one of AccessToken
// and RedirectURL is set: a non-empty RedirectURL means the acquisition is
// suspended pending a browser round trip, which is an expected part of the
// server-side flow and not a failure.
type Result struct {
	AccessToken string
	RedirectURL string
}

// Redirected reports whether the caller must redirect the browser before a
// token can be produced.
func (r *Result) Redirected() bool {
	return r.RedirectURL != ""
}

// Client acquires access tokens for one configured OAuth2 client. It caches
// tokens in its Store under a stable identity, refreshes them when they
// expire, and drives the server-side redirect dance when needed.
//
// Each call runs strictly in sequence; the only suspension point is the
// browser-mediated redirect, which ends the current call and resumes on a
// later one correlated through the Store and the state parameter.
type Client struct {
	cfg       Config
	id        Identity
	store     Store
	ownsStore bool
	transport Transport
	log       *zap.Logger
	now       func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithIdentity overrides the derived identity, so a caller can address a
// token stored by someone else (see ShareToken).
func WithIdentity(id Identity) Option {
	return func(c *Client) { c.id = id }
}

// WithStore injects the store shared across the requests of one session.
func WithStore(st Store) Option {
	return func(c *Client) { c.store = st; c.ownsStore = false }
}

// WithTransport injects the HTTP transport used for token-endpoint calls.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithLogger injects the logger; the default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithClock injects the time source, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New validates cfg and builds a Client. Without WithStore an in-memory
// store is created and owned by the Client; call Close to release it.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg: cfg,
		id:  DeriveIdentity(cfg),
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		c.store = NewMemoryStore()
		c.ownsStore = true
	}
	if c.transport == nil {
		c.transport = httpTransport{hc: httpclient.New(nil)}
	}

	return c, nil
}

// Identity returns the identity tokens are stored under.
func (c *Client) Identity() Identity {
	return c.id
}

// Close releases resources the Client created itself. A store injected via
// WithStore is left alone.
func (c *Client) Close() {
	if c.ownsStore {
		if ms, ok := c.store.(*MemoryStore); ok {
			ms.Stop()
		}
	}
}

// Token returns an access token for the request described by req.
//
// A cached token still usable within the expiry margin is returned with no
// network call. Otherwise renewal runs in two tiers: a refresh_token grant
// when a refresh token is available, then - on its absence or any failure of
// it - a full new grant for the configured flow. The server-side flow may
// suspend the acquisition with a redirect Result instead of a token.
func (c *Client) Token(ctx context.Context, req RequestInfo) (*Result, error) {
	cached, err := c.store.Token(ctx, c.id)
	if err != nil {
		return nil, newStateError(err, "failed to load stored token")
	}
	if cached.Usable(c.now()) {
		return &Result{AccessToken: cached.AccessToken}, nil
	}

	tok, res, err := c.renew(ctx, cached, req)
	if err != nil || res != nil {
		return res, err
	}

	tok.ExpiresAt = c.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if err := c.store.SaveToken(ctx, c.id, tok); err != nil {
		return nil, newStateError(err, "failed to store token")
	}

	// If this request is the back half of an authorization round trip, send
	// the browser to the bookmarked original URL instead of returning the
	// token; the next call there is served from the cache.
	target, redirect, err := c.coordinator().returnTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	if redirect {
		return &Result{RedirectURL: target}, nil
	}

	return &Result{AccessToken: tok.AccessToken}, nil
}

// renew obtains a fresh token, trying a refresh first. Exactly one of the
// returned token and Result is non-nil on success; the Result carries the
// server-side flow's redirect suspension.
func (c *Client) renew(ctx context.Context, cached *Token, req RequestInfo) (*Token, *Result, error) {
	if cached != nil && cached.RefreshToken != "" && c.cfg.AuthFlow != FlowClientCredentials {
		tok, err := c.requestToken(ctx, refreshGrant{refreshToken: cached.RefreshToken})
		if err == nil {
			return tok, nil, nil
		}
		// A failed refresh is recoverable: fall through to a new grant.
		c.log.Debug("token refresh failed, requesting a new grant", zap.Error(err))
	}

	switch c.cfg.AuthFlow {
	case FlowClientCredentials:
		tok, err := c.requestToken(ctx, clientCredentialsGrant{})
		return tok, nil, err
	case FlowUserPassword:
		tok, err := c.requestToken(ctx, passwordGrant{})
		return tok, nil, err
	default:
		return c.serverSide(ctx, req)
	}
}

// serverSide runs the authorization-code flow for the current request:
// entry when no code is present, phase-two exchange when the browser has
// come back with one.
func (c *Client) serverSide(ctx context.Context, req RequestInfo) (*Token, *Result, error) {
	if errCode := req.Params.Get("error"); errCode != "" {
		return nil, nil, newAuthServerError(errCode, req.Params.Get("error_description"), "authorization failed")
	}

	co := c.coordinator()

	code := req.Params.Get("code")
	if code != "" {
		bm, err := co.resume(ctx, req)
		if err != nil {
			return nil, nil, err
		}
		if bm != nil {
			tok, err := c.requestToken(ctx, authorizationCodeGrant{code: code})
			return tok, nil, err
		}
		// The code cannot be trusted without a matching bookmark; start the
		// round trip over.
		c.log.Warn("authorization code with unknown state, restarting flow",
			zap.String("state", req.Params.Get("state")))
	}

	target, err := co.begin(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return nil, &Result{RedirectURL: target}, nil
}

// requestToken performs one token-endpoint call for the given grant.
func (c *Client) requestToken(ctx context.Context, g grantStrategy) (*Token, error) {
	body, headers := buildTokenRequest(c.cfg, g)

	resp, err := c.transport.PostForm(ctx, c.cfg.TokenEndpoint, body, headers)
	if err != nil {
		return nil, newTransportError(err, "token request to %s failed", c.cfg.TokenEndpoint)
	}

	tok, parseErr := parserFor(c.cfg.Provider, g.grantType()).parse(resp.Body)
	if parseErr != nil {
		return nil, parseErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Parseable token in an error response would be nonsensical, but a
		// non-2xx without an OAuth2 error document still has to fail.
		return nil, newAuthServerError("", "", "token endpoint answered with unexpected status")
	}

	c.log.Debug("token acquired",
		zap.String("grant_type", g.grantType()),
		zap.Int("expires_in", tok.ExpiresIn))

	return tok, nil
}

func (c *Client) coordinator() *coordinator {
	return &coordinator{cfg: c.cfg, store: c.store, log: c.log, now: c.now}
}

// ShareToken deposits an externally obtained token directly into st under
// id, bypassing any grant flow. An already-authenticated collaborator (an
// identity-provider federation library, say) can hand its token over so a
// Client constructed with the same identity finds it in the cache.
func ShareToken(ctx context.Context, st Store, id Identity, tok *Token) error {
	if tok == nil || tok.AccessToken == "" {
		return newStateError(nil, "shared token lacks an access token")
	}
	copied := *tok
	if copied.ExpiresAt.IsZero() && copied.ExpiresIn > 0 {
		copied.ExpiresAt = time.Now().Add(time.Duration(copied.ExpiresIn) * time.Second)
	}
	return st.SaveToken(ctx, id, &copied)
}

// httpTransport adapts internal/httpclient to the Transport interface.
type httpTransport struct {
	hc *httpclient.Client
}

func (t httpTransport) PostForm(ctx context.Context, endpoint string, form url.Values, headers map[string]string) (*TransportResponse, error) {
	resp, err := t.hc.PostForm(ctx, endpoint, form, headers)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.SafeClose() }()

	return &TransportResponse{StatusCode: resp.StatusCode, Body: resp.BodyBytes}, nil
}
