package client

import (
	"crypto/sha256"
	"encoding/hex"
)

// AuthFlow selects how the client obtains its first access token.
type AuthFlow string

const (
	// FlowServerSide is the authorization-code flow: the user's browser is
	// redirected to the authorization server and back.
	FlowServerSide AuthFlow = "server-side"
	// FlowClientCredentials authenticates the client itself; no user, no
	// refresh token.
	FlowClientCredentials AuthFlow = "client-credentials"
	// FlowUserPassword exchanges resource-owner credentials for a token.
	FlowUserPassword AuthFlow = "user-password"
)

// ClientAuth selects how client credentials are presented to the token
// endpoint.
type ClientAuth string

const (
	// ClientAuthHeader sends Authorization: Basic base64(id:secret).
	ClientAuthHeader ClientAuth = "header"
	// ClientAuthData sends client_id and client_secret as body fields.
	ClientAuthData ClientAuth = "data"
)

// Provider names an authorization server with known response quirks.
type Provider string

// ProviderFacebook selects the Facebook response parser: the token endpoint
// answers the authorization_code grant with url-encoded form data instead of
// JSON.
const ProviderFacebook Provider = "facebook"

// Config carries the parameters needed by the different authorization
// flows. All flows need ClientID, ClientSecret and TokenEndpoint; the
// server-side flow additionally needs AuthorizationEndpoint and RedirectURI,
// and the user-password flow needs Username and Password.
type Config struct {
	AuthFlow     AuthFlow
	ClientID     string
	ClientSecret string

	// ClientAuth defaults to ClientAuthHeader when empty.
	ClientAuth ClientAuth

	TokenEndpoint         string
	AuthorizationEndpoint string
	RedirectURI           string

	// Scope holds the requested scopes separated by spaces. An empty scope
	// is omitted from requests entirely.
	Scope string

	Username string
	Password string

	// Provider enables provider-specific response parsing.
	Provider Provider
}

// withDefaults fills optional fields the same way the flows expect them.
func (c Config) withDefaults() Config {
	if c.ClientAuth == "" {
		c.ClientAuth = ClientAuthHeader
	}
	return c
}

// Validate checks that every field required by the selected flow is present.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return newConfigError("client ID is required")
	}
	if c.ClientSecret == "" {
		return newConfigError("client secret is required")
	}
	if c.TokenEndpoint == "" {
		return newConfigError("token endpoint is required")
	}
	if c.ClientAuth != "" && c.ClientAuth != ClientAuthHeader && c.ClientAuth != ClientAuthData {
		return newConfigError("unknown client auth mode %q", c.ClientAuth)
	}

	switch c.AuthFlow {
	case FlowClientCredentials:
	case FlowUserPassword:
		if c.Username == "" || c.Password == "" {
			return newConfigError("username and password are required for the %s flow", FlowUserPassword)
		}
	case FlowServerSide:
		if c.AuthorizationEndpoint == "" {
			return newConfigError("authorization endpoint is required for the %s flow", FlowServerSide)
		}
		if c.RedirectURI == "" {
			return newConfigError("redirect URI is required for the %s flow", FlowServerSide)
		}
	default:
		return newConfigError("unknown auth flow %q; supported flows are: %s, %s, %s",
			c.AuthFlow, FlowServerSide, FlowClientCredentials, FlowUserPassword)
	}

	return nil
}

// Identity is a stable identifier for one configured client. Tokens are
// stored under it, so repeated constructions with identical config address
// the same stored token.
type Identity string

// DeriveIdentity computes the default identity from the fields that
// distinguish one client configuration from another.
func DeriveIdentity(c Config) Identity {
	hash := sha256.Sum256([]byte(c.TokenEndpoint + c.ClientID + string(c.AuthFlow)))
	return Identity(hex.EncodeToString(hash[:8]))
}
