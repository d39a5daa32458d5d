package client

import (
	"encoding/base64"
	"net/url"
)

// grantStrategy builds the token-endpoint request body for one grant type.
// Client authentication and the scope-omission rule are applied uniformly by
// buildTokenRequest, so strategies only contribute their own parameters.
type grantStrategy interface {
	grantType() string
	body(cfg Config) url.Values
}

type clientCredentialsGrant struct{}

func (clientCredentialsGrant) grantType() string { return "client_credentials" }

func (clientCredentialsGrant) body(cfg Config) url.Values {
	v := url.Values{}
	v.Set("grant_type", "client_credentials")
	if cfg.Scope != "" {
		v.Set("scope", cfg.Scope)
	}
	return v
}

type passwordGrant struct{}

func (passwordGrant) grantType() string { return "password" }

func (passwordGrant) body(cfg Config) url.Values {
	v := url.Values{}
	v.Set("grant_type", "password")
	v.Set("username", cfg.Username)
	v.Set("password", cfg.Password)
	if cfg.Scope != "" {
		v.Set("scope", cfg.Scope)
	}
	return v
}

// refreshGrant renews a token using a previously issued refresh token. It
// serves the server-side and user-password flows; client-credentials never
// issues a refresh token and never uses this grant.
type refreshGrant struct {
	refreshToken string
}

func (refreshGrant) grantType() string { return "refresh_token" }

func (g refreshGrant) body(Config) url.Values {
	v := url.Values{}
	v.Set("grant_type", "refresh_token")
	v.Set("refresh_token", g.refreshToken)
	return v
}

// authorizationCodeGrant is phase two of the server-side flow, after the
// coordinator has carried the browser round trip.
type authorizationCodeGrant struct {
	code string
}

func (authorizationCodeGrant) grantType() string { return "authorization_code" }

func (g authorizationCodeGrant) body(cfg Config) url.Values {
	v := url.Values{}
	v.Set("grant_type", "authorization_code")
	v.Set("code", g.code)
	v.Set("redirect_uri", cfg.RedirectURI)
	return v
}

// buildTokenRequest assembles the form body and headers for a token-endpoint
// call. In header mode the client authenticates with a Basic Authorization
// header; in data mode client_id and client_secret travel in the body and no
// Authorization header is sent.
func buildTokenRequest(cfg Config, g grantStrategy) (url.Values, map[string]string) {
	body := g.body(cfg)
	headers := map[string]string{
		"Accept": "application/json",
	}

	if cfg.ClientAuth == ClientAuthData {
		body.Set("client_id", cfg.ClientID)
		body.Set("client_secret", cfg.ClientSecret)
	} else {
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.ClientID + ":" + cfg.ClientSecret))
		headers["Authorization"] = "Basic " + credentials
	}

	return body, headers
}
