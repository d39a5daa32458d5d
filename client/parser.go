package client

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// responseParser turns a raw token-endpoint response body into a Token.
// Most servers answer with JSON; providers with known quirks get their own
// parser so new providers can be added without touching the core flow.
type responseParser interface {
	parse(raw []byte) (*Token, error)
}

// parserFor selects the parser for a provider and grant type.
func parserFor(provider Provider, grantType string) responseParser {
	if provider == ProviderFacebook && grantType == "authorization_code" {
		return facebookTokenParser{}
	}
	return jsonTokenParser{}
}

type jsonTokenParser struct{}

func (jsonTokenParser) parse(raw []byte) (*Token, error) {
	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, newAuthServerError("", "", "token response is not valid JSON")
	}
	if tok.AccessToken == "" {
		// The server may have answered with an OAuth2 error document.
		var oauthErr struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(raw, &oauthErr) == nil && oauthErr.Error != "" {
			return nil, newAuthServerError(oauthErr.Error, oauthErr.ErrorDescription, "token request rejected")
		}
		return nil, newAuthServerError("", "", "token response lacks access_token")
	}
	return &tok, nil
}

// facebookTokenParser handles Facebook's authorization_code responses, which
// are url-encoded form data with an `expires` field rather than JSON. Only
// the access token and lifetime are available; there is no token type, scope
// or refresh token to carry over.
type facebookTokenParser struct{}

func (facebookTokenParser) parse(raw []byte) (*Token, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, newAuthServerError("", "", "token response is not valid form data")
	}
	accessToken := values.Get("access_token")
	if accessToken == "" {
		return nil, newAuthServerError("", "", "token response lacks access_token")
	}

	tok := &Token{AccessToken: accessToken}
	if expires := values.Get("expires"); expires != "" {
		if seconds, err := strconv.Atoi(expires); err == nil {
			tok.ExpiresIn = seconds
		}
	}
	return tok, nil
}
