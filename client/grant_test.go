package client

import (
	"encoding/base64"
	"testing"
)

func TestBuildTokenRequestHeaderAuth(t *testing.T) {
	cfg := Config{
		ClientID:     "id",
		ClientSecret: "secret",
		ClientAuth:   ClientAuthHeader,
		Scope:        "read",
	}

	body, headers := buildTokenRequest(cfg, clientCredentialsGrant{})

	if body.Get("grant_type") != "client_credentials" {
		t.Errorf("Expected client_credentials grant, got %q", body.Get("grant_type"))
	}
	if body.Get("client_id") != "" || body.Get("client_secret") != "" {
		t.Error("Expected no client credentials in the body for header auth")
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("id:secret"))
	if headers["Authorization"] != want {
		t.Errorf("Expected %q, got %q", want, headers["Authorization"])
	}
	if headers["Accept"] != "application/json" {
		t.Errorf("Expected Accept application/json, got %q", headers["Accept"])
	}
	if body.Get("scope") != "read" {
		t.Errorf("Expected scope in body, got %q", body.Get("scope"))
	}
}

func TestBuildTokenRequestDataAuth(t *testing.T) {
	cfg := Config{
		ClientID:     "id",
		ClientSecret: "secret",
		ClientAuth:   ClientAuthData,
	}

	body, headers := buildTokenRequest(cfg, clientCredentialsGrant{})

	if body.Get("client_id") != "id" || body.Get("client_secret") != "secret" {
		t.Errorf("Expected client credentials in the body, got %v", body)
	}
	if _, ok := headers["Authorization"]; ok {
		t.Error("Expected no Authorization header for data auth")
	}
}

func TestEmptyScopeOmitted(t *testing.T) {
	cfg := Config{ClientID: "id", ClientSecret: "secret"}

	for _, g := range []grantStrategy{clientCredentialsGrant{}, passwordGrant{}} {
		body, _ := buildTokenRequest(cfg, g)
		if _, ok := body["scope"]; ok {
			t.Errorf("Expected empty scope to be omitted for %s", g.grantType())
		}
	}
}

func TestGrantBodies(t *testing.T) {
	cfg := Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Username:     "alice",
		Password:     "wonderland",
		RedirectURI:  "https://app.example.org/authorized",
	}

	body := passwordGrant{}.body(cfg)
	if body.Get("username") != "alice" || body.Get("password") != "wonderland" {
		t.Errorf("Expected user credentials, got %v", body)
	}

	body = refreshGrant{refreshToken: "rt"}.body(cfg)
	if body.Get("grant_type") != "refresh_token" || body.Get("refresh_token") != "rt" {
		t.Errorf("Expected refresh_token body, got %v", body)
	}
	if _, ok := body["scope"]; ok {
		t.Error("Expected refresh grant to carry no scope")
	}

	body = authorizationCodeGrant{code: "c"}.body(cfg)
	if body.Get("grant_type") != "authorization_code" || body.Get("code") != "c" {
		t.Errorf("Expected authorization_code body, got %v", body)
	}
	if body.Get("redirect_uri") != cfg.RedirectURI {
		t.Errorf("Expected redirect_uri in body, got %q", body.Get("redirect_uri"))
	}
}
