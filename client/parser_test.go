package client

import (
	"errors"
	"testing"
)

func TestParserSelection(t *testing.T) {
	if _, ok := parserFor("", "client_credentials").(jsonTokenParser); !ok {
		t.Error("Expected the JSON parser by default")
	}
	if _, ok := parserFor(ProviderFacebook, "authorization_code").(facebookTokenParser); !ok {
		t.Error("Expected the Facebook parser for its authorization_code responses")
	}
	// The quirk is limited to the one grant that triggers it.
	if _, ok := parserFor(ProviderFacebook, "refresh_token").(jsonTokenParser); !ok {
		t.Error("Expected the JSON parser for Facebook refresh responses")
	}
}

func TestJSONParser(t *testing.T) {
	raw := []byte(`{"access_token":"tok","token_type":"Bearer","scope":"read","refresh_token":"rt","expires_in":3600}`)

	tok, err := jsonTokenParser{}.parse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if tok.AccessToken != "tok" || tok.TokenType != "Bearer" || tok.RefreshToken != "rt" {
		t.Errorf("Token fields mismatch: %+v", tok)
	}
	if tok.ExpiresIn != 3600 {
		t.Errorf("Expected expires_in 3600, got %d", tok.ExpiresIn)
	}
}

func TestJSONParserErrorDocument(t *testing.T) {
	raw := []byte(`{"error":"invalid_grant","error_description":"code expired"}`)

	_, err := jsonTokenParser{}.parse(raw)
	if err == nil {
		t.Fatal("Expected an error")
	}
	var acqErr *Error
	if !errors.As(err, &acqErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if acqErr.Kind != KindAuthServer || acqErr.Code != "invalid_grant" || acqErr.Description != "code expired" {
		t.Errorf("Expected server error fields to be carried, got %+v", acqErr)
	}
}

func TestJSONParserRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"not json at all", `{"token_type":"Bearer"}`} {
		if _, err := (jsonTokenParser{}).parse([]byte(raw)); !IsKind(err, KindAuthServer) {
			t.Errorf("Expected auth_server error for %q, got %v", raw, err)
		}
	}
}

func TestFacebookParser(t *testing.T) {
	tok, err := facebookTokenParser{}.parse([]byte("access_token=fb-tok&expires=5183999"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if tok.AccessToken != "fb-tok" {
		t.Errorf("Expected fb-tok, got %q", tok.AccessToken)
	}
	if tok.ExpiresIn != 5183999 {
		t.Errorf("Expected expires to map to ExpiresIn, got %d", tok.ExpiresIn)
	}
	if tok.RefreshToken != "" || tok.TokenType != "" {
		t.Errorf("Expected no refresh token or token type, got %+v", tok)
	}
}

func TestFacebookParserMissingToken(t *testing.T) {
	_, err := facebookTokenParser{}.parse([]byte("expires=5183999"))
	if !IsKind(err, KindAuthServer) {
		t.Errorf("Expected auth_server error, got %v", err)
	}
}
