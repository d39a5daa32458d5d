package client

import (
	"testing"
)

func TestValidate(t *testing.T) {
	base := Config{
		ClientID:      "id",
		ClientSecret:  "secret",
		TokenEndpoint: "https://as.example.org/token",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "client credentials needs no more than the base fields",
			mutate: func(c *Config) { c.AuthFlow = FlowClientCredentials },
		},
		{
			name: "user password with credentials",
			mutate: func(c *Config) {
				c.AuthFlow = FlowUserPassword
				c.Username = "alice"
				c.Password = "wonderland"
			},
		},
		{
			name: "server side with endpoints",
			mutate: func(c *Config) {
				c.AuthFlow = FlowServerSide
				c.AuthorizationEndpoint = "https://as.example.org/authorize"
				c.RedirectURI = "https://app.example.org/authorized"
			},
		},
		{
			name:    "missing client ID",
			mutate:  func(c *Config) { c.AuthFlow = FlowClientCredentials; c.ClientID = "" },
			wantErr: true,
		},
		{
			name:    "missing client secret",
			mutate:  func(c *Config) { c.AuthFlow = FlowClientCredentials; c.ClientSecret = "" },
			wantErr: true,
		},
		{
			name:    "missing token endpoint",
			mutate:  func(c *Config) { c.AuthFlow = FlowClientCredentials; c.TokenEndpoint = "" },
			wantErr: true,
		},
		{
			name:    "user password without password",
			mutate:  func(c *Config) { c.AuthFlow = FlowUserPassword; c.Username = "alice" },
			wantErr: true,
		},
		{
			name: "server side without redirect URI",
			mutate: func(c *Config) {
				c.AuthFlow = FlowServerSide
				c.AuthorizationEndpoint = "https://as.example.org/authorize"
			},
			wantErr: true,
		},
		{
			name:    "server side without authorization endpoint",
			mutate:  func(c *Config) { c.AuthFlow = FlowServerSide; c.RedirectURI = "https://app.example.org/authorized" },
			wantErr: true,
		},
		{
			name:    "unknown flow",
			mutate:  func(c *Config) { c.AuthFlow = "implicit" },
			wantErr: true,
		},
		{
			name:    "unknown client auth mode",
			mutate:  func(c *Config) { c.AuthFlow = FlowClientCredentials; c.ClientAuth = "query" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected validation to fail")
				}
				if !IsKind(err, KindConfig) {
					t.Errorf("Expected config error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected valid config, got %v", err)
			}
		})
	}
}

func TestClientAuthDefaultsToHeader(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.ClientAuth != ClientAuthHeader {
		t.Errorf("Expected header auth by default, got %q", cfg.ClientAuth)
	}

	cfg = Config{ClientAuth: ClientAuthData}.withDefaults()
	if cfg.ClientAuth != ClientAuthData {
		t.Errorf("Expected explicit auth mode to be kept, got %q", cfg.ClientAuth)
	}
}

func TestDeriveIdentity(t *testing.T) {
	cfg := Config{
		AuthFlow:      FlowClientCredentials,
		ClientID:      "id",
		ClientSecret:  "secret",
		TokenEndpoint: "https://as.example.org/token",
	}

	id := DeriveIdentity(cfg)
	if id == "" {
		t.Fatal("Expected a non-empty identity")
	}
	if DeriveIdentity(cfg) != id {
		t.Error("Expected identical configs to derive the same identity")
	}

	// The secret does not participate; rotating it keeps the identity.
	rotated := cfg
	rotated.ClientSecret = "new-secret"
	if DeriveIdentity(rotated) != id {
		t.Error("Expected a secret rotation to keep the identity")
	}

	otherFlow := cfg
	otherFlow.AuthFlow = FlowUserPassword
	if DeriveIdentity(otherFlow) == id {
		t.Error("Expected different flows to derive different identities")
	}

	otherClient := cfg
	otherClient.ClientID = "other-id"
	if DeriveIdentity(otherClient) == id {
		t.Error("Expected different client IDs to derive different identities")
	}
}
