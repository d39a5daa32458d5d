package client

import (
	"time"
)

// ExpiryMargin is subtracted from a token's remaining lifetime when deciding
// whether it can still be used. It absorbs request latency; tokens usually
// live for an hour, so losing ten seconds is insignificant. Keep it in mind
// in tests, where lifetimes are much shorter.
const ExpiryMargin = 10 * time.Second

// Token holds one access token and its metadata as stored per identity.
// A new Token always replaces the previous record wholesale; fields are
// never merged. In particular, a refresh response that omits a refresh
// token drops the old one.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn is the lifetime in seconds as reported by the server.
	ExpiresIn int `json:"expires_in,omitempty"`

	// ExpiresAt is the absolute expiration, computed as acquisition time
	// plus ExpiresIn.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Usable reports whether the token can satisfy a request at the given time,
// applying ExpiryMargin. A token without an expiration is treated as
// expired, matching the handling of an absent record.
func (t *Token) Usable(now time.Time) bool {
	if t == nil || t.AccessToken == "" || t.ExpiresAt.IsZero() {
		return false
	}
	return t.ExpiresAt.After(now.Add(ExpiryMargin))
}
