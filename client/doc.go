// Package client implements an OAuth2 relying client that obtains, caches,
// and refreshes access tokens on behalf of an application.
//
// Three authorization flows are supported: server-side (authorization code),
// client-credentials, and user-password. The entry point is Client.Token,
// which returns either a usable access token or a redirect instruction when
// the server-side flow needs to detour through the authorization server.
//
// # The server-side dance
//
// The authorization-code flow spans several independent HTTP requests tied
// together only by the injected Store and the OAuth2 state parameter:
//
//  1. A page asks for a token. There is no code in the request, so Token
//     parks the current URL and parameters as a Bookmark keyed by a fresh
//     state value and returns a Result whose RedirectURL points at the
//     authorization endpoint. The caller issues the HTTP redirect.
//  2. The user authenticates; the authorization server redirects the
//     browser to the configured redirect URI with code and state. The
//     handler there calls Authorized, which resolves the bookmark and sends
//     the browser back to the original page, code and state in tow.
//  3. The original page asks for a token again. This time a code is
//     present, so Token exchanges it, stores the new token under the client
//     identity, deletes the bookmark, and returns one more redirect to the
//     original URL so the authorization artifacts drop out of the address
//     bar.
//  4. The page asks once more and is served straight from the cache.
//
// Tokens and bookmarks live in a Store supplied by the caller. The in-memory
// implementation in this package suits tests and single-process servers;
// package redisstore provides a durable one.
package client
