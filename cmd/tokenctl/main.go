// tokenctl fetches an access token from the command line using the
// client-credentials or user-password flow and prints it. It is handy for
// smoke-testing an authorization server configuration before wiring it into
// an application.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/naotama2002/oauth2-relying-go/client"
	"github.com/naotama2002/oauth2-relying-go/internal/logging"
)

func main() {
	flow := flag.String("flow", "client-credentials", "auth flow (client-credentials, user-password)")
	clientID := flag.String("client-id", "", "OAuth2 client ID")
	clientSecret := flag.String("client-secret", "", "OAuth2 client secret")
	tokenEndpoint := flag.String("token-endpoint", "", "token endpoint URL")
	clientAuth := flag.String("client-auth", "header", "client authentication mode (header, data)")
	scope := flag.String("scope", "", "space-separated scopes")
	username := flag.String("username", "", "resource owner username (user-password flow)")
	password := flag.String("password", "", "resource owner password (user-password flow)")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *clientID == "" || *clientSecret == "" || *tokenEndpoint == "" {
		fmt.Fprintln(os.Stderr, "Error: -client-id, -client-secret and -token-endpoint are required")
		flag.Usage()
		os.Exit(1)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Config{Level: level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg := client.Config{
		AuthFlow:      client.AuthFlow(*flow),
		ClientID:      *clientID,
		ClientSecret:  *clientSecret,
		ClientAuth:    client.ClientAuth(*clientAuth),
		TokenEndpoint: *tokenEndpoint,
		Scope:         *scope,
		Username:      *username,
		Password:      *password,
	}

	cl, err := client.New(cfg, client.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := cl.Token(ctx, client.RequestInfo{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if res.Redirected() {
		// Only possible with the server-side flow, which this tool does not
		// drive; point the user at the right tool instead of a dead URL.
		fmt.Fprintln(os.Stderr, "Error: the server-side flow needs a browser; use the relying-demo application")
		os.Exit(1)
	}

	out, err := json.MarshalIndent(map[string]string{"access_token": res.AccessToken}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
