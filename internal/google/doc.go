// Package google loads OAuth2 credentials for the Google Tasks API.
//
// The binary does not run an interactive consent flow. It expects two files:
// the OAuth client secrets (credentials.json) and a saved user token
// (token.json). Refreshed tokens are written back to the token file.
//
//	cfg := google.DefaultCredentialsConfig()
//	httpClient, err := google.NewHTTPClient(ctx, cfg)
package google
