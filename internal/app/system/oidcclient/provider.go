// internal/app/system/oidcclient/provider.go
//
// Package oidcclient talks to the university's OpenID Connect provider:
// endpoint discovery, the PKCE-protected authorization redirect, and the
// code-for-token exchange.
package oidcclient

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

var (
	// ErrDiscovery means the provider's openid-configuration document
	// could not be fetched or parsed.
	ErrDiscovery = errors.New("oidc: discovery failed")

	// ErrExchange means the code-for-token exchange failed or the token
	// response carried no usable ID token.
	ErrExchange = errors.New("oidc: token exchange failed")
)

// Discovery is the subset of the provider's openid-configuration
// document this client uses.
type Discovery struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
}

// Provider is a configured OIDC client. Discovery runs once on first
// use and is cached for the life of the process.
type Provider struct {
	issuerURL    string
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client

	mu   sync.Mutex
	disc *Discovery
}

// New creates a Provider. redirectURL is the absolute callback URL
// registered with the provider.
func New(issuerURL, clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		issuerURL:    strings.TrimSuffix(issuerURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// IsConfigured returns true if the provider has credentials.
func (p *Provider) IsConfigured() bool {
	return p.issuerURL != "" && p.clientID != ""
}

// Challenge derives the S256 PKCE code challenge for a verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// AuthCodeURL builds the provider authorization URL for one login
// attempt. The state carries the login flow session ID; the verifier
// stays server-side and only its S256 challenge goes on the URL. The
// provider posts the result back (response_mode=form_post) so the code
// never lands in a URL that gets logged.
func (p *Provider) AuthCodeURL(ctx context.Context, state, codeVerifier string) (string, error) {
	cfg, err := p.config(ctx)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", Challenge(codeVerifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("response_mode", "form_post"),
	), nil
}

// Exchange redeems an authorization code, proving possession of the
// code verifier, and returns the ID token's claims decoded but NOT
// verified. The claims arrive over the provider's TLS token endpoint in
// direct response to our authenticated request, which is what makes
// them trustworthy; callers still validate their shape field by field.
func (p *Provider) Exchange(ctx context.Context, code, codeVerifier string) (map[string]any, error) {
	cfg, err := p.config(ctx)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := cfg.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	rawID, _ := token.Extra("id_token").(string)
	if rawID == "" {
		return nil, fmt.Errorf("%w: token response has no id_token", ErrExchange)
	}

	claims, err := decodeIDToken(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	return claims, nil
}

func (p *Provider) config(ctx context.Context) (*oauth2.Config, error) {
	disc, err := p.discover(ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  p.redirectURL,
		Scopes:       []string{"openid", "email", "profile", "offline_access", "User.Read"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  disc.AuthorizationEndpoint,
			TokenURL: disc.TokenEndpoint,
		},
	}, nil
}

func (p *Provider) discover(ctx context.Context) (*Discovery, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disc != nil {
		return p.disc, nil
	}

	url := p.issuerURL + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrDiscovery, resp.StatusCode, url)
	}

	var disc Discovery
	if err := json.NewDecoder(resp.Body).Decode(&disc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	if disc.AuthorizationEndpoint == "" || disc.TokenEndpoint == "" {
		return nil, fmt.Errorf("%w: configuration document missing endpoints", ErrDiscovery)
	}

	p.disc = &disc
	return p.disc, nil
}

// decodeIDToken splits a compact JWS and JSON-decodes the payload
// without signature verification.
func decodeIDToken(raw string) (map[string]any, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, errors.New("id_token is not a compact JWS")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode id_token payload: %w", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("parse id_token payload: %w", err)
	}
	return claims, nil
}
