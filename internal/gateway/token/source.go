// Package token caches short-lived OAuth2 client-credentials access
// tokens for adapters whose providers authenticate outbound calls with
// bearer tokens.
package token

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"paygate/internal/shared/biztime"
	apperrors "paygate/internal/shared/errors"
	"paygate/internal/shared/logger"
)

// expiryLeeway refreshes tokens slightly before their actual expiry so
// an outbound call never rides a token that dies in flight.
const expiryLeeway = 30 * time.Second

// Source is a mutex-guarded token cache. The lock is held across the
// refresh, which gives single-flight behavior: one concurrent caller
// refreshes, the rest wait and reuse its result.
type Source struct {
	conf   clientcredentials.Config
	client *http.Client
	logger logger.Interface

	mu  sync.Mutex
	tok *oauth2.Token
}

func NewSource(tokenURL, clientID, clientSecret string, scopes []string, timeout time.Duration, log logger.Interface) *Source {
	return &Source{
		conf: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
		client: &http.Client{Timeout: timeout},
		logger: log,
	}
}

// Token returns a valid access token, refreshing it when stale. The
// refresh path retries once before surfacing an error; no other
// contract path retries internally.
func (s *Source) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.valid() {
		return s.tok.AccessToken, nil
	}

	tok, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warnw("token refresh failed, retrying once", "error", err)
		tok, err = s.fetch(ctx)
	}
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && retrieveErr.Response.StatusCode < 500 {
			return "", apperrors.NewProviderRejectedError(
				"token endpoint rejected credentials",
				retrieveErr.ErrorCode,
				string(retrieveErr.Body),
			)
		}
		return "", apperrors.NewNetworkError("failed to obtain access token", err)
	}

	s.tok = tok
	return tok.AccessToken, nil
}

// Invalidate drops the cached token, forcing a refresh on next use.
// Adapters call it after a 401 from the provider.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = nil
}

func (s *Source) valid() bool {
	if s.tok == nil || s.tok.AccessToken == "" {
		return false
	}
	if s.tok.Expiry.IsZero() {
		return true
	}
	return biztime.NowUTC().Before(s.tok.Expiry.Add(-expiryLeeway))
}

func (s *Source) fetch(ctx context.Context) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	return s.conf.Token(ctx)
}
