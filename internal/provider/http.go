package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/ioutil"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/urlutil"
)

// HTTPClient talks to the hosted identity provider's REST surface.
// It is stateless and shared; per-attempt state (ambient tokens, event
// polling) lives in AttemptClient.
type HTTPClient struct {
	baseURL string
	anonKey string
	httpc   *http.Client
}

// NewHTTPClient creates a provider client for the given project URL and
// publishable key.
func NewHTTPClient(baseURL, anonKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		anonKey: anonKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// tokenResponse is the provider's token endpoint payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

type providerError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

func (e providerError) text() string {
	switch {
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Message != "":
		return e.Message
	default:
		return e.Error
	}
}

// ExchangeCode exchanges an authorization code for a session. Single
// network round-trip against the token endpoint.
func (c *HTTPClient) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	body := map[string]string{"auth_code": code}
	resp, err := c.postToken(ctx, "pkce", body)
	if err != nil {
		return nil, err
	}
	return c.sessionFromTokenResponse(resp), nil
}

// SessionFromTokens establishes a session directly from a token pair. The
// access token is validated against the user endpoint; if the provider
// rejects it the refresh token is used to mint a fresh pair.
func (c *HTTPClient) SessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	user, err := c.fetchUser(ctx, accessToken)
	if err == nil {
		sess := &Session{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			User:         *user,
		}
		c.fillFromClaims(sess)
		return sess, nil
	}

	log.LogDebugWithFields("provider", "Access token rejected, refreshing", map[string]any{
		"error": err.Error(),
	})

	resp, refreshErr := c.postToken(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
	if refreshErr != nil {
		return nil, refreshErr
	}
	return c.sessionFromTokenResponse(resp), nil
}

// CurrentSession on the shared client has no ambient context to consult.
// Use AttemptClient, which binds the tokens presented with the request.
func (c *HTTPClient) CurrentSession(ctx context.Context) (*Session, error) {
	return nil, nil
}

// OnAuthEvent on the shared client has no attempt to watch; the
// subscription never fires. Use AttemptClient.
func (c *HTTPClient) OnAuthEvent(fn func(Event)) Unsubscribe {
	return func() {}
}

func (c *HTTPClient) postToken(ctx context.Context, grantType string, body map[string]string) (*tokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling token request: %w", err)
	}

	url := urlutil.MustJoinPath(c.baseURL, "auth", "v1", "token") + "?grant_type=" + grantType
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed: %s", readProviderError(resp))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access token")
	}
	return &tr, nil
}

func (c *HTTPClient) fetchUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlutil.MustJoinPath(c.baseURL, "auth", "v1", "user"), nil)
	if err != nil {
		return nil, fmt.Errorf("building user request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user request failed: %s", readProviderError(resp))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding user response: %w", err)
	}
	return &user, nil
}

func (c *HTTPClient) sessionFromTokenResponse(tr *tokenResponse) *Session {
	sess := &Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		User:         tr.User,
	}
	if tr.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	c.fillFromClaims(sess)
	return sess
}

// fillFromClaims recovers the user identity from the access token claims
// when the provider response omitted the user object.
func (c *HTTPClient) fillFromClaims(sess *Session) {
	if sess.User.ID != "" {
		return
	}
	user, err := userFromAccessToken(sess.AccessToken)
	if err != nil {
		log.LogDebugWithFields("provider", "No user object and no readable claims", map[string]any{
			"error": err.Error(),
		})
		return
	}
	sess.User = *user
}

func readProviderError(resp *http.Response) string {
	body := ioutil.ReadLimited(resp.Body, 4096)
	var pe providerError
	if err := json.Unmarshal([]byte(body), &pe); err == nil && pe.text() != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, pe.text())
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
