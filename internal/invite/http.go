package invite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/ioutil"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/urlutil"
)

// HTTPChecker queries the invitation capability over the provider's REST
// surface: an RPC that answers whether a valid, non-expired, non-consumed
// invitation exists. Invitation storage itself is not ours.
type HTTPChecker struct {
	baseURL string
	anonKey string
	httpc   *http.Client
}

// NewHTTPChecker creates a checker against the given project URL.
func NewHTTPChecker(baseURL, anonKey string) *HTTPChecker {
	return &HTTPChecker{
		baseURL: baseURL,
		anonKey: anonKey,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// HasValidInvitation implements Checker.
func (c *HTTPChecker) HasValidInvitation(ctx context.Context, email string) (bool, error) {
	payload, err := json.Marshal(map[string]string{"p_email": email})
	if err != nil {
		return false, fmt.Errorf("marshaling invitation query: %w", err)
	}

	url, err := urlutil.JoinPath(c.baseURL, "rest", "v1", "rpc", "has_valid_invitation")
	if err != nil {
		return false, fmt.Errorf("building invitation url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("building invitation query: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return false, fmt.Errorf("invitation query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("invitation query failed: status %d: %s",
			resp.StatusCode, ioutil.ReadLimited(resp.Body, 1024))
	}

	var valid bool
	if err := json.NewDecoder(resp.Body).Decode(&valid); err != nil {
		return false, fmt.Errorf("decoding invitation response: %w", err)
	}
	return valid, nil
}
