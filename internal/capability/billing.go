package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/ioutil"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/urlutil"
)

// BillingClient asks the billing service whether a user has an active
// subscription. The computation behind the answer is not ours; we only
// consume the boolean.
type BillingClient struct {
	baseURL string
	httpc   *http.Client
}

// NewBillingClient creates a client for the billing capability endpoint.
func NewBillingClient(baseURL string) *BillingClient {
	return &BillingClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

type subscriptionStatus struct {
	Active bool `json:"active"`
}

// HasActiveSubscription queries subscription state for a user ID.
func (c *BillingClient) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	base, err := urlutil.JoinPath(c.baseURL, "v1", "subscriptions", "status")
	if err != nil {
		return false, fmt.Errorf("building subscription url: %w", err)
	}
	reqURL := base + "?user_id=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("building subscription query: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return false, fmt.Errorf("subscription query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("subscription query failed: status %d: %s",
			resp.StatusCode, ioutil.ReadLimited(resp.Body, 1024))
	}

	var status subscriptionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, fmt.Errorf("decoding subscription response: %w", err)
	}
	return status.Active, nil
}
