package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/StorePlanHQ/StorePlan/internal/pkg/env"
)

const defaultAPIVersion = "2025-01"

// GatewayError is a failed billing-platform call. UserErrors carries the
// vendor's userErrors messages verbatim; command callers surface the first
// one to the merchant unchanged.
type GatewayError struct {
	Message    string
	UserErrors []string
}

func (e *GatewayError) Error() string {
	if len(e.UserErrors) > 0 {
		return e.UserErrors[0]
	}
	return e.Message
}

// AdminClient talks to one shop's Admin GraphQL API. Every call is a single
// bounded request; there is no internal retry loop, the surrounding request
// timeout is the backstop.
type AdminClient struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string

	// BaseURL overrides the shop admin endpoint, used by tests.
	BaseURL string

	HTTPClient *http.Client
}

// NewAdminClient creates a client for a shop using its stored access token.
func NewAdminClient(shopDomain, accessToken string) *AdminClient {
	return &AdminClient{
		ShopDomain:  strings.ToLower(strings.TrimSpace(shopDomain)),
		AccessToken: strings.TrimSpace(accessToken),
		APIVersion:  strings.TrimSpace(env.GetEnv("SHOPIFY_API_VERSION", defaultAPIVersion)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *AdminClient) endpoint() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/") + "/graphql.json"
	}
	version := c.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.ShopDomain, version)
}

// GraphQL executes one query or mutation against the shop and returns the
// raw "data" payload. Top-level GraphQL errors become a *GatewayError.
func (c *AdminClient) GraphQL(ctx context.Context, document string, variables map[string]interface{}) (json.RawMessage, error) {
	if c.ShopDomain == "" && c.BaseURL == "" {
		return nil, errors.New("shop domain is required")
	}
	if c.AccessToken == "" {
		return nil, errors.New("access token is required")
	}

	reqBody := map[string]interface{}{
		"query": document,
	}
	if len(variables) > 0 {
		reqBody["variables"] = variables
	}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.AccessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{
			Message: fmt.Sprintf("admin api request failed: status=%d body=%s", resp.StatusCode, string(body)),
		}
	}

	var out struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return nil, &GatewayError{Message: out.Errors[0].Message}
	}
	if len(out.Data) == 0 {
		return nil, &GatewayError{Message: "admin api response missing data"}
	}
	return out.Data, nil
}
