/**
 * @description
 * This package provides a client for the PayPal Orders v2 REST API. It
 * encapsulates OAuth token acquisition, order creation, and payment capture,
 * handling request body construction and response parsing.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, net/url, strings, time: Standard Go libraries.
 */
package paypalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Base URLs selected by the PAYPAL_MODE configuration value.
const (
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"
	LiveBaseURL    = "https://api-m.paypal.com"
)

// Terminal capture conditions reported by PayPal. Capture is not idempotent-safe
// to retry blindly; callers must treat these as final for the order.
var (
	ErrOrderNotFound        = errors.New("payment order not found")
	ErrOrderAlreadyCaptured = errors.New("payment order has already been captured")
)

// Client is a client for the PayPal REST API.
type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

// NewClient creates a new PayPal API client for the given mode ("live" selects
// the production endpoint, anything else the sandbox).
func NewClient(mode, clientID, clientSecret string) *Client {
	baseURL := SandboxBaseURL
	if strings.EqualFold(strings.TrimSpace(mode), "live") {
		baseURL = LiveBaseURL
	}
	return &Client{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Amount is a currency amount as PayPal represents it on the wire.
type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"` // decimal string, e.g. "5.00"
}

// Payee addresses one purchase unit to a PayPal account.
type Payee struct {
	EmailAddress string `json:"email_address"`
}

// PurchaseUnit is one payee-addressed line item within an order. Exactly one of
// ReferenceID or CustomID carries reconciliation metadata: CustomID for
// single-unit orders, ReferenceID for multi-unit orders (PayPal reserves
// custom_id for single-purchase-unit orders).
type PurchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	CustomID    string `json:"custom_id,omitempty"`
	Amount      Amount `json:"amount"`
	Payee       *Payee `json:"payee,omitempty"`
	Description string `json:"description,omitempty"`
}

// ApplicationContext carries the checkout presentation settings and the
// return/cancel destination pair.
type ApplicationContext struct {
	BrandName          string `json:"brand_name,omitempty"`
	LandingPage        string `json:"landing_page,omitempty"`
	UserAction         string `json:"user_action,omitempty"`
	ShippingPreference string `json:"shipping_preference,omitempty"`
	ReturnURL          string `json:"return_url,omitempty"`
	CancelURL          string `json:"cancel_url,omitempty"`
}

// OrderRequest is the payload for creating a checkout order.
type OrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []PurchaseUnit     `json:"purchase_units"`
	ApplicationContext ApplicationContext `json:"application_context"`
}

// Link is one HATEOAS link in an order response.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

// CreateOrderResponse is the response from the order creation endpoint.
type CreateOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links"`
}

// ApprovalURL returns the buyer approval link, or an empty string when PayPal
// did not include one.
func (r *CreateOrderResponse) ApprovalURL() string {
	for _, link := range r.Links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}

// Capture is PayPal's record of funds actually transferred for one purchase
// unit. CustomID may surface here instead of on the unit.
type Capture struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   Amount `json:"amount"`
	CustomID string `json:"custom_id,omitempty"`
}

// Payments groups the capture attempts made against one purchase unit.
type Payments struct {
	Captures []Capture `json:"captures"`
}

// CapturedPurchaseUnit is one purchase unit as echoed back in a capture
// response, including whichever metadata carrier survived.
type CapturedPurchaseUnit struct {
	ReferenceID string    `json:"reference_id,omitempty"`
	CustomID    string    `json:"custom_id,omitempty"`
	Payments    *Payments `json:"payments,omitempty"`
}

// Payer is the processor-assigned buyer identity, when PayPal includes one.
type Payer struct {
	EmailAddress string `json:"email_address,omitempty"`
	PayerID      string `json:"payer_id,omitempty"`
}

// CaptureOrderResponse is the opaque nested structure returned by the capture
// endpoint: a top-level status, purchase units each with zero or more capture
// attempts, and an optional payer identity.
type CaptureOrderResponse struct {
	ID            string                 `json:"id"`
	Status        string                 `json:"status"`
	PurchaseUnits []CapturedPurchaseUnit `json:"purchase_units"`
	Payer         *Payer                 `json:"payer,omitempty"`
}

// ErrorResponse represents an error from the PayPal API.
type ErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

func (e *ErrorResponse) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("paypal api error: %s - %s", e.Name, e.Message)
	}
	return fmt.Sprintf("paypal api error: %s", e.Name)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// getAccessToken exchanges the client credentials for an OAuth bearer token.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("level=warn component=paypal_client op=token status=%d msg=\"authentication with paypal failed\"", resp.StatusCode)
		return "", fmt.Errorf("failed to authenticate with paypal (status %d)", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(bodyBytes, &token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("paypal token response contained no access token")
	}
	return token.AccessToken, nil
}

// CreateOrder sends a checkout order to PayPal and returns the order id and
// approval link.
func (c *Client) CreateOrder(ctx context.Context, order *OrderRequest) (*CreateOrderResponse, error) {
	var created CreateOrderResponse
	if err := c.doAuthorized(ctx, "POST", "/v2/checkout/orders", order, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CaptureOrder captures an approved order. Terminal processor conditions map to
// ErrOrderNotFound and ErrOrderAlreadyCaptured.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*CaptureOrderResponse, error) {
	var captured CaptureOrderResponse
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.doAuthorized(ctx, "POST", path, struct{}{}, &captured); err != nil {
		return nil, err
	}
	return &captured, nil
}

// doAuthorized acquires a token, executes one JSON request, and decodes the
// response into out.
func (c *Client) doAuthorized(ctx context.Context, method, path string, payload, out interface{}) error {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil || errResp.Name == "" {
			log.Printf("level=warn component=paypal_client op=%s path=%s status=%d msg=\"non-2xx response (unparsable error body)\"", method, path, resp.StatusCode)
			return fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=paypal_client op=%s path=%s status=%d name=%q message=%q", method, path, resp.StatusCode, errResp.Name, errResp.Message)
		switch errResp.Name {
		case "RESOURCE_NOT_FOUND":
			return fmt.Errorf("%w: %s", ErrOrderNotFound, errResp.Message)
		case "ORDER_ALREADY_CAPTURED":
			return fmt.Errorf("%w: %s", ErrOrderAlreadyCaptured, errResp.Message)
		}
		if hasIssue(&errResp, "ORDER_ALREADY_CAPTURED") {
			return fmt.Errorf("%w: %s", ErrOrderAlreadyCaptured, errResp.Message)
		}
		return &errResp
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode success response: %w", err)
	}
	return nil
}

func hasIssue(resp *ErrorResponse, issue string) bool {
	for _, d := range resp.Details {
		if d.Issue == issue {
			return true
		}
	}
	return false
}
