// Package method bridges local records and the Method CRM REST API.
package method

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// DefaultBaseURL targets the current Method CRM REST API. Earlier revisions
// of this integration used a company-scoped URL and a different auth scheme;
// both are configuration, not protocol.
const DefaultBaseURL = "https://rest.method.me/api/v1"

// Client is a thin HTTP client for the Method CRM tables API, authenticated
// with a static API key header.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *log.Logger
}

// NewClient creates a CRM client. A missing API key is fatal for the whole
// adapter and refuses construction.
func NewClient(baseURL, apiKey string, logger *log.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}, nil
}

func (c *Client) call(ctx context.Context, httpMethod, endpoint string, payload any) ([]byte, error) {
	url := c.baseURL + "/" + endpoint
	var body io.Reader
	if payload != nil && httpMethod != http.MethodGet {
		data, err := sonic.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "APIKey "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(log.Fields{"method": httpMethod, "url": url}).Debug("method crm api call")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithFields(log.Fields{"status": resp.StatusCode, "body": string(raw)}).Error("method crm api error")
		return nil, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// ListCustomers fetches every Customer record. The API wraps listings in a
// "value" array; a bare array is accepted for older revisions. Anything else
// is an invalid-response error.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	raw, err := c.call(ctx, http.MethodGet, "tables/Customer", nil)
	if err != nil {
		return nil, err
	}
	var wrapped struct {
		Value []Customer `json:"value"`
	}
	if err := sonic.Unmarshal(raw, &wrapped); err == nil && wrapped.Value != nil {
		return wrapped.Value, nil
	}
	var bare []Customer
	if err := sonic.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}
	return nil, &InvalidResponseError{Reason: "customer listing is not an array"}
}

// CreateActivity creates one Activity record and returns its identifier. A
// creation response without an identifier is an invalid-response error.
func (c *Client) CreateActivity(ctx context.Context, a Activity) (string, error) {
	raw, err := c.call(ctx, http.MethodPost, "tables/Activity", a)
	if err != nil {
		return "", err
	}
	var created struct {
		RecordID flexID `json:"RecordID"`
		ID       flexID `json:"Id"`
		LowerID  flexID `json:"id"`
	}
	if err := sonic.Unmarshal(raw, &created); err != nil {
		return "", &InvalidResponseError{Reason: "activity response is not an object"}
	}
	for _, candidate := range []flexID{created.RecordID, created.ID, created.LowerID} {
		if candidate != "" {
			return string(candidate), nil
		}
	}
	return "", &InvalidResponseError{Reason: "activity response missing record identifier"}
}
