package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the Nayax Lynx API host.
	DefaultBaseURL = "https://lynx.nayax.com"

	machinesEndpoint  = "/v1/machines"
	lastSalesEndpoint = "/operational/v1/machines/%s/lastSales"
)

// Client talks to the Nayax Lynx API for one actor (vendor account).
type Client struct {
	baseURL string
	actorID string
	token   string
	httpc   *http.Client
	ownHTTP bool
	log     *zap.Logger
}

// NewClient creates a client. A nil httpc means the client owns its own
// transport and will release it on Close.
func NewClient(baseURL, actorID, token string, httpc *http.Client, log *zap.Logger) *Client {
	own := false
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
		own = true
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		actorID: actorID,
		token:   token,
		httpc:   httpc,
		ownHTTP: own,
		log:     log,
	}
}

// Close releases the transport if this client owns it.
func (c *Client) Close() {
	if c.ownHTTP {
		c.httpc.CloseIdleConnections()
	}
}

func (c *Client) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	return body, nil
}

// decodeList accepts the shapes the vendor is known to return: a bare JSON
// list, or an object wrapping the list under one of the given field names
// (tried in order). Any other shape yields nil and false.
func decodeList(raw json.RawMessage, fields ...string) ([]map[string]any, bool) {
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	for _, field := range fields {
		inner, ok := obj[field]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &list); err == nil {
			return list, true
		}
	}
	return nil, false
}

// GetMachines returns the machine roster for the actor.
func (c *Client) GetMachines(ctx context.Context) ([]map[string]any, error) {
	c.log.Debug("fetching machines list")
	raw, err := c.get(ctx, machinesEndpoint)
	if err != nil {
		return nil, err
	}

	list, ok := decodeList(raw, "machines", "data")
	if !ok {
		c.log.Warn("unexpected machines response format")
		return []map[string]any{}, nil
	}
	return list, nil
}

// GetLastSales returns the recent sales window for one machine, newest
// first per the vendor contract (not enforced here).
func (c *Client) GetLastSales(ctx context.Context, machineID string) ([]map[string]any, error) {
	c.log.Debug("fetching last sales", zap.String("machine_id", machineID))
	raw, err := c.get(ctx, fmt.Sprintf(lastSalesEndpoint, machineID))
	if err != nil {
		return nil, err
	}

	list, ok := decodeList(raw, "transactions", "sales", "data")
	if !ok {
		c.log.Warn("unexpected sales response format", zap.String("machine_id", machineID))
		return []map[string]any{}, nil
	}
	return list, nil
}

// ValidateConnection checks credentials by fetching the roster.
func (c *Client) ValidateConnection(ctx context.Context) (bool, error) {
	if _, err := c.GetMachines(ctx); err != nil {
		return false, err
	}
	return true, nil
}
