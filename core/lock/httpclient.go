package lock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// httpClient talks to the vendor control plane over its REST API.
type httpClient struct {
	cfg   Config
	http  *http.Client
	base  string
	token string
}

// NewClient creates a control-plane client based on the configuration.
func NewClient(cfg Config) (Client, error) {
	if cfg.DeviceID == "" {
		return nil, fmt.Errorf("lock: device_id is required")
	}

	// Ensure timeout defaults if not set
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	// Create custom transport with strict timeouts
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration, // Connection setup timeout
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	return &httpClient{
		cfg:  cfg,
		base: strings.TrimSuffix(cfg.Endpoint, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
	}, nil
}

func (c *httpClient) Connect(ctx context.Context) error {
	payload := map[string]string{
		"key_id":  c.cfg.KeyID,
		"api_key": c.cfg.APIKey,
	}

	resp, err := c.do(ctx, http.MethodPost, "/v1/auth", payload)
	if err != nil {
		return &ControlPlaneError{Op: "authenticate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ControlPlaneError{Op: "authenticate", Err: statusError(resp)}
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return &ControlPlaneError{Op: "authenticate", Err: fmt.Errorf("decode response: %w", err)}
	}

	c.token = body.Token
	return nil
}

func (c *httpClient) AddCode(ctx context.Context, code, name string, begin, end time.Time) error {
	payload := map[string]any{
		"code":  code,
		"name":  name,
		"begin": begin.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
	}

	resp, err := c.do(ctx, http.MethodPost, c.devicePath("/codes"), payload)
	if err != nil {
		return &ControlPlaneError{Op: "add code", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return ErrDuplicateCode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ControlPlaneError{Op: "add code", Err: statusError(resp)}
	case resp.StatusCode >= 300:
		return fmt.Errorf("add code: %w", statusError(resp))
	}
	return nil
}

func (c *httpClient) ListCodesByOwnerTag(ctx context.Context, tag string) ([]CodeRecord, error) {
	records, err := c.listCodes(ctx)
	if err != nil {
		return nil, err
	}

	tagged := make([]CodeRecord, 0, len(records))
	for _, rec := range records {
		if strings.HasPrefix(rec.Name, tag) {
			tagged = append(tagged, rec)
		}
	}
	return tagged, nil
}

func (c *httpClient) FindCodeByValue(ctx context.Context, code string) (*CodeRecord, error) {
	// The vendor API has no lookup by code value, so we list and match.
	records, err := c.listCodes(ctx)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.Code == code {
			return &rec, nil
		}
	}
	return nil, ErrCodeNotFound
}

func (c *httpClient) DeleteCode(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.devicePath("/codes/"+id), nil)
	if err != nil {
		return &ControlPlaneError{Op: "delete code", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrCodeNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ControlPlaneError{Op: "delete code", Err: statusError(resp)}
	case resp.StatusCode >= 300:
		return fmt.Errorf("delete code: %w", statusError(resp))
	}
	return nil
}

func (c *httpClient) listCodes(ctx context.Context) ([]CodeRecord, error) {
	resp, err := c.do(ctx, http.MethodGet, c.devicePath("/codes"), nil)
	if err != nil {
		return nil, &ControlPlaneError{Op: "list codes", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &ControlPlaneError{Op: "list codes", Err: statusError(resp)}
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("list codes: %w", statusError(resp))
	}

	var body struct {
		Codes []CodeRecord `json:"codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("list codes: decode response: %w", err)
	}
	return body.Codes, nil
}

func (c *httpClient) devicePath(suffix string) string {
	return "/v1/devices/" + c.cfg.DeviceID + suffix
}

func (c *httpClient) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.http.Do(req)
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
}
