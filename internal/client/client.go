// Package client talks to the claim service and runs the client side of the
// claim protocol: device check, submission, then recording the device claim.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 15 * time.Second

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the default client. Its Timeout is left untouched.
	HTTPClient *http.Client
	Now        func() time.Time
}

// Grant is an accepted claim as returned by the service.
type Grant struct {
	Address        string    `json:"address"`
	ClaimedOption  string    `json:"claimedOption"`
	ClaimedAt      time.Time `json:"claimedAt"`
	Linkage        string    `json:"linkage"`
	ExtractionCode string    `json:"extractionCode"`
	QRCode         string    `json:"qrCode,omitempty"`
}

type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type claimRequest struct {
	OptionID    string `json:"optionId"`
	Timestamp   string `json:"timestamp"`
	CallerAgent string `json:"callerAgent"`
}

type claimResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Data    *Grant `json:"data"`
}

type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	now       func() time.Time
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "claimctl"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      cfg.HTTPClient,
		userAgent: cfg.UserAgent,
		now:       cfg.Now,
	}
}

// Submit asks the service to grant optionID to this caller. Every error
// returned is a *Failure.
func (c *Client) Submit(ctx context.Context, optionID string) (*Grant, error) {
	body, err := json.Marshal(claimRequest{
		OptionID:    optionID,
		Timestamp:   c.now().UTC().Format(time.RFC3339),
		CallerAgent: c.userAgent,
	})
	if err != nil {
		return nil, newFailure(KindUnknown, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/claims", bytes.NewReader(body))
	if err != nil {
		return nil, newFailure(KindUnknown, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportFailure(err)
	}
	defer resp.Body.Close()

	var out claimResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	switch {
	case resp.StatusCode == http.StatusOK:
		if decodeErr != nil {
			return nil, newFailure(KindUnknown, resp.StatusCode, decodeErr)
		}
		if !out.Success || out.Data == nil {
			return nil, newFailure(KindUnknown, resp.StatusCode, fmt.Errorf("unexpected response: %q", out.Message))
		}
		return out.Data, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, newFailure(KindIPRestricted, resp.StatusCode, errors.New(out.Message))
	case resp.StatusCode == http.StatusBadRequest:
		f := newFailure(KindValidation, resp.StatusCode, nil)
		if out.Message != "" {
			f.Message = out.Message
		}
		return nil, f
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, newFailure(KindServer, resp.StatusCode, nil)
	default:
		return nil, newFailure(KindUnknown, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

// Catalog lists the options the service offers.
func (c *Client) Catalog(ctx context.Context) ([]Option, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/catalog", nil)
	if err != nil {
		return nil, newFailure(KindUnknown, 0, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, newFailure(KindServer, resp.StatusCode, nil)
		}
		return nil, newFailure(KindUnknown, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var out struct {
		Data []Option `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, newFailure(KindUnknown, resp.StatusCode, err)
	}
	return out.Data, nil
}

func transportFailure(err error) *Failure {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return newFailure(KindTimeout, 0, err)
	}
	return newFailure(KindNetwork, 0, err)
}
