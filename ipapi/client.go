// Package ipapi wraps the ip-api.com geolocation endpoint. The API reports
// its own failures in-band (status != "success"), which callers receive as a
// typed StatusError rather than a transport error.
package ipapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultBaseURL = "http://ip-api.com"

type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		userAgent:  "envscan/0.1",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Geolocation struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Zip         string  `json:"zip"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
	Query       string  `json:"query"`
}

// StatusError is an in-band lookup failure reported by the API.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e == nil || e.Message == "" {
		return "ipapi: lookup failed"
	}
	return "ipapi: " + e.Message
}

func (c *Client) Lookup(ctx context.Context, ip string) (*Geolocation, error) {
	if c == nil {
		return nil, errors.New("ipapi: client is nil")
	}
	if strings.TrimSpace(ip) == "" {
		return nil, errors.New("ipapi: ip is required")
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/json/" + url.PathEscape(ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if strings.TrimSpace(c.userAgent) != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipapi: http status %d", resp.StatusCode)
	}
	var out Geolocation
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, &StatusError{Status: out.Status, Message: out.Message}
	}
	return &out, nil
}
