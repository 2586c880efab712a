// Package bigdatacloud wraps the BigDataCloud reverse-geocoding endpoint.
package bigdatacloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const DefaultBaseURL = "https://api.bigdatacloud.net"

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

// Place is the subset of the reverse-geocode payload the resolver consumes.
type Place struct {
	City                 string `json:"city"`
	Locality             string `json:"locality"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	CountryName          string `json:"countryName"`
	CountryCode          string `json:"countryCode"`
}

func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*Place, error) {
	if c == nil {
		return nil, errors.New("bigdatacloud: client is nil")
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("localityLanguage", "en")

	endpoint := strings.TrimRight(c.baseURL, "/") + "/data/reverse-geocode-client"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = params.Encode()
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
		return nil, fmt.Errorf("bigdatacloud: http status %d", resp.StatusCode)
	}
	var place Place
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		return nil, err
	}
	return &place, nil
}
