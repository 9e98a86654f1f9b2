package gamma

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	baseURL        = "https://gamma-api.polymarket.com"
	defaultTimeout = 30 * time.Second
	paginationCap  = 500
)

// Client handles communication with the Gamma API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Gamma API client with default settings.
func NewClient() *Client {
	return NewClientWithTimeout(defaultTimeout)
}

// NewClientWithTimeout creates a new Gamma API client with a custom timeout.
func NewClientWithTimeout(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// WithBaseURL overrides the base URL, useful for pointing at a test server.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// GetWeatherEvents fetches events tagged "weather" from the Gamma API,
// paginating until the server returns a short page or the safety cap is hit.
func (c *Client) GetWeatherEvents() ([]Event, error) {
	var all []Event
	offset := 0
	const limit = 50

	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		params.Set("active", "true")
		params.Set("archived", "false")
		params.Set("closed", "false")
		params.Set("tag_slug", "weather")
		params.Set("order", "startDate")
		params.Set("ascending", "false")
		params.Set("offset", strconv.Itoa(offset))

		endpoint := fmt.Sprintf("%s/events/pagination?%s", c.baseURL, params.Encode())

		resp, err := c.httpClient.Get(endpoint)
		if err != nil {
			return nil, fmt.Errorf("gamma: fetch weather events: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("gamma: unexpected status %d", resp.StatusCode)
		}

		var page EventsPaginationResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("gamma: decode weather events: %w", err)
		}

		all = append(all, page.Data...)
		if len(page.Data) < limit {
			break
		}
		offset += limit
		if offset > paginationCap {
			break
		}
	}

	return all, nil
}

// GetMarketByConditionID fetches a single market by its condition ID.
func (c *Client) GetMarketByConditionID(conditionID string) (*Market, error) {
	endpoint := fmt.Sprintf("%s/markets/%s", c.baseURL, url.PathEscape(conditionID))

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("gamma: fetch market: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("gamma: market not found: %s", conditionID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gamma: unexpected status %d", resp.StatusCode)
	}

	var m Market
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("gamma: decode market: %w", err)
	}
	return &m, nil
}
