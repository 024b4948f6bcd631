package woo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// FetchError wraps any failure to pull a page from the order feed:
// transport errors, timeouts, and non-2xx responses alike.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("order feed returned status %d", e.Status)
	}
	return "order feed fetch failed: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Order is one normalized record from the feed, ready for the store.
type Order struct {
	ID           int64  `json:"id"`
	Phone        string `json:"phone"`
	CustomerName string `json:"customerName"`
	OrderNumber  string `json:"orderNumber"`
	Date         string `json:"date"`
}

type rawOrder struct {
	ID      int64  `json:"id"`
	Number  string `json:"number"`
	Date    string `json:"date_created"`
	Billing struct {
		Phone     string `json:"phone"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"billing"`
}

// Client reads the WooCommerce REST order feed.
type Client struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	HTTP           *http.Client
}

// FetchOrders pulls one page of orders. sinceID > 0 asks the feed for records
// after that id only. An empty page is the pagination terminus: it returns an
// empty slice and no error, and callers must stop advancing pages.
func (c *Client) FetchOrders(ctx context.Context, page, perPage int, sinceID int64) ([]Order, error) {
	params := url.Values{}
	params.Set("consumer_key", c.ConsumerKey)
	params.Set("consumer_secret", c.ConsumerSecret)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	if sinceID > 0 {
		params.Set("after_id", strconv.FormatInt(sinceID, 10))
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/wp-json/wc/v3/orders?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var raw []rawOrder
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &FetchError{Err: err}
	}

	out := make([]Order, 0, len(raw))
	for _, r := range raw {
		out = append(out, Order{
			ID:           r.ID,
			Phone:        NormalizePhone(r.Billing.Phone),
			CustomerName: displayName(r.Billing.FirstName, r.Billing.LastName),
			OrderNumber:  r.Number,
			Date:         r.Date,
		})
	}
	return out, nil
}
