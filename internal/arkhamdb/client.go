// Package arkhamdb is a small client for the public ArkhamDB API.
package arkhamdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public ArkhamDB site.
const DefaultBaseURL = "https://arkhamdb.com"

const userAgent = "arkhamproxy/1.0 (+https://github.com/arcanaland/arkhamproxy)"

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// Card is the subset of a card document used for display and image lookup.
type Card struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	TypeName     string `json:"type_name"`
	FactionName  string `json:"faction_name"`
	PackName     string `json:"pack_name"`
	Text         string `json:"text"`
	ImageSrc     string `json:"imagesrc"`
	BackImageSrc string `json:"backimagesrc"`
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Client issues single-attempt GET requests against ArkhamDB. All requests
// share one rate limiter.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL: base,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DeckURL returns the public page for a shared deck.
func (c *Client) DeckURL(deckID string) string {
	return c.baseURL + "/deck/view/" + url.PathEscape(deckID)
}

// ImageURL joins an imagesrc path onto the base URL.
func (c *Client) ImageURL(src string) string {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	if !strings.HasPrefix(src, "/") {
		src = "/" + src
	}
	return c.baseURL + src
}

// DeckJSON returns the raw deck document for deckID.
func (c *Client) DeckJSON(ctx context.Context, deckID string) ([]byte, error) {
	return c.Download(ctx, c.baseURL+"/api/public/deck/"+url.PathEscape(deckID)+".json")
}

// Card fetches the card document for cardID.
func (c *Client) Card(ctx context.Context, cardID string) (*Card, error) {
	body, err := c.Download(ctx, c.baseURL+"/api/public/card/"+url.PathEscape(cardID)+".json")
	if err != nil {
		return nil, err
	}
	var card Card
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("decode card %s: %w", cardID, err)
	}
	return &card, nil
}

// Download returns the body of a GET to rawURL.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("GET %s: %w: %s", rawURL, ErrStatus, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", rawURL, err)
	}
	return body, nil
}
