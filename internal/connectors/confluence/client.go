package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds each REST call.
const DefaultTimeout = 60 * time.Second

// pageExpand is the expansion used when fetching a single page.
const pageExpand = "body.storage,version,ancestors,metadata.labels"

// Client wraps the Confluence REST API with basic authentication and rate limiting.
type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
	limiter *RateLimiter
}

// NewClient creates a client for the Confluence instance at baseURL.
func NewClient(baseURL, email, token string, limiter *RateLimiter) *Client {
	if limiter == nil {
		limiter = NewRateLimiter(DefaultRateLimit)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		token:   token,
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: limiter,
	}
}

// space is the subset of /rest/api/space/{key} used here.
type space struct {
	Expandable struct {
		Homepage string `json:"homepage"`
	} `json:"_expandable"`
}

// content is the subset of /rest/api/content/{id} used here.
type content struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Version struct {
		Number int    `json:"number"`
		When   string `json:"when"`
	} `json:"version"`
	Ancestors []struct {
		Title string `json:"title"`
	} `json:"ancestors"`
	Metadata struct {
		Labels struct {
			Results []struct {
				Name string `json:"name"`
			} `json:"results"`
		} `json:"labels"`
	} `json:"metadata"`
}

// childPages is the response of /rest/api/content/{id}/child/page.
type childPages struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

// HomepageID returns the page ID of the space's homepage.
func (c *Client) HomepageID(ctx context.Context, spaceKey string) (string, error) {
	var s space
	if err := c.get(ctx, "/rest/api/space/"+url.PathEscape(spaceKey), nil, &s); err != nil {
		return "", err
	}
	// The reference looks like "/rest/api/content/12345".
	ref := strings.TrimRight(s.Expandable.Homepage, "/")
	if ref == "" {
		return "", fmt.Errorf("%w: %s", ErrNoHomepage, spaceKey)
	}
	return ref[strings.LastIndex(ref, "/")+1:], nil
}

// Page fetches one page with its storage body, version and ancestors.
func (c *Client) Page(ctx context.Context, id string) (*content, error) {
	var p content
	q := url.Values{"expand": {pageExpand}}
	if err := c.get(ctx, "/rest/api/content/"+url.PathEscape(id), q, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = id
	}
	return &p, nil
}

// ChildPageIDs lists the direct child pages of parent, up to limit.
func (c *Client) ChildPageIDs(ctx context.Context, parent string, limit int) ([]string, error) {
	var children childPages
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if err := c.get(ctx, "/rest/api/content/"+url.PathEscape(parent)+"/child/page", q, &children); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(children.Results))
	for _, r := range children.Results {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// PageURL is the browser link for a page.
func (c *Client) PageURL(id string) string {
	return c.baseURL + "/pages/viewpage.action?pageId=" + url.QueryEscape(id)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.RecordRateLimitError(retryAfter(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), URL: u}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
