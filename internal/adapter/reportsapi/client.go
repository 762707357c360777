// Package reportsapi is the HTTP client for the collaborator-owned civic
// reporting backend. It implements livefeed.Fetcher and exposes the
// presentational endpoints (overview counts, social posts) consumed by the
// dashboard handlers.
package reportsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Monocled004/HarborNet/internal/domain"
	"github.com/Monocled004/HarborNet/internal/livefeed"
)

// Client talks to the reporting backend over JSON/HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a reports API client. baseURL is the backend root, e.g.
// "http://127.0.0.1:5000".
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchReports retrieves raw report records, optionally narrowed by
// verification state and uploader. Implements livefeed.Fetcher.
func (c *Client) FetchReports(ctx context.Context, q livefeed.Query) ([]domain.RawRecord, error) {
	params := url.Values{}
	if q.Verified != nil {
		params.Set("verified", strconv.FormatBool(*q.Verified))
	}
	if q.UploaderID != 0 {
		params.Set("uploader_id", strconv.Itoa(q.UploaderID))
	}

	u := c.baseURL + "/api/reports"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var records []domain.RawRecord
	if err := c.getJSON(ctx, u, &records); err != nil {
		return nil, fmt.Errorf("fetch reports: %w", err)
	}
	return records, nil
}

// Overview holds the backend's aggregate counts for the dashboard panel.
type Overview struct {
	Flooding      int `json:"flooding"`
	Tsunami       int `json:"tsunami"`
	HighWaves     int `json:"highwaves"`
	CoastalDamage int `json:"coastaldamage"`
	Other         int `json:"other"`
	Verified      int `json:"verified"`
	Unverified    int `json:"unverified"`
}

// FetchOverview retrieves verified/unverified and per-category totals.
func (c *Client) FetchOverview(ctx context.Context) (Overview, error) {
	var overview Overview
	if err := c.getJSON(ctx, c.baseURL+"/api/overview", &overview); err != nil {
		return Overview{}, fmt.Errorf("fetch overview: %w", err)
	}
	return overview, nil
}

// SocialPost is one ingested social media record, used by the highlight and
// monitor views.
type SocialPost struct {
	ID        int    `json:"id"`
	Platform  string `json:"platform"`
	Content   string `json:"content"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

// FetchSocialPosts retrieves the most recent ingested social media posts.
func (c *Client) FetchSocialPosts(ctx context.Context) ([]SocialPost, error) {
	var posts []SocialPost
	if err := c.getJSON(ctx, c.baseURL+"/api/socialmedia_posts", &posts); err != nil {
		return nil, fmt.Errorf("fetch social posts: %w", err)
	}
	return posts, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
