// Package optimizer wraps the remote trip optimization engine. The engine
// is an opaque HTTP service; this client forwards requests and hands the
// raw response back so API handlers can proxy it untouched.
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Client struct {
	URL        string
	HTTPClient *http.Client
}

// New builds a client. Deadlines come from the caller's context: the
// interactive dispatch path runs without one because the optimizer may
// legitimately take minutes.
func New(url string) *Client {
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{},
	}
}

// Request is the payload forwarded to the optimization engine.
type Request struct {
	SeasonYear  int    `json:"season_year"`
	WeekNumber  int    `json:"week_number"`
	TriggeredBy string `json:"triggered_by"`
}

// Result carries the raw upstream response for proxying plus the parsed
// fields the coordinators care about.
type Result struct {
	StatusCode     int
	Body           []byte
	TripsGenerated int
	Status         string
}

// OK reports whether the upstream answered with a success status.
func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Optimize forwards a run request. A transport-level failure returns an
// error; a non-success upstream status is returned in Result for the
// caller to classify.
func (c *Client) Optimize(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(c.URL) == "" {
		return nil, fmt.Errorf("optimizer url not configured")
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	res, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("optimizer request: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("optimizer response: %w", err)
	}
	result := &Result{StatusCode: res.StatusCode, Body: body}
	var parsed struct {
		TripsGenerated int    `json:"trips_generated"`
		Status         string `json:"status"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		result.TripsGenerated = parsed.TripsGenerated
		result.Status = parsed.Status
	}
	return result, nil
}
