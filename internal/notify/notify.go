// Package notify dispatches staff and operations notifications as JSON
// webhook posts. Message content and rendering live with the receiving
// service; this package only delivers.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

// StaffAssignment tells one crew member they are assigned to a confirmed trip.
type StaffAssignment struct {
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name,omitempty"`
	TripID     string `json:"trip_id"`
	WeekNumber int    `json:"week_number"`
	SeasonYear int    `json:"season_year"`
}

// OpsSummary reports a scheduled optimizer run's outcome to the ops channel.
type OpsSummary struct {
	WeekNumber     int    `json:"week_number"`
	SeasonYear     int    `json:"season_year"`
	RunID          string `json:"run_id,omitempty"`
	TripsGenerated int    `json:"trips_generated"`
	RunStatus      string `json:"run_status,omitempty"`
	RunError       string `json:"run_error,omitempty"`
}

// Notifier delivers notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	StaffAssignment(ctx context.Context, n StaffAssignment) error
	OpsSummary(ctx context.Context, s OpsSummary) error
}

// Webhook posts notifications to configured URLs.
type Webhook struct {
	StaffURL string
	OpsURL   string
	Timeout  time.Duration
	Client   *http.Client
}

func NewWebhook(staffURL, opsURL string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Webhook{
		StaffURL: staffURL,
		OpsURL:   opsURL,
		Timeout:  timeout,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (w *Webhook) StaffAssignment(ctx context.Context, n StaffAssignment) error {
	return w.post(ctx, w.StaffURL, "staff.assignment", n)
}

func (w *Webhook) OpsSummary(ctx context.Context, s OpsSummary) error {
	return w.post(ctx, w.OpsURL, "ops.summary", s)
}

func (w *Webhook) post(ctx context.Context, url, kind string, payload any) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%s: no notification endpoint configured", kind)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tourdeck-Notification", kind)
	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: w.Timeout}
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("%s: status %d: %s", kind, res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
