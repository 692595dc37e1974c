// Package uploader pushes reconciled bills and interval readings to the
// upstream energy-data platform over its REST API.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	billing "meterdata-cloud/internal/billing/domain"
	"meterdata-cloud/internal/observability/metrics"
	readings "meterdata-cloud/internal/readings/domain"
)

// Client is a minimal REST client for the upstream platform.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient constructs a client.
func NewClient(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("uploader: empty base url")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// UploadBills replaces the account's billing history upstream with the given
// reconciled sequence.
func (c *Client) UploadBills(ctx context.Context, utility, accountNumber, meterNumber string, bills []billing.Datum) error {
	if utility == "" || accountNumber == "" {
		return errors.New("uploader: empty utility or account number")
	}
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncUpload("bills", result)
	}()

	body := map[string]any{
		"utility":       utility,
		"accountNumber": accountNumber,
		"meterNumber":   meterNumber,
		"bills":         bills,
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v1/bills", body, nil); err != nil {
		result = metrics.ResultError
		return fmt.Errorf("uploader: bills %s/%s: %w", utility, accountNumber, err)
	}
	return nil
}

// UploadReadings appends a batch of interval readings upstream. Batches are
// chunked so one oversized feed does not blow the request limit.
func (c *Client) UploadReadings(ctx context.Context, batch []readings.Reading) error {
	if len(batch) == 0 {
		return nil
	}
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncUpload("readings", result)
	}()

	const chunkSize = 1000
	for offset := 0; offset < len(batch); offset += chunkSize {
		end := offset + chunkSize
		if end > len(batch) {
			end = len(batch)
		}
		points := make([]readingPayload, 0, end-offset)
		for _, reading := range batch[offset:end] {
			points = append(points, readingPayload{
				MeterNumber: reading.MeterNumber,
				Kind:        string(reading.Kind),
				TS:          reading.TS.UnixMilli(),
				Value:       reading.Value,
				Unit:        reading.Unit,
			})
		}
		body := map[string]any{"points": points}
		if err := c.doJSON(ctx, http.MethodPost, "/api/v1/readings", body, nil); err != nil {
			result = metrics.ResultError
			return fmt.Errorf("uploader: readings batch at %d: %w", offset, err)
		}
	}
	return nil
}

type readingPayload struct {
	MeterNumber string  `json:"meterNumber"`
	Kind        string  `json:"kind"`
	TS          int64   `json:"ts"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit,omitempty"`
}

// ErrNotFound reports an upstream 404.
var ErrNotFound = errors.New("uploader: not found")

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
