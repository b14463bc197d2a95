// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package hikeapi is the HTTP client for the journal's remote store. It
// satisfies the hikesync RemoteStore contract against the hikeserver API.
package hikeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pan-thu/m-hike-native-sub000/hikeserver"
	"github.com/pan-thu/m-hike-native-sub000/hikesync"
)

// Client calls the journal API with bearer-token authentication. Requests
// honor the caller's context, so the migration pipeline can cancel an
// in-flight call when its budget runs out.
type Client struct {
	BaseURL string
	Token   func(context.Context) (string, error) // returns JWT
	HTTP    *http.Client
	logger  *slog.Logger
}

// NewClient creates a journal API client.
func NewClient(baseURL string, token func(context.Context) (string, error), logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// CreateHike writes the hike to the remote store.
func (c *Client) CreateHike(ctx context.Context, hike hikesync.Hike) (hikesync.Hike, error) {
	var resp hikeserver.CreateHikeResponse
	err := c.do(ctx, http.MethodPost, c.BaseURL+"/journal/hikes",
		&hikeserver.CreateHikeRequest{Hike: hike}, &resp, http.StatusCreated)
	if err != nil {
		return hikesync.Hike{}, fmt.Errorf("failed to create hike %s: %w", hike.ID, err)
	}
	return resp.Hike, nil
}

// CreateObservation writes the observation to the remote store.
func (c *Client) CreateObservation(ctx context.Context, obs hikesync.Observation) (hikesync.Observation, error) {
	var resp hikeserver.CreateObservationResponse
	err := c.do(ctx, http.MethodPost, c.BaseURL+"/journal/observations",
		&hikeserver.CreateObservationRequest{Observation: obs}, &resp, http.StatusCreated)
	if err != nil {
		return hikesync.Observation{}, fmt.Errorf("failed to create observation %s: %w", obs.ID, err)
	}
	return resp.Observation, nil
}

// HikeExists asks the remote store whether the hike document is present.
func (c *Client) HikeExists(ctx context.Context, hikeID string) (bool, error) {
	var resp hikeserver.ExistsResponse
	endpoint := fmt.Sprintf("%s/journal/hikes/%s/exists", c.BaseURL, url.PathEscape(hikeID))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp, http.StatusOK); err != nil {
		return false, fmt.Errorf("failed to check hike %s: %w", hikeID, err)
	}
	return resp.Exists, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any, wantStatus int) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	token, err := c.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get JWT token: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var apiErr hikeserver.ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && apiErr.Code != "" {
			return fmt.Errorf("server returned status %d (%s): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
