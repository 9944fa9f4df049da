// Package dexcom implements the Share API client: publisher login and
// latest-glucose-values fetch. The server owns session validity; expiry
// only ever surfaces as a failed fetch.
package dexcom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/t1000cgm/companion/internal/domain"
	apperrors "github.com/t1000cgm/companion/internal/errors"
)

const (
	baseURLUS  = "https://share2.dexcom.com/ShareWebServices/Services"
	baseURLOUS = "https://shareous1.dexcom.com/ShareWebServices/Services"

	loginPath    = "/General/LoginPublisherAccountByName"
	readingsPath = "/Publisher/ReadPublisherLatestGlucoseValues"

	// Fixed publisher application id; the service authorizes by it.
	applicationID = "d89443d2-327c-4a6f-89e5-496bbb0317db"

	// The service rejects unknown clients, so the identification header
	// must be reproduced exactly.
	userAgent = "Dexcom Share/3.0.2.11 CFNetwork/711.2.23 Darwin/14.0.0"

	// 24 readings at the 5-minute cadence cover the 120-minute chart.
	lookbackMinutes = 1440
	maxReadings     = 24

	requestTimeout = 30 * time.Second
)

// CredentialsSource supplies the current account settings. The client
// reads them per request so a settings replacement takes effect on the
// next login without rebuilding the client.
type CredentialsSource interface {
	Current() domain.Settings
}

// Client is the Share API session client.
type Client struct {
	creds      CredentialsSource
	baseURL    string // overrides region selection when set (tests)
	httpClient *http.Client
}

// NewClient builds a Share client over the given credentials source.
func NewClient(creds CredentialsSource) *Client {
	return &Client{
		creds: creds,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// NewClientWithBaseURL builds a client pinned to a fixed base URL.
func NewClientWithBaseURL(creds CredentialsSource, baseURL string) *Client {
	c := NewClient(creds)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) endpoint(path string) string {
	if c.baseURL != "" {
		return c.baseURL + path
	}
	if c.creds.Current().Server == domain.ServerOUS {
		return baseURLOUS + path
	}
	return baseURLUS + path
}

type loginRequest struct {
	AccountName   string `json:"accountName"`
	Password      string `json:"password"`
	ApplicationID string `json:"applicationId"`
}

// Login authenticates the publisher account and returns the session
// token. The entire response body is the token, possibly wrapped in
// quotes when the server answers with a JSON string.
func (c *Client) Login(ctx context.Context) (string, error) {
	settings := c.creds.Current()
	payload, err := json.Marshal(loginRequest{
		AccountName:   settings.Username,
		Password:      settings.Password,
		ApplicationID: applicationID,
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrorTypeInternal, "failed to encode login request")
	}

	body, err := c.post(ctx, c.endpoint(loginPath), payload)
	if err != nil {
		return "", err
	}

	session := strings.TrimSpace(string(body))
	session = strings.Trim(session, `"`)
	if session == "" {
		return "", apperrors.New(apperrors.ErrorTypeData, "login returned empty session")
	}
	return session, nil
}

// FetchReadings retrieves the latest reading set using the given session.
// It rejects immediately when no session is held; callers must supply one.
func (c *Client) FetchReadings(ctx context.Context, session string) ([]domain.Reading, error) {
	if session == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	query := url.Values{}
	query.Set("sessionID", session)
	query.Set("minutes", strconv.Itoa(lookbackMinutes))
	query.Set("maxCount", strconv.Itoa(maxReadings))

	body, err := c.post(ctx, c.endpoint(readingsPath)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var raw []wireReading
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeData, "failed to decode readings response")
	}

	readings := make([]domain.Reading, 0, len(raw))
	for _, entry := range raw {
		reading, ok := entry.toReading()
		if !ok {
			continue
		}
		readings = append(readings, reading)
	}
	if len(readings) == 0 {
		return nil, apperrors.ErrNoData
	}

	// Most recent first; timestamps must be non-increasing by position.
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.After(readings[j].Timestamp)
	})
	return readings, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, apperrors.NewHTTPError(resp.StatusCode, fmt.Sprintf("server answered %s: %s", resp.Status, snippet))
	}
	return body, nil
}
