// Package calendar integrates the external calendar service and derives
// availability from it.
//
// Availability is a convenience, not a safety property: every entry point
// here fails open or best-effort, and the booking layer's uniqueness
// constraint remains the real guard against double booking.
package calendar

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnavailable = errors.New("calendar: service unavailable")

// Event is one calendar entry.
type Event struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Client is the contract consumed by the advisor and the booking path.
type Client interface {
	CheckAvailability(ctx context.Context, start, end time.Time) (bool, error)
	CreateEvent(ctx context.Context, title string, start time.Time, durationMin int) (string, error)
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
}

// HTTPClient talks to the calendar service over HTTP, authenticating each
// request with a short-lived service-account JWT.
type HTTPClient struct {
	base       string
	calendarID string
	httpc      *http.Client
	signer     *jwtSigner
}

type HTTPClientConfig struct {
	BaseURL       string
	CalendarID    string
	ClientEmail   string
	PrivateKeyPEM string
	Timeout       time.Duration
}

func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" || cfg.CalendarID == "" {
		return nil, errors.New("calendar: base url and calendar id are required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("calendar: parse private key: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &HTTPClient{
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		calendarID: cfg.CalendarID,
		httpc:      &http.Client{Timeout: cfg.Timeout},
		signer:     &jwtSigner{email: cfg.ClientEmail, key: key, audience: cfg.BaseURL, now: time.Now},
	}, nil
}

type jwtSigner struct {
	email    string
	key      *rsa.PrivateKey
	audience string
	now      func() time.Time
}

func (s *jwtSigner) token() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.email,
		Subject:   s.email,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
}

func (c *HTTPClient) CheckAvailability(ctx context.Context, start, end time.Time) (bool, error) {
	q := url.Values{}
	q.Set("from", start.UTC().Format(time.RFC3339))
	q.Set("to", end.UTC().Format(time.RFC3339))

	var out struct {
		Available bool `json:"available"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/calendars/%s/availability?%s", c.calendarID, q.Encode()), nil, &out); err != nil {
		return false, err
	}
	return out.Available, nil
}

func (c *HTTPClient) CreateEvent(ctx context.Context, title string, start time.Time, durationMin int) (string, error) {
	body := map[string]any{
		"title": title,
		"start": start.UTC().Format(time.RFC3339),
		"end":   start.Add(time.Duration(durationMin) * time.Minute).UTC().Format(time.RFC3339),
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/calendars/%s/events", c.calendarID), body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *HTTPClient) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	q := url.Values{}
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))

	var out struct {
		Events []Event `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/calendars/%s/events?%s", c.calendarID, q.Encode()), nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("calendar: encode request: %w", err)
		}
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("calendar: build request: %w", err)
	}
	tok, err := c.signer.token()
	if err != nil {
		return fmt.Errorf("calendar: sign token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}
