// Package social mirrors published listings to an Instagram business account
// through the Graph API two-step container/publish flow.
package social

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

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

// APIError is a non-success reply from the Graph API.
type APIError struct {
	Step       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("social %s: status %d: %s", e.Step, e.StatusCode, e.Body)
}

// ErrNoImage is returned when a listing has no image to post.
var ErrNoImage = errors.New("social: listing has no image")

type Publisher struct {
	baseURL   string
	accountID string
	token     string
	http      *retryablehttp.Client
}

// New builds a Publisher. Transport errors and 5xx replies are retried up to
// three times with backoff.
func New(baseURL, accountID, accessToken string) *Publisher {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = leveledLogger{}
	// Hand the final response back so its status and body can be reported.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Publisher{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accountID: accountID,
		token:     accessToken,
		http:      rc,
	}
}

// Publish creates a media container for imageURL with caption and publishes
// it, returning the post id.
func (p *Publisher) Publish(ctx context.Context, imageURL, caption string) (string, error) {
	if imageURL == "" {
		return "", ErrNoImage
	}
	creationID, err := p.post(ctx, "media", url.Values{
		"image_url":    {imageURL},
		"caption":      {caption},
		"access_token": {p.token},
	})
	if err != nil {
		return "", err
	}
	return p.post(ctx, "media_publish", url.Values{
		"creation_id":  {creationID},
		"access_token": {p.token},
	})
}

func (p *Publisher) post(ctx context.Context, step string, form url.Values) (string, error) {
	u := fmt.Sprintf("%s/%s/%s", p.baseURL, url.PathEscape(p.accountID), step)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("social %s: create request: %w", step, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("social %s: %w", step, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("social %s: read response: %w", step, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Step: step, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("social %s: decode response: %w", step, err)
	}
	if out.ID == "" {
		return "", &APIError{Step: step, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return out.ID, nil
}

// leveledLogger routes retryablehttp logs through zerolog.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...any) { log.Error().Fields(kv).Msg(msg) }
func (leveledLogger) Info(msg string, kv ...any)  { log.Debug().Fields(kv).Msg(msg) }
func (leveledLogger) Debug(msg string, kv ...any) { log.Debug().Fields(kv).Msg(msg) }
func (leveledLogger) Warn(msg string, kv ...any)  { log.Warn().Fields(kv).Msg(msg) }
