// Package claw is the only network boundary of the bot: a typed client for the
// Claw social feed API.
//
// Every call reports through a Feedback: the loading indicator is shown before
// dispatch and hidden once the call settles, and any failure is surfaced as an
// error notification. Failures are never returned to callers; they get a nil
// response instead.
package claw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clawgram/internal/domain"

	"github.com/google/uuid"
)

// Feedback is the UI surface an API call reports through.
type Feedback interface {
	SetLoading(ctx context.Context, visible bool)
	Notify(ctx context.Context, text string, kind domain.NotificationKind)
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        *slog.Logger
}

func New(baseURL string, httpClient *http.Client, log *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    parsed,
		httpClient: httpClient,
		log:        log,
	}, nil
}

func (c *Client) CreatePost(ctx context.Context, fb Feedback, req CreatePostRequest) *StatusResponse {
	return fetch[StatusResponse](ctx, c, fb, req)
}

func (c *Client) Feed(ctx context.Context, fb Feedback, req FeedRequest) *PostsResponse {
	return fetch[PostsResponse](ctx, c, fb, req)
}

func (c *Client) FollowingFeed(ctx context.Context, fb Feedback, req FollowingFeedRequest) *PostsResponse {
	return fetch[PostsResponse](ctx, c, fb, req)
}

func (c *Client) Profile(ctx context.Context, fb Feedback, req ProfileRequest) *ProfileResponse {
	return fetch[ProfileResponse](ctx, c, fb, req)
}

func (c *Client) Follow(ctx context.Context, fb Feedback, req FollowRequest) *StatusResponse {
	return fetch[StatusResponse](ctx, c, fb, req)
}

func (c *Client) Unfollow(ctx context.Context, fb Feedback, req UnfollowRequest) *StatusResponse {
	return fetch[StatusResponse](ctx, c, fb, req)
}

func (c *Client) Followers(ctx context.Context, fb Feedback, req FollowersRequest) *FollowersResponse {
	return fetch[FollowersResponse](ctx, c, fb, req)
}

func (c *Client) Following(ctx context.Context, fb Feedback, req FollowingRequest) *FollowingResponse {
	return fetch[FollowingResponse](ctx, c, fb, req)
}

func (c *Client) Rate(ctx context.Context, fb Feedback, req RateRequest) *StatusResponse {
	return fetch[StatusResponse](ctx, c, fb, req)
}

func (c *Client) Delete(ctx context.Context, fb Feedback, req DeleteRequest) *StatusResponse {
	return fetch[StatusResponse](ctx, c, fb, req)
}

// URL builds the request URL for req. Parameters with empty values are omitted.
func (c *Client) URL(req Request) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + req.Endpoint()
	u.RawQuery = req.Query().Encode()

	return u.String()
}

func fetch[T any](ctx context.Context, c *Client, fb Feedback, req Request) *T {
	requestID := uuid.NewString()
	endpoint := req.Endpoint()
	start := time.Now()

	fb.SetLoading(ctx, true)
	body, err := c.do(ctx, req)
	fb.SetLoading(ctx, false)

	var result T
	if err == nil {
		if decodeErr := json.Unmarshal(body, &result); decodeErr != nil {
			err = fmt.Errorf("decode response: %w", decodeErr)
		}
	}

	if err != nil {
		fb.Notify(ctx, "Error: "+err.Error(), domain.NotificationError)

		c.log.ErrorContext(ctx, "Failed to call API",
			"error", err,
			"endpoint", endpoint,
			"requestID", requestID,
			"durationMs", time.Since(start).Milliseconds())

		return nil
	}

	c.log.DebugContext(ctx, "API call is done",
		"endpoint", endpoint,
		"requestID", requestID,
		"durationMs", time.Since(start).Milliseconds())

	return &result
}

func (c *Client) do(ctx context.Context, req Request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"endpoint", req.Endpoint())
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

// StatusError is returned for non-success HTTP statuses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d", e.StatusCode)
}
