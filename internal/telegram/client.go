package telegram

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"signal-copier-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const baseURL = "https://api.telegram.org"

// MessageHandler receives every inbound channel message. title is the
// chat's display title when the Bot API provides one.
type MessageHandler func(channelID, rawText, title string)

// Client is a long-polling Telegram Bot API client. It follows the same
// shape as any other rate-limited REST client in this codebase: a resty
// client, a token-bucket limiter and a bounded retry loop.
type Client struct {
	client      *resty.Client
	logger      *zap.Logger
	limiter     *rate.Limiter
	pollTimeout int
	offset      int64
}

// NewClient creates a Bot API client from the telegram config section.
func NewClient(cfg *config.Telegram, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(baseURL + "/bot" + cfg.BotToken)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:      client,
		logger:      logger,
		limiter:     limiter,
		pollTimeout: cfg.PollTimeout,
	}
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      T      `json:"result"`
}

type user struct {
	Username string `json:"username"`
}

type chat struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type message struct {
	Text string `json:"text"`
	Chat chat   `json:"chat"`
}

type update struct {
	UpdateID    int64    `json:"update_id"`
	Message     *message `json:"message"`
	ChannelPost *message `json:"channel_post"`
}

// GetMe verifies connectivity and returns the bot's username.
func (c *Client) GetMe(ctx context.Context) (string, error) {
	req := c.client.R().SetResult(&apiResponse[user]{})

	resp, err := c.doRequest(ctx, "/getMe", req)
	if err != nil {
		return "", fmt.Errorf("failed to get bot identity: %w", err)
	}

	result := resp.Result().(*apiResponse[user])
	if !result.OK {
		return "", fmt.Errorf("bot identity request rejected: %s", result.Description)
	}
	return result.Result.Username, nil
}

// Run long-polls getUpdates until the context is cancelled, handing every
// text-bearing channel post or message to handle. Transient failures are
// logged and polling continues.
func (c *Client) Run(ctx context.Context, handle MessageHandler) error {
	c.logger.Info("Starting Telegram long-poll loop",
		zap.Int("poll_timeout_seconds", c.pollTimeout))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping Telegram long-poll loop")
			return ctx.Err()
		default:
		}

		updates, err := c.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("getUpdates failed, continuing", zap.Error(err))
			continue
		}

		for _, u := range updates {
			c.offset = u.UpdateID + 1
			msg := u.ChannelPost
			if msg == nil {
				msg = u.Message
			}
			if msg == nil || msg.Text == "" {
				continue
			}
			handle(strconv.FormatInt(msg.Chat.ID, 10), msg.Text, msg.Chat.Title)
		}
	}
}

func (c *Client) getUpdates(ctx context.Context) ([]update, error) {
	req := c.client.R().
		SetQueryParam("offset", strconv.FormatInt(c.offset, 10)).
		SetQueryParam("timeout", strconv.Itoa(c.pollTimeout)).
		SetQueryParam("allowed_updates", `["message","channel_post"]`).
		SetResult(&apiResponse[[]update]{})

	resp, err := c.doRequest(ctx, "/getUpdates", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get updates: %w", err)
	}

	result := resp.Result().(*apiResponse[[]update])
	if !result.OK {
		return nil, fmt.Errorf("updates request rejected: %s", result.Description)
	}
	return result.Result, nil
}

// doRequest executes a GET with rate limiting and a bounded retry on
// throttling, server errors and network failures.
func (c *Client) doRequest(ctx context.Context, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	req.SetContext(ctx)

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("url", url))
		resp, err = req.Execute("GET", url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
