package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/metrics"
	"golang.org/x/time/rate"
)

// APIClient talks to the SMS gateway over form-encoded HTTP.
type APIClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    metrics.Metrics
	cfg        Config
	BaseURL    string
}

// Ensure APIClient implements the Client interface.
var _ Client = (*APIClient)(nil)

// NewClient creates a gateway client from cfg.
func NewClient(cfg Config, metrics metrics.Metrics) *APIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &APIClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    metrics,
		cfg:        cfg,
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
	if cfg.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return c
}

// SendOneWay sends msg to the recipient right away.
func (c *APIClient) SendOneWay(ctx context.Context, to, msg string) error {
	form := c.credentials()
	form.Set("from", c.cfg.Sender)
	form.Set("to", to)
	form.Set("msg", msg)

	if _, err := c.send(ctx, form, metrics.SmsOneWay); err != nil {
		return err
	}
	log.Info("One-way SMS sent", "to", to)
	return nil
}

// Schedule books the reminder for the observer one day before matchDate.
func (c *APIClient) Schedule(ctx context.Context, matchDate time.Time, key, to string) (string, error) {
	form := c.credentials()
	form.Set("from", c.cfg.Sender)
	form.Set("to", to)
	form.Set("msg", ReminderText(matchDate, key, c.cfg.Location))
	form.Set("date", SendDate(matchDate, c.cfg.Location))

	id, err := c.send(ctx, form, metrics.SmsScheduled)
	if err != nil {
		return "", err
	}
	if id == "" {
		c.metrics.IncSmsFailed(metrics.SmsScheduled)
		return "", fmt.Errorf("%w: response carried no messageId", match.ErrGatewayUnavailable)
	}
	log.Info("Reminder SMS scheduled", "key", key, "to", to, "messageId", id, "date", form.Get("date"))
	return id, nil
}

// Cancel withdraws the scheduled message. The id must be numeric.
func (c *APIClient) Cancel(ctx context.Context, messageID string) error {
	n, err := parseMessageID(messageID)
	if err != nil {
		return err
	}
	form := c.credentials()
	form.Set("messageId", strconv.FormatInt(n, 10))

	resp, err := c.post(ctx, "/cancelMessage", form)
	if err != nil {
		c.metrics.IncSmsFailed(metrics.SmsCancel)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.metrics.IncSmsFailed(metrics.SmsCancel)
		body, _ := io.ReadAll(resp.Body)
		log.Error("Received non-OK HTTP status from SMS gateway", "endpoint", "cancelMessage", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%w: cancel returned status %d", match.ErrGatewayUnavailable, resp.StatusCode)
	}
	c.metrics.IncSmsSent(metrics.SmsCancel)
	log.Info("Scheduled SMS canceled", "messageId", n)
	return nil
}

func (c *APIClient) credentials() url.Values {
	form := url.Values{}
	form.Set("key", c.cfg.APIKey)
	form.Set("password", c.cfg.Password)
	return form
}

// send posts to /sms and returns the gateway message id.
func (c *APIClient) send(ctx context.Context, form url.Values, kind string) (string, error) {
	resp, err := c.post(ctx, "/sms", form)
	if err != nil {
		c.metrics.IncSmsFailed(kind)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.IncSmsFailed(kind)
		body, _ := io.ReadAll(resp.Body)
		log.Error("Received non-OK HTTP status from SMS gateway", "endpoint", "sms", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("%w: send returned status %d", match.ErrGatewayUnavailable, resp.StatusCode)
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.metrics.IncSmsFailed(kind)
		return "", fmt.Errorf("%w: failed to decode response: %v", match.ErrGatewayUnavailable, err)
	}
	if out.ErrorMsg != "" {
		c.metrics.IncSmsFailed(kind)
		return "", fmt.Errorf("%w: %s", match.ErrGatewayUnavailable, out.ErrorMsg)
	}
	c.metrics.IncSmsSent(kind)
	return string(out.MessageID), nil
}

func (c *APIClient) post(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", match.ErrGatewayUnavailable, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	log.Debug("Calling SMS gateway", "url", c.BaseURL+path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("SMS gateway request failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", match.ErrGatewayUnavailable, err)
	}
	return resp, nil
}
