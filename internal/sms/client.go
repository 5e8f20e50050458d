// Package sms delivers text messages through an HTTP webhook gateway.
package sms

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"
	"fieldservice_backend/platform/phone"

	"github.com/go-resty/resty/v2"
)

// Sender sends a single text message.
type Sender interface {
	Send(ctx context.Context, phoneNumber, message string) error
}

type Client struct {
	http   *resty.Client
	region string
	log    *logger.Logger
}

type webhookRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// NewClient returns a webhook client, or nil when no webhook URL is configured.
func NewClient(cfg config.NotificationConfig, log *logger.Logger) *Client {
	if !cfg.IsSMSEnabled() {
		return nil
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.GetSMSWebhookURL(), "/")).
		SetTimeout(10*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json")
	if token := cfg.GetSMSWebhookToken(); token != "" {
		httpClient.SetAuthToken(token)
	}

	return &Client{
		http:   httpClient,
		region: cfg.GetSMSDefaultRegion(),
		log:    log,
	}
}

func (c *Client) Send(ctx context.Context, phoneNumber, message string) error {
	normalized := phone.NormalizeE164(phoneNumber, c.region)
	if !phone.IsE164(normalized) {
		return fmt.Errorf("invalid phone number %q", phoneNumber)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(webhookRequest{To: normalized, Message: message}).
		Post("")
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	c.log.WithContext(ctx).Info("sms sent", "phone", normalized)
	return nil
}

// LogSender logs messages instead of sending them.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, phoneNumber, message string) error {
	s.log.WithContext(ctx).Info("[mock] sms", "to", phoneNumber, "message", message)
	return nil
}

var (
	_ Sender = (*Client)(nil)
	_ Sender = (*LogSender)(nil)
)
