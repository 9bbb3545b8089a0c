package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/events"
)

// EmailConsumer reads the email-events stream and renders the outbound mail
// as log-only stubs; actual SMTP delivery lives outside this service.
type EmailConsumer struct {
	client *redis.Client
	logger *zap.Logger
	cfg    config.NotificationConfig
	lastID string
}

// NewEmailConsumer builds the consumer. startID follows Redis Streams
// semantics: "$" tails new entries, "0" replays the whole stream.
func NewEmailConsumer(client *redis.Client, logger *zap.Logger, cfg config.NotificationConfig, startID string) *EmailConsumer {
	if startID == "" {
		startID = "$"
	}
	return &EmailConsumer{client: client, logger: logger, cfg: cfg, lastID: startID}
}

// Run blocks reading the stream until ctx is cancelled.
func (c *EmailConsumer) Run(ctx context.Context) {
	for {
		streams, err := c.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{events.TopicEmailEvents, c.lastID},
			Count:   16,
			Block:   5 * time.Second,
		}).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				c.logger.Warn("email stream read failed", zap.Error(err))
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.lastID = msg.ID
				c.handleMessage(msg)
			}
		}
	}
}

func (c *EmailConsumer) handleMessage(msg redis.XMessage) {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		c.logger.Warn("email event missing data field", zap.String("message_id", msg.ID))
		return
	}

	var event events.EmailEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		c.logger.Warn("failed to decode email event", zap.String("message_id", msg.ID), zap.Error(err))
		return
	}

	switch event.RequestType {
	case events.RequestNotExistingUser:
		c.sendStub(event.Email, "Activate your account", c.activationBody(event))
	case events.RequestAlreadyActivatedUser:
		c.sendStub(event.Email, "Thank you for activating your account", "")
	case events.RequestResetPassword:
		c.sendStub(event.Email, "Reset your password", c.resetBody(event))
	default:
		c.logger.Warn("unknown email request type",
			zap.String("message_id", msg.ID),
			zap.String("request_type", string(event.RequestType)))
	}
}

func (c *EmailConsumer) sendStub(to, subject, link string) {
	c.logger.Info("email sent",
		zap.String("from", c.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("link", link))
}

func (c *EmailConsumer) activationBody(event events.EmailEvent) string {
	if event.Token == nil {
		return ""
	}
	return fmt.Sprintf("%s?token=%s", c.cfg.ActivationURL, *event.Token)
}

func (c *EmailConsumer) resetBody(event events.EmailEvent) string {
	if event.Token == nil {
		return ""
	}
	return fmt.Sprintf("%s?token=%s", c.cfg.ResetURL, *event.Token)
}
