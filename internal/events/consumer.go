// internal/events/consumer.go
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"medical-reminders/internal/common/logger"
	"medical-reminders/internal/models"
)

// Handler processes one validated patient-created event. It returns nothing:
// event handling is best effort and must never poison the stream.
type Handler func(ctx context.Context, patient models.Patient)

// Config names the stream topology for the consumer group.
type Config struct {
	Stream       string
	Group        string
	Consumer     string
	BlockTimeout time.Duration
}

// Consumer reads patient-created events from a redis stream through a
// consumer group, so delivery is at-least-once across restarts.
type Consumer struct {
	rdb     *redis.Client
	cfg     Config
	handler Handler
	logger  logger.Logger
}

func NewConsumer(rdb *redis.Client, cfg Config, handler Handler, log logger.Logger) *Consumer {
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	return &Consumer{rdb: rdb, cfg: cfg, handler: handler, logger: log}
}

// Run consumes until the context is cancelled. Malformed events are logged,
// acknowledged, and dropped; they are never redelivered.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("Event consumer started", map[string]interface{}{
		"stream":   c.cfg.Stream,
		"group":    c.cfg.Group,
		"consumer": c.cfg.Consumer,
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			Streams:  []string{c.cfg.Stream, ">"},
			Count:    10,
			Block:    c.cfg.BlockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.WithError(err).Error("Failed to read from event stream", map[string]interface{}{
				"stream": c.cfg.Stream,
			})
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	defer c.ack(ctx, msg.ID)

	raw, ok := msg.Values["payload"].(string)
	if !ok {
		c.logger.Warn("Event carries no payload field, dropping", map[string]interface{}{
			"message_id": msg.ID,
		})
		return
	}

	if err := ValidatePatientCreated([]byte(raw)); err != nil {
		c.logger.WithError(err).Warn("Event payload failed validation, dropping", map[string]interface{}{
			"message_id": msg.ID,
		})
		return
	}

	var patient models.Patient
	if err := json.Unmarshal([]byte(raw), &patient); err != nil {
		c.logger.WithError(err).Warn("Event payload failed to decode, dropping", map[string]interface{}{
			"message_id": msg.ID,
		})
		return
	}

	c.handler(ctx, patient)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.rdb.XAck(ctx, c.cfg.Stream, c.cfg.Group, id).Err(); err != nil {
		c.logger.WithError(err).Warn("Failed to ack event", map[string]interface{}{
			"message_id": id,
		})
	}
}
