package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/service"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer needs. Offsets are
// committed only after a message is handled.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type CartRemover interface {
	Remove(ctx context.Context, id domain.Identity, productID string) error
}

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MaxBytes:    10e6, // 10MB
		StartOffset: kafka.FirstOffset,
	})
}

// Consumer takes purchased books out of their buyer's cart.
type Consumer struct {
	reader      MessageReader
	cart        CartRemover
	log         zerolog.Logger
	backoff     time.Duration
	maxAttempts int
}

func NewConsumer(reader MessageReader, cart CartRemover, log zerolog.Logger) *Consumer {
	return &Consumer{
		reader:      reader,
		cart:        cart,
		log:         log.With().Str("component", "purchase-consumer").Logger(),
		backoff:     time.Second,
		maxAttempts: 5,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error().Err(err).Msg("error fetching message")
			if !c.wait(ctx) {
				return
			}
			continue
		}

		if !c.process(ctx, m) {
			return
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.log.Error().Err(err).Int64("offset", m.Offset).Msg("error committing message")
		}
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error().Err(err).Msg("error closing reader")
	}
}

// process retries a failed handle with backoff. It reports false only when
// ctx ended first, leaving the message uncommitted for redelivery.
func (c *Consumer) process(ctx context.Context, m kafka.Message) bool {
	log := c.log.With().Int64("offset", m.Offset).Int("partition", m.Partition).Logger()

	for attempt := 1; ; attempt++ {
		err := c.handle(ctx, log, m)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if attempt >= c.maxAttempts {
			log.Error().Err(err).Int("attempts", attempt).Msg("giving up on message")
			return true
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("failed to remove purchased book from cart, retrying")
		if !c.wait(ctx) {
			return false
		}
	}
}

func (c *Consumer) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.backoff):
		return true
	}
}

// handle returns an error only for failures worth retrying.
func (c *Consumer) handle(ctx context.Context, log zerolog.Logger, m kafka.Message) error {
	var event domain.BookPurchased
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Warn().Err(err).Msg("skipping malformed message")
		return nil
	}
	if !domain.ValidID(event.UserID) || !domain.ValidProductID(event.BookID) {
		log.Warn().Str("user_id", event.UserID).Str("book_id", event.BookID).Msg("skipping event with invalid ids")
		return nil
	}

	buyer := domain.Identity{UserID: event.UserID, Role: domain.RoleUser}
	err := c.cart.Remove(ctx, buyer, event.BookID)
	if errors.Is(err, service.ErrNotAuthenticated) {
		log.Warn().Str("event_id", event.EventID).Str("user_id", event.UserID).Msg("skipping event for missing user")
		return nil
	}
	if err != nil {
		return err
	}

	log.Debug().Str("event_id", event.EventID).Str("user_id", event.UserID).Msg("purchased book removed from cart")
	return nil
}
