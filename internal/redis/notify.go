package redisclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ChannelExceptionsChanged   = "frontdesk:exceptions-changed"
	ChannelAppointmentsChanged = "frontdesk:appointments-changed"
)

// Notifier broadcasts calendar mutations so every front desk session can
// invalidate its exception index and re-render. Delivery is at-least-once and
// unordered; the payload carries no data, only the fact that something
// changed.
type Notifier interface {
	ExceptionsChanged(ctx context.Context) error
	AppointmentsChanged(ctx context.Context) error
}

type redisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) Notifier {
	return &redisNotifier{client: client}
}

func (n *redisNotifier) ExceptionsChanged(ctx context.Context) error {
	return n.publish(ctx, ChannelExceptionsChanged)
}

func (n *redisNotifier) AppointmentsChanged(ctx context.Context) error {
	return n.publish(ctx, ChannelAppointmentsChanged)
}

func (n *redisNotifier) publish(ctx context.Context, channel string) error {
	if err := n.client.Publish(ctx, channel, "changed").Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// NopNotifier is used when redis is unavailable; mutations still succeed, the
// other sessions just refresh on their own next range change.
type NopNotifier struct{}

func (NopNotifier) ExceptionsChanged(context.Context) error   { return nil }
func (NopNotifier) AppointmentsChanged(context.Context) error { return nil }

// Subscriber runs a pub/sub loop and invokes the registered callbacks for each
// received message. Callbacks must be safe to call from the subscriber
// goroutine.
type Subscriber struct {
	client                *redis.Client
	log                   zerolog.Logger
	OnExceptionsChanged   func()
	OnAppointmentsChanged func()
}

func NewSubscriber(client *redis.Client, log zerolog.Logger) *Subscriber {
	return &Subscriber{
		client: client,
		log:    log.With().Str("component", "redis-subscriber").Logger(),
	}
}

// Run blocks until the context is cancelled, dispatching change
// notifications. A dropped connection ends the loop with an error; the caller
// decides whether to restart.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, ChannelExceptionsChanged, ChannelAppointmentsChanged)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			s.log.Debug().Str("channel", msg.Channel).Msg("change notification received")
			switch msg.Channel {
			case ChannelExceptionsChanged:
				if s.OnExceptionsChanged != nil {
					s.OnExceptionsChanged()
				}
			case ChannelAppointmentsChanged:
				if s.OnAppointmentsChanged != nil {
					s.OnAppointmentsChanged()
				}
			}
		}
	}
}
