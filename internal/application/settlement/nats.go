package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"birthpad-backend/internal/domain"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	// StreamName is the JetStream stream holding settlement events.
	StreamName = "SETTLEMENTS"

	// StreamSubjects matches one subject per launch: "settlements.{launchId}".
	StreamSubjects = "settlements.*"

	// ConsumerName is the durable consumer shared by applier instances.
	ConsumerName = "settlement-applier"

	StreamRetention = 30 * 24 * time.Hour
)

// NATSBus publishes and consumes settlement events through JetStream. The
// consumer allows a single unacknowledged message so events apply in order.
type NATSBus struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewNATSBus(natsURL string) (*NATSBus, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("birthpad-settlement"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	b := &NATSBus{nc: nc, js: js}
	if err := b.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	log.Info().Str("url", natsURL).Str("stream", StreamName).Msg("NATS settlement bus initialized")
	return b, nil
}

func (b *NATSBus) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := b.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	log.Info().Str("stream", StreamName).Msg("creating JetStream stream")
	_, err := b.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Launch settlement events",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

func (b *NATSBus) Publish(ctx context.Context, ev domain.SettlementEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}
	subject := "settlements." + ev.LaunchID
	if _, err := b.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish settlement event: %w", err)
	}
	log.Debug().Str("subject", subject).Str("type", ev.Type).Msg("published settlement event")
	return nil
}

func (b *NATSBus) Consume(ctx context.Context, h Handler) error {
	cons, err := b.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxAckPending: 1,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		var ev domain.SettlementEvent
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject()).Msg("dropping malformed settlement event")
			_ = msg.Term()
			return
		}
		logHandlerError(ev, h(ctx, ev))
		if err := msg.Ack(); err != nil {
			log.Warn().Err(err).Str("type", ev.Type).Msg("settlement ack failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	defer cc.Stop()

	<-ctx.Done()
	return ctx.Err()
}

func (b *NATSBus) Close() error {
	if b.nc != nil {
		b.nc.Close()
		log.Info().Msg("NATS settlement bus closed")
	}
	return nil
}

func logHandlerError(ev domain.SettlementEvent, err error) {
	if err == nil {
		return
	}
	log.Warn().Err(err).
		Str("type", ev.Type).
		Str("launch_id", ev.LaunchID).
		Str("contribution_id", ev.ContributionID).
		Msg("settlement event failed")
}
