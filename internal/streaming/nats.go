package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"honeytrap-lab/internal/config"
	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// NATSPublisher handles publishing honeypot events to NATS JetStream
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
	config config.NATSConfig
	logger *logger.Logger

	mu        sync.RWMutex
	connected bool
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, log *logger.Logger) (*NATSPublisher, error) {
	log = log.WithComponent("nats")

	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.StreamName == "" {
		cfg.StreamName = "HONEYTRAP_EVENTS"
	}

	log.Info().Str("url", cfg.URL).Str("stream", cfg.StreamName).Msg("connecting to NATS")

	conn, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Honeypot session and detection events",
		Subjects:    []string{"honeypot.>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxMsgs:     100000,
		MaxBytes:    100 * 1024 * 1024,
		Discard:     jetstream.DiscardOld,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}

	stream, err := js.CreateOrUpdateStream(ctx, streamCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	log.Info().Str("stream", stream.CachedInfo().Config.Name).Msg("NATS stream ready")

	return &NATSPublisher{
		conn:      conn,
		js:        js,
		stream:    stream,
		config:    cfg,
		logger:    log,
		connected: true,
	}, nil
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.connected = false
	}
}

// IsConnected returns whether NATS is connected
func (p *NATSPublisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected && p.conn.IsConnected()
}

// PublishMessageScored publishes the detection outcome for one message.
// Subject hierarchy: honeypot.message.scored.<scam|clean>
func (p *NATSPublisher) PublishMessageScored(ctx context.Context, sessionID string, result detection.Result) error {
	verdict := "clean"
	if result.ScamDetected {
		verdict = "scam"
	}
	subject := fmt.Sprintf("honeypot.message.scored.%s", verdict)

	event := NewMessageScoredEvent(sessionID, result)
	if err := p.publish(ctx, subject, event); err != nil {
		return err
	}

	p.logger.Debug().
		Str("subject", subject).
		Str("session_id", sessionID).
		Float64("confidence", result.Confidence).
		Msg("published message scored event")
	return nil
}

// PublishSessionReported publishes the delivered final report for a session.
func (p *NATSPublisher) PublishSessionReported(ctx context.Context, report models.SessionReport) error {
	subject := fmt.Sprintf("honeypot.session.reported.%s", report.SessionID)

	event := NewSessionReportedEvent(report)
	if err := p.publish(ctx, subject, event); err != nil {
		return err
	}

	p.logger.Debug().
		Str("subject", subject).
		Str("session_id", report.SessionID).
		Msg("published session reported event")
	return nil
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, event any) error {
	if !p.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// SubscribeScored creates an ephemeral consumer over scored-message events.
// The returned channel closes when ctx is cancelled.
func (p *NATSPublisher) SubscribeScored(ctx context.Context) (<-chan *MessageScoredEvent, error) {
	if !p.IsConnected() {
		return nil, fmt.Errorf("NATS not connected")
	}

	consumerCfg := jetstream.ConsumerConfig{
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    3,
		FilterSubject: "honeypot.message.scored.>",
	}

	consumer, err := p.stream.CreateOrUpdateConsumer(ctx, consumerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	eventCh := make(chan *MessageScoredEvent, 100)

	go func() {
		defer close(eventCh)

		msgs, err := consumer.Messages()
		if err != nil {
			p.logger.Error().Err(err).Msg("failed to get messages iterator")
			return
		}
		defer msgs.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := msgs.Next()
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					p.logger.Warn().Err(err).Msg("error getting next message")
					continue
				}

				var event MessageScoredEvent
				if err := json.Unmarshal(msg.Data(), &event); err != nil {
					p.logger.Warn().Err(err).Msg("failed to unmarshal event")
					msg.Nak()
					continue
				}

				select {
				case eventCh <- &event:
					msg.Ack()
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return eventCh, nil
}
