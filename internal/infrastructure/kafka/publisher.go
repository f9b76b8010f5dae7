package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const peerKafka = "kafka"

// Envelope is the wire format of every domain event written to the topic.
type Envelope struct {
	Event      string          `json:"event"`
	Key        string          `json:"key,omitempty"`
	Service    string          `json:"service"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards domain events to a Kafka topic, keyed by aggregate id
// so that all events of one order land on the same partition.
type Publisher struct {
	w       messageWriter
	service string

	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func NewPublisher(w messageWriter, service string, tel observability.Observability) *Publisher {
	m := observability.OrNop(tel).Metrics()
	return &Publisher{
		w:            w,
		service:      service,
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (p *Publisher) Publish(ctx context.Context, e domoutbox.Event) error {
	msg, err := p.encode(ctx, e)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.w.WriteMessages(ctx, msg)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.extCounter.Add(1,
		observability.L("peer", peerKafka),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", outcome),
	)
	p.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peerKafka),
		observability.L("endpoint", e.EventName()),
	)
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", e.EventName(), err)
	}
	return nil
}

// Handler adapts Publish for bus subscriptions.
func (p *Publisher) Handler() domoutbox.Handler {
	return p.Publish
}

func (p *Publisher) Close() error { return p.w.Close() }

func (p *Publisher) encode(ctx context.Context, e domoutbox.Event) (kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", e.EventName(), err)
	}
	key := domoutbox.KeyOf(e)
	now := time.Now().UTC()
	value, err := json.Marshal(Envelope{
		Event:      e.EventName(),
		Key:        key,
		Service:    p.service,
		OccurredAt: now,
		Payload:    payload,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode envelope: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier)+1)
	headers = append(headers, kafka.Header{Key: "event", Value: []byte(e.EventName())})
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Time:    now,
		Headers: headers,
	}, nil
}
