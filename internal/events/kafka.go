package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-hub/internal/config"
	"inventory-hub/internal/domain"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const headerEventType = "event-type"

var tracer = otel.Tracer("inventory-hub/internal/events")

// recordProducer is the part of *kgo.Client used for publishing
type recordProducer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher writes events as JSON records keyed by business id, so
// events of one business stay ordered within a partition
type KafkaPublisher struct {
	producer   recordProducer
	closeFn    func()
	orderTopic string
	stockTopic string
	timeout    time.Duration
}

func NewKafkaPublisher(ctx context.Context, cfg config.KafkaConfig) (*KafkaPublisher, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(cfg.WriteTimeout),
		kgo.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := cl.Ping(pingCtx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}

	return newKafkaPublisher(cl, cl.Close, cfg), nil
}

func newKafkaPublisher(producer recordProducer, closeFn func(), cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		producer:   producer,
		closeFn:    closeFn,
		orderTopic: cfg.OrderTopic,
		stockTopic: cfg.StockTopic,
		timeout:    cfg.WriteTimeout,
	}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, p.orderTopic, order.BusinessID, TypeOrderCreated, newOrderCreated(order))
}

func (p *KafkaPublisher) PublishStockChanged(ctx context.Context, log *domain.StockLog) error {
	return p.publish(ctx, p.stockTopic, log.BusinessID, TypeStockChanged, newStockChanged(log))
}

func (p *KafkaPublisher) Close() {
	if p.closeFn != nil {
		p.closeFn()
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key, eventType string, payload any) error {
	ctx, span := tracer.Start(ctx, "KafkaPublisher.Publish",
		trace.WithAttributes(
			attribute.String("topic", topic),
			attribute.String("event_type", eventType),
		),
	)
	defer span.End()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	record, err := buildRecord(ctx, topic, key, eventType, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode event")
		return err
	}

	var produceErr error
	done := make(chan struct{})
	p.producer.Produce(ctx, record, func(_ *kgo.Record, err error) {
		produceErr = err
		close(done)
	})

	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-done:
		err = produceErr
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to produce event")
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// buildRecord encodes payload and carries the trace context in headers
func buildRecord(ctx context.Context, topic, key, eventType string, payload any) (*kgo.Record, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", eventType, err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := make([]kgo.RecordHeader, 0, len(carrier)+1)
	headers = append(headers, kgo.RecordHeader{Key: headerEventType, Value: []byte(eventType)})
	for k, v := range carrier {
		headers = append(headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	return &kgo.Record{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	}, nil
}
