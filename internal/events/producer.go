package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

const writeTimeout = 5 * time.Second

// Writer: часть kafka.Writer, которой пользуется Producer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer складывает события в буфер и пишет их в Kafka из одной горутины.
type Producer struct {
	w       Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	logger  *zap.Logger
}

// NewWriter создаёт kafka.Writer; топик задаётся в каждом сообщении.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewProducer создаёт продюсер с буфером на buf сообщений.
func NewProducer(w Writer, buf int, logger *zap.Logger) *Producer {
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		logger:  logger,
	}
}

// Run пишет сообщения до отмены ctx, затем дописывает буфер и закрывает writer.
func (p *Producer) Run(ctx context.Context) {
	defer close(p.closeCh)
	for {
		select {
		case <-ctx.Done():
			p.drain()
			if err := p.w.Close(); err != nil {
				p.logger.Error("failed to close kafka writer", zap.Error(err))
			}
			return
		case m := <-p.inbox:
			p.write(m)
		}
	}
}

// Wait блокируется до завершения Run.
func (p *Producer) Wait() { <-p.closeCh }

func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", m.Topic),
			zap.ByteString("key", m.Key),
			zap.Error(err),
		)
	}
}

func (p *Producer) publish(topic, key string, value []byte) {
	m := kafka.Message{Topic: topic, Key: []byte(key), Value: value, Time: time.Now()}
	select {
	case p.inbox <- m:
	default:
		p.logger.Warn("event buffer full, dropping event", zap.String("topic", topic), zap.String("key", key))
	}
}

// OrderCreated публикует order.created.
func (p *Producer) OrderCreated(ctx context.Context, o model.Order) {
	b, err := newEnvelope(TopicOrderCreated, o.ID, orderCreatedPayload(o))
	if err != nil {
		p.logger.Error("failed to encode event", zap.Error(err))
		return
	}
	p.publish(TopicOrderCreated, o.ID, b)
}

// OrderStatusChanged публикует order.status_changed.
func (p *Producer) OrderStatusChanged(ctx context.Context, orderID string, from, to model.OrderStatus) {
	b, err := newEnvelope(TopicOrderStatusChanged, orderID, StatusChangedPayload{
		OrderID: orderID,
		From:    string(from),
		To:      string(to),
	})
	if err != nil {
		p.logger.Error("failed to encode event", zap.Error(err))
		return
	}
	p.publish(TopicOrderStatusChanged, orderID, b)
}
