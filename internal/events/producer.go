// Package events publishes domain events to Kafka. Publishing is best
// effort for consumers such as analytics and fulfilment: the events are
// emitted after the checkout transaction has committed, so a publish
// failure is logged but never reported to the buyer.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/prodev-shop/backend/internal/domain/order"
)

const orderTopic = "order-events"

// OrderCreated is emitted once per committed checkout.
type OrderCreated struct {
	EventID    string      `json:"event_id"`
	UserID     int64       `json:"user_id"`
	CouponCode string      `json:"coupon_code,omitempty"`
	Lines      []OrderLine `json:"lines"`
	Timestamp  time.Time   `json:"timestamp"`
}

// OrderLine is one purchased line inside an OrderCreated event.
type OrderLine struct {
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Producer writes checkout events to Kafka. A nil Producer is valid and
// drops everything, which is how the app runs without a broker.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a Producer for the given brokers.
func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        orderTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: logger,
	}
}

// PublishOrderCreated emits an OrderCreated event for the checkout result.
// Events for the same user land on the same partition, preserving order.
func (p *Producer) PublishOrderCreated(ctx context.Context, userID int64, couponCode string, lines []order.Line) {
	if p == nil {
		return
	}

	evt := OrderCreated{
		EventID:    uuid.New().String(),
		UserID:     userID,
		CouponCode: couponCode,
		Lines:      make([]OrderLine, len(lines)),
		Timestamp:  time.Now().UTC(),
	}
	for i, l := range lines {
		evt.Lines[i] = OrderLine{
			OrderID:   l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price.InexactFloat64(),
		}
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("marshal order event", zap.Error(err))
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(userID, 10)),
		Value: payload,
	})
	if err != nil {
		p.logger.Error("publish order event",
			zap.String("event_id", evt.EventID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("order event published",
		zap.String("event_id", evt.EventID),
		zap.Int64("user_id", userID),
		zap.Int("lines", len(lines)),
	)
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, "close kafka writer")
	}
	return nil
}
