package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/cinema-booking/internal/config"
)

// Publisher sends OrderCompletedEvent messages to the rewards queue.  A
// connection is dialed per publish; order placement is not hot enough to
// warrant a pooled channel and this keeps the publisher free of
// reconnect state.
type Publisher struct {
    cfg  config.QueueConfig
    dial func(url string) (*amqp.Connection, error)
}

// NewPublisher returns a Publisher for cfg.
func NewPublisher(cfg config.QueueConfig) *Publisher {
    return &Publisher{cfg: cfg, dial: amqp.Dial}
}

// NotifyOrderCompleted publishes one persistent message.  Errors are
// returned to the caller, which logs them; they never affect the order.
func (p *Publisher) NotifyOrderCompleted(ctx context.Context, userID uint64, total decimal.Decimal, orderID uint64) error {
    ev := OrderCompletedEvent{
        EventID:     uuid.NewString(),
        OrderID:     orderID,
        UserID:      userID,
        Total:       total,
        CompletedAt: time.Now().UTC().Format(time.RFC3339),
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    if p.cfg.PublishTimeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, p.cfg.PublishTimeout)
        defer cancel()
    }

    conn, err := p.dial(p.cfg.URL)
    if err != nil {
        return fmt.Errorf("dial broker: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := declareQueue(ch, p.cfg.Queue); err != nil {
        return err
    }

    return ch.PublishWithContext(ctx,
        "",          // default exchange
        p.cfg.Queue, // routing key = queue name
        false,       // mandatory
        false,       // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            MessageId:    ev.EventID,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        },
    )
}

// declareQueue declares the durable rewards queue.  Publisher and consumer
// must agree on its arguments or the broker rejects the second declare.
func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
    q, err := ch.QueueDeclare(name, true, false, false, false, nil)
    if err != nil {
        return q, fmt.Errorf("queue declare: %w", err)
    }
    return q, nil
}
