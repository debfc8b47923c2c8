package queue

import (
    "context"
    "encoding/json"
    "errors"
    "os"
    "path/filepath"
    "testing"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/cinema-booking/internal/config"
)

func TestConsumer_HandleAppendsBookingLog(t *testing.T) {
    dir := t.TempDir()
    c := NewConsumer(config.QueueConfig{LogDir: dir}, zap.NewNop())

    body, err := json.Marshal(OrderCompletedEvent{
        EventID: "ev-1", OrderID: 12, UserID: 3,
        Total: decimal.RequireFromString("33.8"), CompletedAt: "2025-06-01T18:00:00Z",
    })
    require.NoError(t, err)
    require.NoError(t, c.Handle(body))
    require.NoError(t, c.Handle(body))

    data, err := os.ReadFile(filepath.Join(dir, "booking.log"))
    require.NoError(t, err)
    line := "[2025-06-01T18:00:00Z] Order completed | order_id=12 | user_id=3 | total=33.80 | event_id=ev-1\n"
    assert.Equal(t, line+line, string(data))
}

func TestConsumer_HandleRejectsBadMessages(t *testing.T) {
    c := NewConsumer(config.QueueConfig{LogDir: t.TempDir()}, zap.NewNop())
    assert.Error(t, c.Handle([]byte("not json")))
    assert.Error(t, c.Handle([]byte(`{"event_id":"x","total":"1"}`)))
}

func TestPublisher_DialFailureIsReturned(t *testing.T) {
    p := NewPublisher(config.QueueConfig{URL: "amqp://nowhere", Queue: "order.completed"})
    p.dial = func(string) (*amqp.Connection, error) { return nil, errors.New("connection refused") }

    err := p.NotifyOrderCompleted(context.Background(), 1, decimal.NewFromInt(10), 2)
    assert.ErrorContains(t, err, "connection refused")
}

func TestOrderCompletedEvent_TotalIsJSONString(t *testing.T) {
    b, err := json.Marshal(OrderCompletedEvent{OrderID: 1, UserID: 2, Total: decimal.RequireFromString("10.50")})
    require.NoError(t, err)
    assert.Contains(t, string(b), `"total":"10.5"`)
}
