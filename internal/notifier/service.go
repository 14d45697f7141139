package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"community-portal/internal/events"
	"community-portal/internal/feedback"
	kafkax "community-portal/internal/kafka"
	"community-portal/internal/redisx"
)

// Service turns order-status events into feedback messages in the order
// owner's conversation, so the portal's message page doubles as an order
// status feed.
type Service struct {
	Feedback    *feedback.Repo
	Redis       *redis.Client
	ServiceName string
	Logger      *zap.SugaredLogger
}

func (s *Service) HandleOrderStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != events.EventOrderStatusChanged {
		return nil
	}

	// dedup by event id; redelivery must not double-post
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[events.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Your order #%d is now %s.", p.OrderID, p.NewStatus)
	if _, err := s.Feedback.CreateAdminMessage(ctx, p.UserID, msg); err != nil {
		return err
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	s.Logger.Infow("order status notice posted", "order_id", p.OrderID, "user_id", p.UserID, "status", p.NewStatus)
	return nil
}
