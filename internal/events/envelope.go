package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	kafkax "community-portal/internal/kafka"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventVoteCreated        = "VoteCreated"
	EventBallotCast         = "BallotCast"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, producer, traceID, correlationID string, payload any) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
}

// ---- payloads ----

type OrderLineRef struct {
	MenuItemID int64  `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID    int64          `json:"order_id"`
	UserID     int64          `json:"user_id"`
	TotalPrice string         `json:"total_price"`
	Lines      []OrderLineRef `json:"lines"`
}

type OrderStatusChangedPayload struct {
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

type VoteCreatedPayload struct {
	VoteID  int64    `json:"vote_id"`
	Title   string   `json:"title"`
	Options []string `json:"options"`
}

type BallotCastPayload struct {
	VoteID int64  `json:"vote_id"`
	UserID int64  `json:"user_id"`
	Option string `json:"option"`
}
