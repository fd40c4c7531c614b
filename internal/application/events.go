package application

import (
	"context"
	"time"

	"github.com/oksasatya/tapvote/internal/domain/entity"
)

const (
	EventPollCreated = "poll.created"
	EventPollVoted   = "poll.voted"
)

// PollEvent is the JSON payload put on the poll events queue.
type PollEvent struct {
	Type       string       `json:"type"`
	Poll       *entity.Poll `json:"poll"`
	UserID     string       `json:"user_id"`
	Option     string       `json:"option,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// EventPublisher is satisfied by helpers.RabbitPublisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}
