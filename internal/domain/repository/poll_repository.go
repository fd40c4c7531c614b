package repository

import (
	"context"

	"github.com/oksasatya/tapvote/internal/domain/entity"
)

type PollRepository interface {
	Create(ctx context.Context, p *entity.Poll) error
	GetByID(ctx context.Context, id string) (*entity.Poll, error)
	// List returns every poll in insertion order.
	List(ctx context.Context) ([]*entity.Poll, error)
	// Update persists the option tallies of an existing poll.
	Update(ctx context.Context, p *entity.Poll) error
}
