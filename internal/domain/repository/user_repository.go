package repository

import (
	"context"

	"github.com/oksasatya/tapvote/internal/domain/entity"
)

// UserRepository defines the persistence operations on users.
// Lookups return entity.ErrNotFound when nothing matches and Create returns
// entity.ErrConflict when a unique field is taken.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	// RegenerateEnergy adds one unit of energy to every user below max and
	// returns how many users changed.
	RegenerateEnergy(ctx context.Context, max int) (int64, error)
}
