package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/tapvote/internal/domain/entity"
	"github.com/oksasatya/tapvote/internal/domain/repository"
)

type UserRepository struct {
	q         querier
	forUpdate bool
}

const userColumns = `id, username, phone, points, energy, tap_clicks_today, last_click_date, avatar, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.q.QueryRow(ctx, `
		INSERT INTO users (id, username, phone, points, energy, tap_clicks_today, last_click_date, avatar)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, u.ID, u.Username, u.Phone, u.Points, u.Energy, u.TapClicksToday, u.LastClickDate, u.Avatar)

	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapErr(err)
	}
	return r.insertVotes(ctx, u)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE phone = $1`, phone)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where+lockClause(r.forUpdate), arg)

	var last *time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.Phone, &u.Points, &u.Energy, &u.TapClicksToday,
		&last, &u.Avatar, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	u.LastClickDate = last

	votes, err := r.votedPolls(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.VotedPolls = votes
	return u, nil
}

func (r *UserRepository) votedPolls(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT poll_id FROM user_voted_polls
		WHERE user_id = $1
		ORDER BY voted_at, poll_id
	`, userID)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.q.Exec(ctx, `
		UPDATE users
		SET username = $1, phone = $2, points = $3, energy = $4, tap_clicks_today = $5,
		    last_click_date = $6, avatar = $7, updated_at = $8
		WHERE id = $9
	`, u.Username, u.Phone, u.Points, u.Energy, u.TapClicksToday, u.LastClickDate, u.Avatar, u.UpdatedAt, u.ID)
	if err != nil {
		return mapErr(err)
	}

	if res.RowsAffected() == 0 {
		return entity.ErrNotFound
	}

	return r.insertVotes(ctx, u)
}

// insertVotes persists the voted set. The set is append-only, so existing
// pairs are left alone.
func (r *UserRepository) insertVotes(ctx context.Context, u *entity.User) error {
	if len(u.VotedPolls) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_voted_polls (user_id, poll_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (user_id, poll_id) DO NOTHING
	`, u.ID, u.VotedPolls)
	return mapErr(err)
}

func (r *UserRepository) RegenerateEnergy(ctx context.Context, max int) (int64, error) {
	res, err := r.q.Exec(ctx, `
		UPDATE users SET energy = energy + 1, updated_at = now()
		WHERE energy < $1
	`, max)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
