package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/tapvote/internal/domain/entity"
	"github.com/oksasatya/tapvote/internal/domain/repository"
)

type PollRepository struct {
	q         querier
	forUpdate bool
}

func (r *PollRepository) Create(ctx context.Context, p *entity.Poll) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	var creator *string
	if p.CreatorID != "" {
		creator = &p.CreatorID
	}
	row := r.q.QueryRow(ctx, `
		INSERT INTO polls (id, title, meta_tags, creator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, p.ID, p.Title, p.MetaTags, creator)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return mapErr(err)
	}

	batch := &pgx.Batch{}
	for i, o := range p.Options {
		batch.Queue(`INSERT INTO poll_options (poll_id, position, label, votes) VALUES ($1, $2, $3, $4)`,
			p.ID, i, o.Option, o.Votes)
	}
	return r.sendBatch(ctx, batch)
}

func (r *PollRepository) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	br := r.q.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (r *PollRepository) GetByID(ctx context.Context, id string) (*entity.Poll, error) {
	p := &entity.Poll{}
	var creator *string
	row := r.q.QueryRow(ctx, `
		SELECT id, title, meta_tags, creator_id, created_at
		FROM polls
		WHERE id = $1`+lockClause(r.forUpdate), id)
	if err := row.Scan(&p.ID, &p.Title, &p.MetaTags, &creator, &p.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	if creator != nil {
		p.CreatorID = *creator
	}
	opts, err := r.options(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Options = opts[p.ID]
	return p, nil
}

func (r *PollRepository) List(ctx context.Context) ([]*entity.Poll, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, title, meta_tags, creator_id, created_at
		FROM polls
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	polls, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Poll, error) {
		p := &entity.Poll{}
		var creator *string
		if err := row.Scan(&p.ID, &p.Title, &p.MetaTags, &creator, &p.CreatedAt); err != nil {
			return nil, err
		}
		if creator != nil {
			p.CreatorID = *creator
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(polls))
	for _, p := range polls {
		ids = append(ids, p.ID)
	}
	opts, err := r.options(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range polls {
		p.Options = opts[p.ID]
	}
	if polls == nil {
		polls = []*entity.Poll{}
	}
	return polls, nil
}

func (r *PollRepository) options(ctx context.Context, pollIDs []string) (map[string][]entity.PollOption, error) {
	out := make(map[string][]entity.PollOption, len(pollIDs))
	if len(pollIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT poll_id, label, votes
		FROM poll_options
		WHERE poll_id = ANY($1)
		ORDER BY poll_id, position
	`, pollIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var pollID string
		var o entity.PollOption
		if err := rows.Scan(&pollID, &o.Option, &o.Votes); err != nil {
			return nil, err
		}
		out[pollID] = append(out[pollID], o)
	}
	return out, rows.Err()
}

func (r *PollRepository) Update(ctx context.Context, p *entity.Poll) error {
	res, err := r.q.Exec(ctx, `UPDATE polls SET title = $1, meta_tags = $2 WHERE id = $3`, p.Title, p.MetaTags, p.ID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return entity.ErrNotFound
	}
	batch := &pgx.Batch{}
	for i, o := range p.Options {
		batch.Queue(`UPDATE poll_options SET votes = $1 WHERE poll_id = $2 AND position = $3`, o.Votes, p.ID, i)
	}
	return r.sendBatch(ctx, batch)
}

var _ repository.PollRepository = (*PollRepository)(nil)
