package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/tapvote/internal/domain/entity"
	"github.com/oksasatya/tapvote/internal/domain/repository"
)

type dataset struct {
	users     map[string]*entity.User
	polls     map[string]*entity.Poll
	pollOrder []string
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		users:     make(map[string]*entity.User, len(d.users)),
		polls:     make(map[string]*entity.Poll, len(d.polls)),
		pollOrder: append([]string{}, d.pollOrder...),
	}
	for id, u := range d.users {
		c.users[id] = u.Clone()
	}
	for id, p := range d.polls {
		c.polls[id] = p.Clone()
	}
	return c
}

// view runs fn against a dataset. The root store locks around every call;
// a transaction view works on its private copy.
type view interface {
	with(fn func(d *dataset) error) error
}

// Store is an in-process repository.Store. Transactions are serialized by a
// single mutex and commit by swapping in the mutated copy.
type Store struct {
	mu   sync.Mutex
	data *dataset
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: &dataset{users: map[string]*entity.User{}, polls: map[string]*entity.Poll{}},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) with(fn func(d *dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) Users() repository.UserRepository { return &userRepo{v: s, now: s.now} }
func (s *Store) Polls() repository.PollRepository { return &pollRepo{v: s, now: s.now} }

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &txStore{data: s.data.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

type txStore struct {
	data *dataset
	now  func() time.Time
}

func (t *txStore) with(fn func(d *dataset) error) error { return fn(t.data) }

func (t *txStore) Users() repository.UserRepository { return &userRepo{v: t, now: t.now} }
func (t *txStore) Polls() repository.PollRepository { return &pollRepo{v: t, now: t.now} }

// InTx on an open transaction joins it.
func (t *txStore) InTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

type userRepo struct {
	v   view
	now func() time.Time
}

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	return r.v.with(func(d *dataset) error {
		for _, existing := range d.users {
			if existing.Phone == u.Phone || existing.Username == u.Username {
				return entity.ErrConflict
			}
		}
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		now := r.now()
		u.CreatedAt, u.UpdatedAt = now, now
		d.users[u.ID] = u.Clone()
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id })
}

func (r *userRepo) GetByPhone(_ context.Context, phone string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Phone == phone })
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username })
}

func (r *userRepo) find(match func(u *entity.User) bool) (*entity.User, error) {
	var out *entity.User
	err := r.v.with(func(d *dataset) error {
		for _, u := range d.users {
			if match(u) {
				out = u.Clone()
				return nil
			}
		}
		return entity.ErrNotFound
	})
	return out, err
}

func (r *userRepo) Update(_ context.Context, u *entity.User) error {
	return r.v.with(func(d *dataset) error {
		if _, ok := d.users[u.ID]; !ok {
			return entity.ErrNotFound
		}
		u.UpdatedAt = r.now()
		d.users[u.ID] = u.Clone()
		return nil
	})
}

func (r *userRepo) RegenerateEnergy(_ context.Context, max int) (int64, error) {
	var n int64
	err := r.v.with(func(d *dataset) error {
		for _, u := range d.users {
			if u.Energy < max {
				u.Energy++
				u.UpdatedAt = r.now()
				n++
			}
		}
		return nil
	})
	return n, err
}

type pollRepo struct {
	v   view
	now func() time.Time
}

func (r *pollRepo) Create(_ context.Context, p *entity.Poll) error {
	return r.v.with(func(d *dataset) error {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, ok := d.polls[p.ID]; ok {
			return entity.ErrConflict
		}
		p.CreatedAt = r.now()
		d.polls[p.ID] = p.Clone()
		d.pollOrder = append(d.pollOrder, p.ID)
		return nil
	})
}

func (r *pollRepo) GetByID(_ context.Context, id string) (*entity.Poll, error) {
	var out *entity.Poll
	err := r.v.with(func(d *dataset) error {
		p, ok := d.polls[id]
		if !ok {
			return entity.ErrNotFound
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

func (r *pollRepo) List(_ context.Context) ([]*entity.Poll, error) {
	var out []*entity.Poll
	err := r.v.with(func(d *dataset) error {
		out = make([]*entity.Poll, 0, len(d.pollOrder))
		for _, id := range d.pollOrder {
			out = append(out, d.polls[id].Clone())
		}
		return nil
	})
	return out, err
}

func (r *pollRepo) Update(_ context.Context, p *entity.Poll) error {
	return r.v.with(func(d *dataset) error {
		if _, ok := d.polls[p.ID]; !ok {
			return entity.ErrNotFound
		}
		d.polls[p.ID] = p.Clone()
		return nil
	})
}

var _ repository.Store = (*Store)(nil)
