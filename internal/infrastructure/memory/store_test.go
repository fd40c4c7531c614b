package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oksasatya/tapvote/internal/domain/entity"
	"github.com/oksasatya/tapvote/internal/domain/repository"
)

func newUser(t *testing.T, name, phone string) *entity.User {
	t.Helper()
	u, err := entity.NewUser(name, phone, "", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestUserCreateAssignsIDAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	u := newUser(t, "alice", "1234567890")
	if err := s.Users().Create(ctx, u); err != nil {
		t.Fatal(err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("create did not assign id/timestamps: %+v", u)
	}

	if err := s.Users().Create(ctx, newUser(t, "bob", "1234567890")); !errors.Is(err, entity.ErrConflict) {
		t.Fatalf("duplicate phone: got %v", err)
	}
	if err := s.Users().Create(ctx, newUser(t, "alice", "1234567891")); !errors.Is(err, entity.ErrConflict) {
		t.Fatalf("duplicate username: got %v", err)
	}

	got, err := s.Users().GetByPhone(ctx, "1234567890")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetByPhone = %v, %v", got, err)
	}
	if _, err := s.Users().GetByID(ctx, "missing"); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("missing id: got %v", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := newUser(t, "alice", "1234567890")
	_ = s.Users().Create(ctx, u)

	got, _ := s.Users().GetByID(ctx, u.ID)
	got.Points = 999
	again, _ := s.Users().GetByID(ctx, u.ID)
	if again.Points != entity.StartingPoints {
		t.Fatalf("stored record mutated through a read: %d", again.Points)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := newUser(t, "alice", "1234567890")
	_ = s.Users().Create(ctx, u)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repository.Store) error {
		cur, err := tx.Users().GetByID(ctx, u.ID)
		if err != nil {
			return err
		}
		cur.Points -= entity.PollCreationCost
		if err := tx.Users().Update(ctx, cur); err != nil {
			return err
		}
		p, _ := entity.NewPoll("T", []string{"A"}, nil)
		if err := tx.Polls().Create(ctx, p); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx = %v, want boom", err)
	}

	got, _ := s.Users().GetByID(ctx, u.ID)
	if got.Points != entity.StartingPoints {
		t.Fatalf("debit survived rollback: %d", got.Points)
	}
	polls, _ := s.Polls().List(ctx)
	if len(polls) != 0 {
		t.Fatalf("poll survived rollback: %d", len(polls))
	}
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		err := s.InTx(ctx, func(tx repository.Store) error {
			p, _ := entity.NewPoll(title, []string{"A"}, nil)
			if err := tx.Polls().Create(ctx, p); err != nil {
				return err
			}
			ids = append(ids, p.ID)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	polls, _ := s.Polls().List(ctx)
	if len(polls) != 3 {
		t.Fatalf("len = %d", len(polls))
	}
	for i, p := range polls {
		if p.ID != ids[i] {
			t.Fatalf("list order: got %s at %d, want %s", p.ID, i, ids[i])
		}
	}
}

func TestRegenerateEnergyBulk(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	full := newUser(t, "full", "1234567890")
	low := newUser(t, "low", "1234567891")
	low.Energy = 10
	_ = s.Users().Create(ctx, full)
	_ = s.Users().Create(ctx, low)

	n, err := s.Users().RegenerateEnergy(ctx, entity.MaxEnergy)
	if err != nil || n != 1 {
		t.Fatalf("RegenerateEnergy = %d, %v; want 1", n, err)
	}
	got, _ := s.Users().GetByID(ctx, low.ID)
	if got.Energy != 11 {
		t.Fatalf("energy = %d, want 11", got.Energy)
	}
	got, _ = s.Users().GetByID(ctx, full.ID)
	if got.Energy != entity.MaxEnergy {
		t.Fatalf("energy above cap: %d", got.Energy)
	}
}

func TestIdempotencyStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewIdempotencyStore()
	s.now = func() time.Time { return now }

	rec := repository.IdempotencyRecord{RequestHash: "h", PollID: "p", RemainingPoints: 45}
	_ = s.Put(ctx, "k", rec, time.Hour)
	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || got != rec {
		t.Fatalf("Get = %+v, %v, %v", got, ok, err)
	}

	now = now.Add(2 * time.Hour)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("record should have expired")
	}
}

func TestGetByIDMatchesExactly(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := newUser(t, "alice", "1234567890")
	_ = s.Users().Create(ctx, u)
	p, _ := entity.NewPoll("T", []string{"A"}, nil)
	_ = s.Polls().Create(ctx, p)

	if _, err := s.Users().GetByID(ctx, " "+u.ID); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("padded user id: got %v, want ErrNotFound", err)
	}
	if _, err := s.Polls().GetByID(ctx, p.ID+" "); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("padded poll id: got %v, want ErrNotFound", err)
	}
}
