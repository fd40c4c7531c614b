package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tapvote/internal/domain/entity"
	repo "github.com/oksasatya/tapvote/internal/domain/repository"
	"github.com/oksasatya/tapvote/pkg/helpers"
)

// PollService manages the poll lifecycle: creation paid for with points and
// one-vote-per-user tallying.
type PollService struct {
	Store          repo.Store
	Idempotency    repo.IdempotencyStore
	IdempotencyTTL time.Duration
	Events         EventPublisher
	Search         *PollIndex
	Logger         *logrus.Logger
}

func NewPollService(store repo.Store, idem repo.IdempotencyStore, idemTTL time.Duration, events EventPublisher, search *PollIndex, logger *logrus.Logger) *PollService {
	return &PollService{
		Store:          store,
		Idempotency:    idem,
		IdempotencyTTL: idemTTL,
		Events:         events,
		Search:         search,
		Logger:         logger,
	}
}

type CreatePollInput struct {
	UserID         string
	Title          string
	Options        []string
	MetaTags       []string
	IdempotencyKey string
}

type CreatePollResult struct {
	Poll            *entity.Poll
	RemainingPoints int
	Replayed        bool
}

type VoteResult struct {
	Poll   *entity.Poll
	Points int
}

// CreatePoll debits the creator and inserts the poll in one transaction, so
// either both happen or neither does. With an idempotency key, a replay of
// the same request returns the first result without charging again.
func (s *PollService) CreatePoll(ctx context.Context, in CreatePollInput) (CreatePollResult, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return CreatePollResult{}, fmt.Errorf("%w: userId is required", entity.ErrBadRequest)
	}
	poll, err := entity.NewPoll(in.Title, in.Options, in.MetaTags)
	if err != nil {
		return CreatePollResult{}, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	hash := hashCreatePoll(in)
	if key != "" && s.Idempotency != nil {
		rec, found, err := s.Idempotency.Get(ctx, key)
		if err != nil {
			return CreatePollResult{}, s.fail("idempotency lookup failed", err, logrus.Fields{"user_id": in.UserID})
		}
		if found {
			if rec.RequestHash != hash {
				return CreatePollResult{}, fmt.Errorf("%w: idempotency key reused with a different request", entity.ErrConflict)
			}
			p, err := s.Store.Polls().GetByID(ctx, rec.PollID)
			if err != nil {
				return CreatePollResult{}, s.fail("idempotent replay lookup failed", err, logrus.Fields{"poll_id": rec.PollID})
			}
			return CreatePollResult{Poll: p, RemainingPoints: rec.RemainingPoints, Replayed: true}, nil
		}
	}

	var remaining int
	err = s.Store.InTx(ctx, func(tx repo.Store) error {
		u, err := tx.Users().GetByID(ctx, in.UserID)
		if err != nil {
			return subject("user", err)
		}
		if err := u.ChargePollCreation(); err != nil {
			return err
		}
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		poll.CreatorID = u.ID
		remaining = u.Points
		return tx.Polls().Create(ctx, poll)
	})
	if err != nil {
		return CreatePollResult{}, s.fail("create poll failed", err, logrus.Fields{"user_id": in.UserID})
	}

	if key != "" && s.Idempotency != nil {
		rec := repo.IdempotencyRecord{RequestHash: hash, PollID: poll.ID, RemainingPoints: remaining}
		if err := s.Idempotency.Put(ctx, key, rec, s.IdempotencyTTL); err != nil {
			helpers.LogWarn(s.Logger, "idempotency record not stored", err, logrus.Fields{"poll_id": poll.ID})
		}
	}

	metricPollsCreated.Add(1)
	helpers.LogInfo(s.Logger, "poll created", logrus.Fields{"poll_id": poll.ID, "user_id": in.UserID, "remaining_points": remaining})
	s.publish(ctx, PollEvent{Type: EventPollCreated, Poll: poll, UserID: in.UserID, OccurredAt: time.Now().UTC()})
	return CreatePollResult{Poll: poll, RemainingPoints: remaining}, nil
}

// Vote records one vote for optionLabel. The already-voted check runs
// before the option lookup. Voting neither costs nor earns points.
func (s *PollService) Vote(ctx context.Context, userID, pollID, optionLabel string) (VoteResult, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(pollID) == "" || optionLabel == "" {
		return VoteResult{}, fmt.Errorf("%w: option, userId, and pollId are required", entity.ErrBadRequest)
	}

	var out VoteResult
	err := s.Store.InTx(ctx, func(tx repo.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return subject("user", err)
		}
		p, err := tx.Polls().GetByID(ctx, pollID)
		if err != nil {
			return subject("poll", err)
		}
		if u.HasVoted(p.ID) {
			return entity.ErrAlreadyVoted
		}
		if err := p.CastVote(optionLabel); err != nil {
			return err
		}
		if err := u.RecordVote(p.ID); err != nil {
			return err
		}
		if err := tx.Polls().Update(ctx, p); err != nil {
			return err
		}
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		out = VoteResult{Poll: p, Points: u.Points}
		return nil
	})
	if err != nil {
		if IsDomainError(err) {
			metricVotesRejected.Add(1)
		}
		return VoteResult{}, s.fail("vote failed", err, logrus.Fields{"user_id": userID, "poll_id": pollID})
	}

	metricVotes.Add(1)
	s.publish(ctx, PollEvent{Type: EventPollVoted, Poll: out.Poll, UserID: userID, Option: optionLabel, OccurredAt: time.Now().UTC()})
	return out, nil
}

// ListPolls returns every poll in insertion order.
func (s *PollService) ListPolls(ctx context.Context) ([]*entity.Poll, error) {
	polls, err := s.Store.Polls().List(ctx)
	if err != nil {
		return nil, s.fail("list polls failed", err, nil)
	}
	return polls, nil
}

func (s *PollService) GetPoll(ctx context.Context, pollID string) (*entity.Poll, error) {
	if strings.TrimSpace(pollID) == "" {
		return nil, fmt.Errorf("%w: pollId is required", entity.ErrBadRequest)
	}
	p, err := s.Store.Polls().GetByID(ctx, pollID)
	if err != nil {
		return nil, s.fail("get poll failed", subject("poll", err), logrus.Fields{"poll_id": pollID})
	}
	return p, nil
}

// SearchPolls queries the search index; it returns nothing when search is
// not configured.
func (s *PollService) SearchPolls(ctx context.Context, q string, size int) ([]PollDocument, error) {
	docs, err := s.Search.Search(ctx, q, size)
	if err != nil {
		return nil, s.fail("poll search failed", err, logrus.Fields{"q": q})
	}
	return docs, nil
}

// publish emits ev after commit. Without a queue the poll is indexed
// directly. Failures are logged only.
func (s *PollService) publish(ctx context.Context, ev PollEvent) {
	if s.Events == nil {
		if s.Search.Enabled() {
			_ = s.Search.IndexPoll(ctx, ev.Poll)
		}
		return
	}
	if err := s.Events.PublishJSON(ctx, ev); err != nil {
		metricEventsFailed.Add(1)
		helpers.LogWarn(s.Logger, "failed to publish poll event", err, logrus.Fields{"type": ev.Type, "poll_id": ev.Poll.ID})
		return
	}
	metricEventsPublished.Add(1)
}

func (s *PollService) fail(msg string, err error, fields logrus.Fields) error {
	err = classify(err)
	if errors.Is(err, ErrStorage) {
		helpers.LogError(s.Logger, msg, err, fields)
	}
	return err
}

// hashCreatePoll fingerprints a create request. Nil and empty slices hash
// the same.
func hashCreatePoll(in CreatePollInput) string {
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	b, _ := json.Marshal(struct {
		UserID   string   `json:"user_id"`
		Title    string   `json:"title"`
		Options  []string `json:"options"`
		MetaTags []string `json:"meta_tags"`
	}{in.UserID, in.Title, nonNil(in.Options), nonNil(in.MetaTags)})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
