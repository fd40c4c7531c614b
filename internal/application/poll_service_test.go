package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oksasatya/tapvote/internal/domain/entity"
	"github.com/oksasatya/tapvote/internal/infrastructure/memory"
	"github.com/oksasatya/tapvote/pkg/helpers"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []PollEvent
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, body.(PollEvent))
	return nil
}

type pollFixture struct {
	economy *EconomyService
	polls   *PollService
	events  *recordingPublisher
}

func newPollFixture(t *testing.T) *pollFixture {
	t.Helper()
	store := memory.NewStore()
	logger := helpers.DiscardLogger()
	pub := &recordingPublisher{}
	eco := NewEconomyService(store, nil, logger, time.UTC)
	eco.Now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return &pollFixture{
		economy: eco,
		polls:   NewPollService(store, memory.NewIdempotencyStore(), time.Hour, pub, nil, logger),
		events:  pub,
	}
}

func (f *pollFixture) points(t *testing.T, userID string) int {
	t.Helper()
	u, err := f.economy.GetUser(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	return u.Points
}

func TestCreatePollDebitsCreator(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()
	u := mustSignup(t, f.economy, "alice", "1234567890")

	res, err := f.polls.CreatePoll(ctx, CreatePollInput{UserID: u.ID, Title: "Best L1?", Options: []string{"A", "B"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.RemainingPoints != 45 || f.points(t, u.ID) != 45 {
		t.Fatalf("remaining = %d, stored = %d, want 45", res.RemainingPoints, f.points(t, u.ID))
	}
	if res.Poll.ID == "" || res.Poll.CreatorID != u.ID || len(res.Poll.MetaTags) != 3 {
		t.Fatalf("unexpected poll: %+v", res.Poll)
	}
	if len(f.events.events) != 1 || f.events.events[0].Type != EventPollCreated {
		t.Fatalf("events = %+v", f.events.events)
	}
}

func TestCreatePollInsufficientFunds(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()
	u := mustSignup(t, f.economy, "alice", "1234567890")

	for i := 0; i < 10; i++ {
		if _, err := f.polls.CreatePoll(ctx, CreatePollInput{UserID: u.ID, Title: "T", Options: []string{"A"}}); err != nil {
			t.Fatalf("poll %d: %v", i+1, err)
		}
	}
	if got := f.points(t, u.ID); got != 0 {
		t.Fatalf("points = %d, want 0", got)
	}

	_, err := f.polls.CreatePoll(ctx, CreatePollInput{UserID: u.ID, Title: "T", Options: []string{"A"}})
	if !errors.Is(err, entity.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
	polls, _ := f.polls.ListPolls(ctx)
	if len(polls) != 10 {
		t.Fatalf("rejected creation stored a poll: %d", len(polls))
	}
}

func TestCreatePollValidation(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()
	u := mustSignup(t, f.economy, "alice", "1234567890")

	tests := []struct {
		name string
		in   CreatePollInput
		want error
	}{
		{"no options", CreatePollInput{UserID: u.ID, Title: "T"}, entity.ErrBadRequest},
		{"blank title", CreatePollInput{UserID: u.ID, Title: " ", Options: []string{"A"}}, entity.ErrBadRequest},
		{"blank user", CreatePollInput{Title: "T", Options: []string{"A"}}, entity.ErrBadRequest},
		{"unknown user", CreatePollInput{UserID: "nope", Title: "T", Options: []string{"A"}}, entity.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.polls.CreatePoll(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
	if got := f.points(t, u.ID); got != entity.StartingPoints {
		t.Fatalf("failed creations charged points: %d", got)
	}
}

func TestCreatePollIdempotencyKey(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()
	u := mustSignup(t, f.economy, "alice", "1234567890")
	in := CreatePollInput{UserID: u.ID, Title: "T", Options: []string{"A", "B"}, IdempotencyKey: "k1"}

	first, err := f.polls.CreatePoll(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.polls.CreatePoll(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Replayed || second.Poll.ID != first.Poll.ID || second.RemainingPoints != 45 {
		t.Fatalf("replay = %+v", second)
	}
	if got := f.points(t, u.ID); got != 45 {
		t.Fatalf("replay charged again: %d", got)
	}

	in.Title = "different"
	if _, err := f.polls.CreatePoll(ctx, in); !errors.Is(err, entity.ErrConflict) {
		t.Fatalf("reused key with new payload: got %v", err)
	}
}

func TestVote(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()
	creator := mustSignup(t, f.economy, "alice", "1234567890")
	voter := mustSignup(t, f.economy, "bob", "1234567891")
	created, err := f.polls.CreatePoll(ctx, CreatePollInput{UserID: creator.ID, Title: "T", Options: []string{"A", "B"}})
	if err != nil {
		t.Fatal(err)
	}
	pollID := created.Poll.ID

	res, err := f.polls.Vote(ctx, voter.ID, pollID, "B")
	if err != nil {
		t.Fatal(err)
	}
	if res.Poll.Options[1].Votes != 1 || res.Points != entity.StartingPoints {
		t.Fatalf("vote result = %+v", res)
	}
	u, _ := f.economy.GetUser(ctx, voter.ID)
	if !u.HasVoted(pollID) {
		t.Fatal("vote not recorded on user")
	}

	if _, err := f.polls.Vote(ctx, voter.ID, pollID, "A"); !errors.Is(err, entity.ErrAlreadyVoted) {
		t.Fatalf("second vote: got %v", err)
	}
	// already-voted wins over a bad option
	if _, err := f.polls.Vote(ctx, voter.ID, pollID, "Z"); !errors.Is(err, entity.ErrAlreadyVoted) {
		t.Fatalf("second vote, bad option: got %v", err)
	}

	p, _ := f.polls.GetPoll(ctx, pollID)
	if p.TotalVotes() != 1 {
		t.Fatalf("total = %d, want 1", p.TotalVotes())
	}
	last := f.events.events[len(f.events.events)-1]
	if last.Type != EventPollVoted || last.Option != "B" || last.UserID != voter.ID {
		t.Fatalf("last event = %+v", last)
	}
}

func TestVoteErrors(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()
	u := mustSignup(t, f.economy, "alice", "1234567890")
	created, _ := f.polls.CreatePoll(ctx, CreatePollInput{UserID: u.ID, Title: "T", Options: []string{"A"}})

	tests := []struct {
		name           string
		user, poll, op string
		want           error
	}{
		{"missing option", u.ID, created.Poll.ID, "", entity.ErrBadRequest},
		{"missing poll id", u.ID, "", "A", entity.ErrBadRequest},
		{"unknown user", "nope", created.Poll.ID, "A", entity.ErrNotFound},
		{"unknown poll", u.ID, "nope", "A", entity.ErrNotFound},
		{"unknown option", u.ID, created.Poll.ID, "Z", entity.ErrOptionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.polls.Vote(ctx, tt.user, tt.poll, tt.op); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}

	p, _ := f.polls.GetPoll(ctx, created.Poll.ID)
	if p.TotalVotes() != 0 {
		t.Fatalf("rejected votes changed tallies: %d", p.TotalVotes())
	}
	usr, _ := f.economy.GetUser(ctx, u.ID)
	if usr.HasVoted(created.Poll.ID) {
		t.Fatal("rejected vote recorded on user")
	}
}

func TestVoteConcurrentSingleCount(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()
	u := mustSignup(t, f.economy, "alice", "1234567890")
	created, _ := f.polls.CreatePoll(ctx, CreatePollInput{UserID: u.ID, Title: "T", Options: []string{"A"}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.polls.Vote(ctx, u.ID, created.Poll.ID, "A")
		}()
	}
	wg.Wait()

	p, _ := f.polls.GetPoll(ctx, created.Poll.ID)
	if p.TotalVotes() != 1 {
		t.Fatalf("total = %d, want 1", p.TotalVotes())
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	f := newPollFixture(t)
	f.events.err = errors.New("broker down")
	u := mustSignup(t, f.economy, "alice", "1234567890")
	if _, err := f.polls.CreatePoll(context.Background(), CreatePollInput{UserID: u.ID, Title: "T", Options: []string{"A"}}); err != nil {
		t.Fatalf("got %v", err)
	}
}

func TestGetPollNotFound(t *testing.T) {
	f := newPollFixture(t)
	_, err := f.polls.GetPoll(context.Background(), "nope")
	if !errors.Is(err, entity.ErrNotFound) || err.Error() != "poll not found" {
		t.Fatalf("got %v", err)
	}
}

func TestSearchDisabledReturnsEmpty(t *testing.T) {
	f := newPollFixture(t)
	docs, err := f.polls.SearchPolls(context.Background(), "crypto", 10)
	if err != nil || len(docs) != 0 {
		t.Fatalf("SearchPolls = %v, %v", docs, err)
	}
}

func TestHandleMessageRejectsBadEvents(t *testing.T) {
	idx := NewPollIndex(nil, "polls", helpers.DiscardLogger())
	for _, body := range []string{"not json", `{"type":"poll.created"}`, `{"poll":{"id":""}}`} {
		if err := idx.HandleMessage(context.Background(), []byte(body)); !errors.Is(err, ErrBadEvent) {
			t.Fatalf("HandleMessage(%q) = %v, want ErrBadEvent", body, err)
		}
	}

	ev := PollEvent{Type: EventPollCreated, Poll: &entity.Poll{ID: "p1", Title: "T"}}
	b, _ := json.Marshal(ev)
	if err := idx.HandleMessage(context.Background(), b); err != nil {
		t.Fatalf("disabled index should accept a valid event: %v", err)
	}
}

func TestNewPollDocument(t *testing.T) {
	p, _ := entity.NewPoll("Best L1?", []string{"A", "B"}, []string{"crypto"})
	p.ID = "p1"
	_ = p.CastVote("A")
	doc := NewPollDocument(p)
	if doc.ID != "p1" || doc.TotalVotes != 1 || len(doc.Options) != 2 || doc.Options[1] != "B" {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestCreatePollReplayTreatsNilAndEmptyTagsAlike(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()
	u := mustSignup(t, f.economy, "alice", "1234567890")

	first, err := f.polls.CreatePoll(ctx, CreatePollInput{UserID: u.ID, Title: "T", Options: []string{"A"}, IdempotencyKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	again, err := f.polls.CreatePoll(ctx, CreatePollInput{UserID: u.ID, Title: "T", Options: []string{"A"}, MetaTags: []string{}, IdempotencyKey: "k"})
	if err != nil {
		t.Fatalf("replay with empty tags: %v", err)
	}
	if !again.Replayed || again.Poll.ID != first.Poll.ID {
		t.Fatalf("replay = %+v", again)
	}
	if got := f.points(t, u.ID); got != 45 {
		t.Fatalf("points = %d, want 45", got)
	}
}

func TestHashCreatePoll(t *testing.T) {
	base := CreatePollInput{UserID: "u", Title: "T", Options: []string{"A"}}
	withEmpty := base
	withEmpty.MetaTags = []string{}
	if hashCreatePoll(base) != hashCreatePoll(withEmpty) {
		t.Fatal("nil and empty tags hash differently")
	}
	withTag := base
	withTag.MetaTags = []string{"defi"}
	if hashCreatePoll(base) == hashCreatePoll(withTag) {
		t.Fatal("different tags hash the same")
	}
	noOpts := CreatePollInput{UserID: "u", Title: "T"}
	emptyOpts := CreatePollInput{UserID: "u", Title: "T", Options: []string{}}
	if hashCreatePoll(noOpts) != hashCreatePoll(emptyOpts) {
		t.Fatal("nil and empty options hash differently")
	}
}

func TestClampSearchSize(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, 10},
		{0, 10},
		{1, 1},
		{25, 25},
		{50, 50},
		{51, 50},
		{1000, 50},
	}
	for _, tt := range tests {
		if got := clampSearchSize(tt.in); got != tt.want {
			t.Errorf("clampSearchSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
