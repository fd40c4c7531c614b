package entity

import (
	"fmt"
	"strings"
	"time"
)

// DefaultMetaTags is applied when a poll is created without tags.
var DefaultMetaTags = []string{"crypto", "tech", "general"}

type PollOption struct {
	Option string `json:"option"`
	Votes  int    `json:"votes"`
}

// Poll is a titled set of options. Option labels are the matching key
// during voting; the first exact match wins.
type Poll struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Options   []PollOption `json:"options"`
	MetaTags  []string     `json:"metaTags"`
	CreatorID string       `json:"creatorId,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewPoll builds a poll with every tally at zero.
func NewPoll(title string, options, metaTags []string) (*Poll, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrBadRequest)
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: at least one option is required", ErrBadRequest)
	}
	opts := make([]PollOption, 0, len(options))
	for _, o := range options {
		opts = append(opts, PollOption{Option: o, Votes: 0})
	}
	tags := append([]string{}, metaTags...)
	if len(tags) == 0 {
		tags = append([]string{}, DefaultMetaTags...)
	}
	return &Poll{Title: title, Options: opts, MetaTags: tags}, nil
}

// CastVote increments the tally of the first option whose label equals
// label exactly.
func (p *Poll) CastVote(label string) error {
	for i := range p.Options {
		if p.Options[i].Option == label {
			p.Options[i].Votes++
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrOptionNotFound, label)
}

// TotalVotes sums every option tally.
func (p *Poll) TotalVotes() int {
	n := 0
	for _, o := range p.Options {
		n += o.Votes
	}
	return n
}

func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	c := *p
	c.Options = append([]PollOption{}, p.Options...)
	c.MetaTags = append([]string{}, p.MetaTags...)
	return &c
}
