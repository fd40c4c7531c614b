package entity

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	StartingPoints   = 50
	MaxEnergy        = 1000
	DailyTapLimit    = 100
	PollCreationCost = 5
	DefaultAvatar    = "default-avatar.png"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// User is the aggregate root of the tap economy.
//
// TapClicksToday only means something relative to LastClickDate: it counts
// the taps already recorded for that calendar day.
type User struct {
	ID             string
	Username       string
	Phone          string
	Points         int
	Energy         int
	TapClicksToday int
	LastClickDate  *time.Time
	VotedPolls     []string
	Avatar         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidatePhone reports ErrInvalidFormat unless phone is exactly ten digits.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: %q is not a valid phone number", ErrInvalidFormat, phone)
	}
	return nil
}

// NewUser builds a freshly signed-up user. today must already be a calendar
// day (see helpers.CalendarDay).
func NewUser(username, phone, avatar string, today time.Time) (*User, error) {
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrBadRequest)
	}
	if strings.TrimSpace(avatar) == "" {
		avatar = DefaultAvatar
	}
	return &User{
		Username:       username,
		Phone:          phone,
		Points:         StartingPoints,
		Energy:         MaxEnergy,
		TapClicksToday: 0,
		LastClickDate:  &today,
		VotedPolls:     []string{},
		Avatar:         avatar,
	}, nil
}

// RollOver resets the daily tap counter when today differs from the day of
// the last tap. It reports whether a reset happened.
func (u *User) RollOver(today time.Time) bool {
	if u.LastClickDate != nil && sameDate(*u.LastClickDate, today) {
		return false
	}
	day := today
	u.TapClicksToday = 0
	u.LastClickDate = &day
	return true
}

// Tap applies one tap for today. The day rollover is applied first and stays
// applied even when the tap itself is rejected. The daily cap is checked
// before energy.
func (u *User) Tap(today time.Time) (rolledOver bool, err error) {
	rolledOver = u.RollOver(today)
	if u.TapClicksToday >= DailyTapLimit {
		return rolledOver, ErrDailyLimitReached
	}
	if u.Energy <= 0 {
		return rolledOver, ErrInsufficientEnergy
	}
	u.Points++
	u.TapClicksToday++
	u.Energy--
	return rolledOver, nil
}

// RegenerateEnergy adds one unit of energy up to MaxEnergy. It reports
// whether the balance changed.
func (u *User) RegenerateEnergy() bool {
	if u.Energy >= MaxEnergy {
		return false
	}
	u.Energy++
	return true
}

// ChargePollCreation debits the cost of creating a poll.
func (u *User) ChargePollCreation() error {
	if u.Points < PollCreationCost {
		return fmt.Errorf("%w: %d points required, have %d", ErrInsufficientFunds, PollCreationCost, u.Points)
	}
	u.Points -= PollCreationCost
	return nil
}

func (u *User) HasVoted(pollID string) bool {
	for _, id := range u.VotedPolls {
		if id == pollID {
			return true
		}
	}
	return false
}

// RecordVote appends pollID to the voted set.
func (u *User) RecordVote(pollID string) error {
	if u.HasVoted(pollID) {
		return ErrAlreadyVoted
	}
	u.VotedPolls = append(u.VotedPolls, pollID)
	return nil
}

// Clone returns a deep copy so stored records never alias caller memory.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastClickDate != nil {
		d := *u.LastClickDate
		c.LastClickDate = &d
	}
	c.VotedPolls = append([]string{}, u.VotedPolls...)
	return &c
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
