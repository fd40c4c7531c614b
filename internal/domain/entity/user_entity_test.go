package entity

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		ok    bool
	}{
		{"1234567890", true},
		{"0000000000", true},
		{"123456789", false},
		{"12345678901", false},
		{"12345abcde", false},
		{"", false},
		{"+123456789", false},
		{"123 456 78", false},
	}
	for _, tt := range tests {
		err := ValidatePhone(tt.phone)
		if tt.ok && err != nil {
			t.Errorf("ValidatePhone(%q) = %v, want nil", tt.phone, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ValidatePhone(%q) = %v, want ErrInvalidFormat", tt.phone, err)
		}
	}
}

func TestNewUser(t *testing.T) {
	today := day(2024, 3, 1)
	u, err := NewUser("alice", "1234567890", "", today)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if u.Points != StartingPoints || u.Energy != MaxEnergy || u.TapClicksToday != 0 {
		t.Fatalf("unexpected starting balances: %+v", u)
	}
	if u.Avatar != DefaultAvatar {
		t.Fatalf("avatar = %q, want default", u.Avatar)
	}
	if u.LastClickDate == nil || !u.LastClickDate.Equal(today) {
		t.Fatalf("lastClickDate = %v, want %v", u.LastClickDate, today)
	}
	if len(u.VotedPolls) != 0 {
		t.Fatalf("votedPolls = %v, want empty", u.VotedPolls)
	}

	if _, err := NewUser("", "123", "", today); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("bad phone with blank username: got %v, want ErrInvalidFormat first", err)
	}
	if _, err := NewUser("   ", "1234567890", "", today); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("blank username: got %v, want ErrBadRequest", err)
	}
	u, _ = NewUser("bob", "1234567891", "https://cdn/x.png", today)
	if u.Avatar != "https://cdn/x.png" {
		t.Fatalf("avatar = %q", u.Avatar)
	}
}

func TestTapSameDay(t *testing.T) {
	today := day(2024, 3, 1)
	u, _ := NewUser("alice", "1234567890", "", today)

	rolled, err := u.Tap(today)
	if err != nil || rolled {
		t.Fatalf("Tap = (%v, %v), want (false, nil)", rolled, err)
	}
	if u.Points != StartingPoints+1 || u.Energy != MaxEnergy-1 || u.TapClicksToday != 1 {
		t.Fatalf("after one tap: %+v", u)
	}
}

func TestTapDailyLimit(t *testing.T) {
	today := day(2024, 3, 1)
	u, _ := NewUser("alice", "1234567890", "", today)
	for i := 0; i < DailyTapLimit; i++ {
		if _, err := u.Tap(today); err != nil {
			t.Fatalf("tap %d: %v", i+1, err)
		}
	}
	before := *u
	if _, err := u.Tap(today); !errors.Is(err, ErrDailyLimitReached) {
		t.Fatalf("tap 101: got %v, want ErrDailyLimitReached", err)
	}
	if u.Points != before.Points || u.Energy != before.Energy || u.TapClicksToday != DailyTapLimit {
		t.Fatalf("rejected tap mutated balances: %+v", u)
	}
	if u.Points != StartingPoints+DailyTapLimit {
		t.Fatalf("points = %d, want %d", u.Points, StartingPoints+DailyTapLimit)
	}
}

func TestTapLimitCheckedBeforeEnergy(t *testing.T) {
	today := day(2024, 3, 1)
	u, _ := NewUser("alice", "1234567890", "", today)
	u.TapClicksToday = DailyTapLimit
	u.Energy = 0
	if _, err := u.Tap(today); !errors.Is(err, ErrDailyLimitReached) {
		t.Fatalf("got %v, want ErrDailyLimitReached", err)
	}
}

func TestTapInsufficientEnergy(t *testing.T) {
	today := day(2024, 3, 1)
	u, _ := NewUser("alice", "1234567890", "", today)
	u.Energy = 0
	if _, err := u.Tap(today); !errors.Is(err, ErrInsufficientEnergy) {
		t.Fatalf("got %v, want ErrInsufficientEnergy", err)
	}
	if u.Points != StartingPoints || u.TapClicksToday != 0 {
		t.Fatalf("rejected tap mutated balances: %+v", u)
	}
}

func TestTapRollover(t *testing.T) {
	d1 := day(2024, 3, 1)
	d2 := day(2024, 3, 2)
	u, _ := NewUser("alice", "1234567890", "", d1)
	u.TapClicksToday = DailyTapLimit

	rolled, err := u.Tap(d2)
	if err != nil || !rolled {
		t.Fatalf("Tap = (%v, %v), want (true, nil)", rolled, err)
	}
	if u.TapClicksToday != 1 || !u.LastClickDate.Equal(d2) {
		t.Fatalf("after rollover: clicks=%d last=%v", u.TapClicksToday, u.LastClickDate)
	}
}

func TestTapRolloverKeptWhenRejected(t *testing.T) {
	d1 := day(2024, 3, 1)
	d2 := day(2024, 3, 2)
	u, _ := NewUser("alice", "1234567890", "", d1)
	u.TapClicksToday = 40
	u.Energy = 0

	rolled, err := u.Tap(d2)
	if !errors.Is(err, ErrInsufficientEnergy) || !rolled {
		t.Fatalf("Tap = (%v, %v), want (true, ErrInsufficientEnergy)", rolled, err)
	}
	if u.TapClicksToday != 0 || !u.LastClickDate.Equal(d2) {
		t.Fatalf("rollover not applied: clicks=%d last=%v", u.TapClicksToday, u.LastClickDate)
	}
}

func TestTapNilLastClickDate(t *testing.T) {
	today := day(2024, 3, 1)
	u := &User{Points: 0, Energy: 10, TapClicksToday: 99}
	rolled, err := u.Tap(today)
	if err != nil || !rolled || u.TapClicksToday != 1 {
		t.Fatalf("Tap = (%v, %v) clicks=%d", rolled, err, u.TapClicksToday)
	}
}

func TestRegenerateEnergy(t *testing.T) {
	u := &User{Energy: MaxEnergy - 1}
	if !u.RegenerateEnergy() || u.Energy != MaxEnergy {
		t.Fatalf("energy = %d, want %d", u.Energy, MaxEnergy)
	}
	if u.RegenerateEnergy() || u.Energy != MaxEnergy {
		t.Fatalf("energy above cap: %d", u.Energy)
	}
}

func TestChargePollCreation(t *testing.T) {
	u := &User{Points: PollCreationCost}
	if err := u.ChargePollCreation(); err != nil || u.Points != 0 {
		t.Fatalf("charge at exact cost: err=%v points=%d", err, u.Points)
	}
	if err := u.ChargePollCreation(); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
	if u.Points != 0 {
		t.Fatalf("points went negative: %d", u.Points)
	}
}

func TestRecordVote(t *testing.T) {
	u := &User{}
	if err := u.RecordVote("p1"); err != nil {
		t.Fatal(err)
	}
	if !u.HasVoted("p1") || u.HasVoted("p2") {
		t.Fatalf("votedPolls = %v", u.VotedPolls)
	}
	if err := u.RecordVote("p1"); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("got %v, want ErrAlreadyVoted", err)
	}
	if len(u.VotedPolls) != 1 {
		t.Fatalf("duplicate vote recorded: %v", u.VotedPolls)
	}
}

func TestUserClone(t *testing.T) {
	today := day(2024, 3, 1)
	u, _ := NewUser("alice", "1234567890", "", today)
	u.VotedPolls = []string{"p1"}
	c := u.Clone()
	c.VotedPolls[0] = "changed"
	*c.LastClickDate = day(2030, 1, 1)
	if u.VotedPolls[0] != "p1" || !u.LastClickDate.Equal(today) {
		t.Fatal("clone aliases the original")
	}
}
