package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tapvote/internal/domain/entity"
	repo "github.com/oksasatya/tapvote/internal/domain/repository"
	"github.com/oksasatya/tapvote/pkg/helpers"
)

// AvatarUploader stores an avatar image and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// EconomyService runs the user economy: signup, login, taps and energy.
// Every mutation is one read-decide-write inside a storage transaction.
type EconomyService struct {
	Store    repo.Store
	Avatars  AvatarUploader
	Logger   *logrus.Logger
	Location *time.Location
	Now      func() time.Time
}

func NewEconomyService(store repo.Store, avatars AvatarUploader, logger *logrus.Logger, loc *time.Location) *EconomyService {
	if loc == nil {
		loc = time.UTC
	}
	return &EconomyService{
		Store:    store,
		Avatars:  avatars,
		Logger:   logger,
		Location: loc,
		Now:      time.Now,
	}
}

func (s *EconomyService) today() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return helpers.CalendarDay(now(), s.Location)
}

// Signup creates a user with the starting balance. Phone format is checked
// first, then phone and username uniqueness.
func (s *EconomyService) Signup(ctx context.Context, username, phone, avatar string) (*entity.User, error) {
	u, err := entity.NewUser(username, phone, avatar, s.today())
	if err != nil {
		return nil, err
	}

	err = s.Store.InTx(ctx, func(tx repo.Store) error {
		if _, err := tx.Users().GetByPhone(ctx, u.Phone); err == nil {
			return fmt.Errorf("%w: phone number already in use", entity.ErrConflict)
		} else if !errors.Is(err, entity.ErrNotFound) {
			return err
		}
		if _, err := tx.Users().GetByUsername(ctx, u.Username); err == nil {
			return fmt.Errorf("%w: username already taken", entity.ErrConflict)
		} else if !errors.Is(err, entity.ErrNotFound) {
			return err
		}
		return tx.Users().Create(ctx, u)
	})
	if err != nil {
		return nil, s.fail("signup failed", err, logrus.Fields{"username": u.Username})
	}

	metricSignups.Add(1)
	helpers.LogInfo(s.Logger, "user signed up", logrus.Fields{"user_id": u.ID})
	return u, nil
}

// Login resolves a user by phone. There is no secret; the phone is the
// identity.
func (s *EconomyService) Login(ctx context.Context, phone string) (*entity.User, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, fmt.Errorf("%w: phone is required", entity.ErrBadRequest)
	}
	u, err := s.Store.Users().GetByPhone(ctx, phone)
	if err != nil {
		return nil, s.fail("login lookup failed", subject("user", err), nil)
	}
	return u, nil
}

func (s *EconomyService) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", entity.ErrBadRequest)
	}
	u, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, s.fail("get user failed", subject("user", err), logrus.Fields{"user_id": userID})
	}
	return u, nil
}

// Tap earns one point for one energy, capped per calendar day. A day
// rollover is persisted even when the tap is then rejected.
func (s *EconomyService) Tap(ctx context.Context, userID string) (*entity.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", entity.ErrBadRequest)
	}
	today := s.today()

	var out *entity.User
	var rejected error
	err := s.Store.InTx(ctx, func(tx repo.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return subject("user", err)
		}
		rolledOver, tapErr := u.Tap(today)
		if tapErr != nil {
			rejected = tapErr
			if rolledOver {
				return tx.Users().Update(ctx, u)
			}
			return nil
		}
		out = u
		return tx.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, s.fail("tap failed", err, logrus.Fields{"user_id": userID})
	}
	if rejected != nil {
		metricTapsRejected.Add(1)
		if s.Logger != nil {
			s.Logger.WithField("user_id", userID).WithField("reason", rejected.Error()).Debug("tap rejected")
		}
		return nil, rejected
	}

	metricTaps.Add(1)
	return out, nil
}

// RegenerateEnergy adds one unit of energy, up to the cap. At the cap it is
// a no-op that still reports the current energy.
func (s *EconomyService) RegenerateEnergy(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("%w: userId is required", entity.ErrBadRequest)
	}
	var energy int
	var changed bool
	err := s.Store.InTx(ctx, func(tx repo.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return subject("user", err)
		}
		changed = u.RegenerateEnergy()
		energy = u.Energy
		if !changed {
			return nil
		}
		return tx.Users().Update(ctx, u)
	})
	if err != nil {
		return 0, s.fail("regenerate energy failed", err, logrus.Fields{"user_id": userID})
	}
	if changed {
		metricEnergyRegen.Add(1)
	}
	return energy, nil
}

// RegenerateAll applies one regeneration step to every user below the cap.
func (s *EconomyService) RegenerateAll(ctx context.Context) (int64, error) {
	n, err := s.Store.Users().RegenerateEnergy(ctx, entity.MaxEnergy)
	if err != nil {
		return 0, s.fail("bulk energy regeneration failed", err, nil)
	}
	metricEnergyRegen.Add(n)
	return n, nil
}

// UploadAvatar stores the image and points the user's avatar at it.
func (s *EconomyService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.Avatars == nil {
		return "", fmt.Errorf("%w: avatar storage not configured", ErrStorage)
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := s.Avatars.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return "", s.fail("avatar upload failed", err, logrus.Fields{"user_id": userID})
	}

	err = s.Store.InTx(ctx, func(tx repo.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return subject("user", err)
		}
		u.Avatar = url
		return tx.Users().Update(ctx, u)
	})
	if err != nil {
		return "", s.fail("avatar update failed", err, logrus.Fields{"user_id": userID})
	}
	return url, nil
}

// fail logs storage failures and classifies err for the caller.
func (s *EconomyService) fail(msg string, err error, fields logrus.Fields) error {
	err = classify(err)
	if errors.Is(err, ErrStorage) {
		helpers.LogError(s.Logger, msg, err, fields)
	}
	return err
}
