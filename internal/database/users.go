package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lildude/strengthboard/internal/model"
	"github.com/sirupsen/logrus"
)

// UserParams describes a user created or refreshed from an identity.
type UserParams struct {
	OpenID       string
	Name         string
	Email        string
	LoginMethod  string
	Role         model.Role
	Metadata     map[string]any
	LastSignedIn time.Time
}

func (s *Store) GetUserByOpenID(ctx context.Context, openID string) (*model.User, error) {
	if s.unavailable("GetUserByOpenID") {
		return nil, nil
	}
	u, err := first[model.User](s.conn(ctx).Where("open_id = ?", openID))
	if err != nil {
		return nil, fmt.Errorf("getting user by open id: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	if s.unavailable("GetUserByID") {
		return nil, nil
	}
	u, err := first[model.User](s.conn(ctx).Where("id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return u, nil
}

// UpsertUser inserts a user keyed by open id, or refreshes the profile fields
// of an existing one. Empty fields leave stored values untouched.
func (s *Store) UpsertUser(ctx context.Context, p UserParams) (*model.User, error) {
	if s.unavailable("UpsertUser") {
		return nil, nil
	}
	if p.OpenID == "" {
		return nil, fmt.Errorf("upserting user: open id is required")
	}
	if p.LastSignedIn.IsZero() {
		p.LastSignedIn = time.Now()
	}

	existing, err := s.GetUserByOpenID(ctx, p.OpenID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		u := &model.User{
			OpenID:       p.OpenID,
			Name:         p.Name,
			Email:        p.Email,
			LoginMethod:  p.LoginMethod,
			Role:         p.Role,
			LastSignedIn: p.LastSignedIn,
		}
		if p.Metadata != nil {
			if err := u.Metadata.Set(p.Metadata); err != nil {
				return nil, fmt.Errorf("encoding user metadata: %w", err)
			}
		}
		if err := s.conn(ctx).Create(u).Error; err != nil {
			return nil, fmt.Errorf("creating user: %w", translate(err))
		}
		return s.GetUserByID(ctx, u.ID)
	}

	updates := map[string]any{"last_signed_in": p.LastSignedIn}
	if p.Name != "" {
		updates["name"] = p.Name
	}
	if p.Email != "" {
		updates["email"] = p.Email
	}
	if p.LoginMethod != "" {
		updates["login_method"] = p.LoginMethod
	}
	if p.Role != "" {
		updates["role"] = p.Role
	}
	if err := s.conn(ctx).Model(&model.User{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating user %d: %w", existing.ID, err)
	}
	return s.GetUserByID(ctx, existing.ID)
}

func (s *Store) TouchLastSignedIn(ctx context.Context, userID uint, at time.Time) error {
	if s.unavailable("TouchLastSignedIn") {
		return nil
	}
	err := s.conn(ctx).Model(&model.User{}).Where("id = ?", userID).Update("last_signed_in", at).Error
	if err != nil {
		return fmt.Errorf("touching user %d: %w", userID, err)
	}
	return nil
}

func (s *Store) SetUserRole(ctx context.Context, userID uint, role model.Role) error {
	if s.unavailable("SetUserRole") {
		return nil
	}
	err := s.conn(ctx).Model(&model.User{}).Where("id = ?", userID).Update("role", role).Error
	if err != nil {
		return fmt.Errorf("setting role of user %d: %w", userID, err)
	}
	return nil
}

func (s *Store) LinkUserToAthlete(ctx context.Context, userID, athleteID uint) error {
	if s.unavailable("LinkUserToAthlete") {
		return nil
	}
	err := s.conn(ctx).Model(&model.User{}).Where("id = ?", userID).Update("athlete_id", athleteID).Error
	if err != nil {
		return fmt.Errorf("linking user %d to athlete %d: %w", userID, athleteID, err)
	}
	return nil
}

// AthleteLinkedToOther reports whether a user other than userID is linked to
// the athlete.
func (s *Store) AthleteLinkedToOther(ctx context.Context, athleteID, userID uint) (bool, error) {
	if s.unavailable("AthleteLinkedToOther") {
		return false, nil
	}
	var n int64
	err := s.conn(ctx).Model(&model.User{}).
		Where("athlete_id = ? AND id <> ?", athleteID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("checking links of athlete %d: %w", athleteID, err)
	}
	return n > 0, nil
}

// SyncUserAthlete links a user without an athlete to the unlinked athlete
// carrying the same name, if there is one. The user is updated in place.
func (s *Store) SyncUserAthlete(ctx context.Context, u *model.User) error {
	if u == nil || u.AthleteID != nil || u.Name == "" || s.unavailable("SyncUserAthlete") {
		return nil
	}

	a, err := first[model.Athlete](s.conn(ctx).
		Where("name = ?", u.Name).
		Where("NOT EXISTS (SELECT 1 FROM users WHERE users.athlete_id = athletes.id)"))
	if err != nil {
		return fmt.Errorf("getting unlinked athlete %q: %w", u.Name, err)
	}
	if a == nil {
		return err
	}

	if err := s.LinkUserToAthlete(ctx, u.ID, a.ID); err != nil {
		return err
	}
	u.AthleteID = &a.ID
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "athlete_id": a.ID}).Info("linked user to athlete by name")
	return nil
}
