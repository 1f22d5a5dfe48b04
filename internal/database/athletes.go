package database

import (
	"context"
	"fmt"

	"github.com/lildude/strengthboard/internal/model"
	"github.com/shopspring/decimal"
)

// leaderboardColumns maps the exercise names accepted by the leaderboard to
// their columns.
var leaderboardColumns = map[string]string{
	"total":          "total",
	"squat":          "squat",
	"bench":          "bench",
	"deadlift":       "deadlift",
	"ohp":            "ohp",
	"inclineBench":   "incline_bench",
	"rdl":            "rdl",
	"revBandBench":   "rev_band_bench",
	"revBandSquat":   "rev_band_squat",
	"revBandDl":      "rev_band_dl",
	"slingshotBench": "slingshot_bench",
}

// LeaderboardColumn returns the column used to rank exercise. Unknown
// exercises rank by total.
func LeaderboardColumn(exercise string) string {
	if col, ok := leaderboardColumns[exercise]; ok {
		return col
	}
	return "total"
}

// AthleteUpdate lists the athlete columns to write. A nil field is left
// untouched; a non-nil invalid decimal stores NULL.
type AthleteUpdate struct {
	Name           *string
	Email          *string
	AvatarURL      *string
	BodyWeight     *decimal.NullDecimal
	Squat          *decimal.NullDecimal
	Bench          *decimal.NullDecimal
	Deadlift       *decimal.NullDecimal
	OHP            *decimal.NullDecimal
	InclineBench   *decimal.NullDecimal
	RDL            *decimal.NullDecimal
	RevBandBench   *decimal.NullDecimal
	RevBandSquat   *decimal.NullDecimal
	RevBandDL      *decimal.NullDecimal
	SlingshotBench *decimal.NullDecimal
	Total          *decimal.NullDecimal
}

// Set wraps d so it is written by an AthleteUpdate or LiftUpdate.
func Set(d decimal.NullDecimal) *decimal.NullDecimal {
	return &d
}

func (u AthleteUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Email != nil {
		cols["email"] = *u.Email
	}
	if u.AvatarURL != nil {
		cols["avatar_url"] = *u.AvatarURL
	}
	for col, v := range map[string]*decimal.NullDecimal{
		"body_weight":     u.BodyWeight,
		"squat":           u.Squat,
		"bench":           u.Bench,
		"deadlift":        u.Deadlift,
		"ohp":             u.OHP,
		"incline_bench":   u.InclineBench,
		"rdl":             u.RDL,
		"rev_band_bench":  u.RevBandBench,
		"rev_band_squat":  u.RevBandSquat,
		"rev_band_dl":     u.RevBandDL,
		"slingshot_bench": u.SlingshotBench,
		"total":           u.Total,
	} {
		if v != nil {
			cols[col] = *v
		}
	}
	return cols
}

func (u AthleteUpdate) apply(a *model.Athlete) {
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Email != nil {
		a.Email = u.Email
	}
	if u.AvatarURL != nil {
		a.AvatarURL = u.AvatarURL
	}
	for dst, v := range map[*decimal.NullDecimal]*decimal.NullDecimal{
		&a.BodyWeight:     u.BodyWeight,
		&a.Squat:          u.Squat,
		&a.Bench:          u.Bench,
		&a.Deadlift:       u.Deadlift,
		&a.OHP:            u.OHP,
		&a.InclineBench:   u.InclineBench,
		&a.RDL:            u.RDL,
		&a.RevBandBench:   u.RevBandBench,
		&a.RevBandSquat:   u.RevBandSquat,
		&a.RevBandDL:      u.RevBandDL,
		&a.SlingshotBench: u.SlingshotBench,
		&a.Total:          u.Total,
	} {
		if v != nil {
			*dst = *v
		}
	}
}

// GetAllAthletes returns every athlete ranked by total.
func (s *Store) GetAllAthletes(ctx context.Context) ([]model.Athlete, error) {
	return s.GetLeaderboard(ctx, "total", nil)
}

// GetLeaderboard ranks athletes by the exercise column, highest first with
// missing values last. A non-nil gymID limits the ranking to that gym.
func (s *Store) GetLeaderboard(ctx context.Context, exercise string, gymID *uint) ([]model.Athlete, error) {
	if s.unavailable("GetLeaderboard") {
		return []model.Athlete{}, nil
	}

	q := s.conn(ctx).Model(&model.Athlete{})
	if gymID != nil {
		q = q.Where("gym_id = ?", *gymID)
	}

	athletes := []model.Athlete{}
	err := q.Order(LeaderboardColumn(exercise) + " DESC NULLS LAST").Order("id ASC").Find(&athletes).Error
	if err != nil {
		return nil, fmt.Errorf("listing leaderboard for %q: %w", exercise, err)
	}
	return athletes, nil
}

func (s *Store) GetAthleteByID(ctx context.Context, id uint) (*model.Athlete, error) {
	if s.unavailable("GetAthleteByID") {
		return nil, nil
	}
	a, err := first[model.Athlete](s.conn(ctx).Where("id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting athlete %d: %w", id, err)
	}
	return a, nil
}

func (s *Store) GetAthleteByName(ctx context.Context, name string) (*model.Athlete, error) {
	if s.unavailable("GetAthleteByName") {
		return nil, nil
	}
	a, err := first[model.Athlete](s.conn(ctx).Where("name = ?", name))
	if err != nil {
		return nil, fmt.Errorf("getting athlete %q: %w", name, err)
	}
	return a, nil
}

// ImportAthlete updates the athlete called name with u, or creates it when
// no athlete has that name.
func (s *Store) ImportAthlete(ctx context.Context, name string, u AthleteUpdate) (*model.Athlete, error) {
	if s.unavailable("ImportAthlete") {
		return nil, nil
	}

	existing, err := s.GetAthleteByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		u.Name = nil
		return s.UpdateAthlete(ctx, existing.ID, u)
	}

	a := &model.Athlete{Name: name}
	u.Name = nil
	u.apply(a)
	if err := s.conn(ctx).Create(a).Error; err != nil {
		return nil, fmt.Errorf("creating athlete %q: %w", name, translate(err))
	}
	return a, nil
}

// UpdateAthlete writes the fields set in u and returns the stored athlete,
// or nil when no athlete has the id.
func (s *Store) UpdateAthlete(ctx context.Context, id uint, u AthleteUpdate) (*model.Athlete, error) {
	if s.unavailable("UpdateAthlete") {
		return nil, nil
	}

	if cols := u.columns(); len(cols) > 0 {
		err := s.conn(ctx).Model(&model.Athlete{}).Where("id = ?", id).Updates(cols).Error
		if err != nil {
			return nil, fmt.Errorf("updating athlete %d: %w", id, translate(err))
		}
	}
	return s.GetAthleteByID(ctx, id)
}

// SetAthleteGym moves an athlete into a gym, or out of any gym when gymID
// is nil.
func (s *Store) SetAthleteGym(ctx context.Context, athleteID uint, gymID *uint) error {
	if s.unavailable("SetAthleteGym") {
		return nil
	}
	err := s.conn(ctx).Model(&model.Athlete{}).Where("id = ?", athleteID).Update("gym_id", gymID).Error
	if err != nil {
		return fmt.Errorf("setting gym of athlete %d: %w", athleteID, err)
	}
	return nil
}
