package database

import (
	"context"
	"fmt"

	"github.com/lildude/strengthboard/internal/model"
	"github.com/shopspring/decimal"
)

// LiftUpdate lists the lift record columns to write. Nil fields are left
// untouched.
type LiftUpdate struct {
	Weight   *decimal.NullDecimal
	Reps     *int
	Distance *decimal.NullDecimal
	Notes    *string
}

func (s *Store) AddLiftRecord(ctx context.Context, r *model.LiftRecord) (*model.LiftRecord, error) {
	if s.unavailable("AddLiftRecord") {
		return nil, nil
	}
	if err := s.conn(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("adding %s lift for athlete %d: %w", r.ExerciseType, r.AthleteID, err)
	}
	return r, nil
}

func (s *Store) AddWeightEntry(ctx context.Context, e *model.WeightEntry) (*model.WeightEntry, error) {
	if s.unavailable("AddWeightEntry") {
		return nil, nil
	}
	if err := s.conn(ctx).Create(e).Error; err != nil {
		return nil, fmt.Errorf("adding weight entry for athlete %d: %w", e.AthleteID, err)
	}
	return e, nil
}

// GetLiftRecords returns the lift history of an athlete in date order,
// optionally limited to one exercise type.
func (s *Store) GetLiftRecords(ctx context.Context, athleteID uint, exerciseType string) ([]model.LiftRecord, error) {
	if s.unavailable("GetLiftRecords") {
		return []model.LiftRecord{}, nil
	}

	q := s.conn(ctx).Where("athlete_id = ?", athleteID)
	if exerciseType != "" {
		q = q.Where("exercise_type = ?", exerciseType)
	}

	records := []model.LiftRecord{}
	if err := q.Order("recorded_date ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing lifts for athlete %d: %w", athleteID, err)
	}
	return records, nil
}

func (s *Store) GetWeightEntries(ctx context.Context, athleteID uint) ([]model.WeightEntry, error) {
	if s.unavailable("GetWeightEntries") {
		return []model.WeightEntry{}, nil
	}

	entries := []model.WeightEntry{}
	err := s.conn(ctx).Where("athlete_id = ?", athleteID).Order("recorded_date ASC").Order("id ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing weight entries for athlete %d: %w", athleteID, err)
	}
	return entries, nil
}

func (s *Store) GetLiftRecord(ctx context.Context, id uint) (*model.LiftRecord, error) {
	if s.unavailable("GetLiftRecord") {
		return nil, nil
	}
	r, err := first[model.LiftRecord](s.conn(ctx).Where("id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting lift %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) UpdateLiftRecord(ctx context.Context, id uint, u LiftUpdate) (*model.LiftRecord, error) {
	if s.unavailable("UpdateLiftRecord") {
		return nil, nil
	}

	cols := map[string]any{}
	if u.Weight != nil {
		cols["weight"] = *u.Weight
	}
	if u.Reps != nil {
		cols["reps"] = *u.Reps
	}
	if u.Distance != nil {
		cols["distance"] = *u.Distance
	}
	if u.Notes != nil {
		cols["notes"] = *u.Notes
	}

	if len(cols) > 0 {
		if err := s.conn(ctx).Model(&model.LiftRecord{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, fmt.Errorf("updating lift %d: %w", id, err)
		}
	}
	return s.GetLiftRecord(ctx, id)
}
