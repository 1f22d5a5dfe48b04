// Package athletes implements the leaderboard, profile and history
// operations on top of the database store.
package athletes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lildude/strengthboard/internal/auth"
	"github.com/lildude/strengthboard/internal/database"
	"github.com/lildude/strengthboard/internal/importer"
	"github.com/lildude/strengthboard/internal/model"
	"github.com/lildude/strengthboard/internal/serr"
	"github.com/sirupsen/logrus"
)

type Service struct {
	store *database.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(store *database.Store, log logrus.FieldLogger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

func (s *Service) All(ctx context.Context) ([]model.Athlete, error) {
	return s.store.GetAllAthletes(ctx)
}

func (s *Service) Leaderboard(ctx context.Context, exercise string, gymID *uint) ([]model.Athlete, error) {
	return s.store.GetLeaderboard(ctx, exercise, gymID)
}

// GetByID returns nil without an error when the athlete does not exist.
func (s *Service) GetByID(ctx context.Context, id uint) (*model.Athlete, error) {
	return s.store.GetAthleteByID(ctx, id)
}

func (s *Service) LiftHistory(ctx context.Context, athleteID uint, exerciseType string) ([]model.LiftRecord, error) {
	return s.store.GetLiftRecords(ctx, athleteID, exerciseType)
}

func (s *Service) WeightHistory(ctx context.Context, athleteID uint) ([]model.WeightEntry, error) {
	return s.store.GetWeightEntries(ctx, athleteID)
}

// AddLift appends a lift to the history of an athlete the user may edit.
func (s *Service) AddLift(ctx context.Context, u *model.User, in LiftInput) (*model.LiftRecord, error) {
	if err := auth.EnforceAthleteOwnership(u, in.AthleteID); err != nil {
		return nil, err
	}
	if err := s.requireAthlete(ctx, in.AthleteID); err != nil {
		return nil, err
	}
	r, err := in.record()
	if err != nil {
		return nil, err
	}
	return s.store.AddLiftRecord(ctx, r)
}

func (s *Service) AddWeight(ctx context.Context, u *model.User, in WeightInput) (*model.WeightEntry, error) {
	if err := auth.EnforceAthleteOwnership(u, in.AthleteID); err != nil {
		return nil, err
	}
	if err := s.requireAthlete(ctx, in.AthleteID); err != nil {
		return nil, err
	}
	date, err := recordedDate(in.RecordedDate)
	if err != nil {
		return nil, err
	}
	return s.store.AddWeightEntry(ctx, &model.WeightEntry{
		AthleteID:    in.AthleteID,
		Weight:       model.Decimal(in.Weight),
		RecordedDate: date,
	})
}

// UpdateLift edits a lift record. The user must be allowed to edit the
// athlete the record belongs to.
func (s *Service) UpdateLift(ctx context.Context, u *model.User, in LiftEdit) (*model.LiftRecord, error) {
	if u == nil {
		return nil, serr.Unauthorized("Unauthorized")
	}
	lift, err := s.store.GetLiftRecord(ctx, in.LiftID)
	if err != nil {
		return nil, err
	}
	if lift == nil {
		if !s.store.Available() {
			return nil, nil
		}
		return nil, serr.NotFound("Lift record not found")
	}
	if err := auth.EnforceAthleteOwnership(u, lift.AthleteID); err != nil {
		return nil, err
	}
	return s.store.UpdateLiftRecord(ctx, in.LiftID, in.update())
}

// UpdateProfile applies a partial profile edit. The total changes only when
// squat, bench and deadlift are all part of the edit.
func (s *Service) UpdateProfile(ctx context.Context, u *model.User, in ProfileUpdate) (*model.Athlete, error) {
	if err := auth.EnforceAthleteOwnership(u, in.AthleteID); err != nil {
		return nil, err
	}
	a, err := s.store.UpdateAthlete(ctx, in.AthleteID, in.update())
	if errors.Is(err, database.ErrExists) {
		return nil, nameTaken(err)
	}
	if err != nil {
		return nil, err
	}
	if a == nil && s.store.Available() {
		return nil, serr.NotFound("Athlete not found")
	}
	return a, nil
}

// SetupProfile creates the user's athlete, or claims an unlinked one with
// the same name, links it to the user and seeds the history with the lifts
// given. An athlete linked to another user is never claimed. All writes
// share one transaction.
func (s *Service) SetupProfile(ctx context.Context, u *model.User, in Setup) (*model.Athlete, error) {
	if u == nil {
		return nil, serr.Unauthorized("Unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "name": name}).Info("setting up profile")

	var athlete *model.Athlete
	err := s.store.WithTx(ctx, func(tx *database.Store) error {
		existing, err := tx.GetAthleteByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			linked, err := tx.AthleteLinkedToOther(ctx, existing.ID, u.ID)
			if err != nil {
				return err
			}
			if linked {
				return fmt.Errorf("athlete %q is linked to another user: %w", name, database.ErrExists)
			}
		}

		a, err := tx.ImportAthlete(ctx, name, in.update(u.Email))
		if err != nil {
			return err
		}
		if a == nil {
			return nil
		}
		if err := tx.LinkUserToAthlete(ctx, u.ID, a.ID); err != nil {
			return err
		}

		today := model.DateOf(s.now())
		one := 1
		for _, lift := range []struct {
			exercise string
			weight   *float64
		}{
			{"squat", in.Squat},
			{"bench", in.Bench},
			{"deadlift", in.Deadlift},
			{"ohp", in.OHP},
		} {
			if lift.weight == nil {
				continue
			}
			_, err := tx.AddLiftRecord(ctx, &model.LiftRecord{
				AthleteID:    a.ID,
				ExerciseType: lift.exercise,
				Weight:       model.Decimal(lift.weight),
				Reps:         &one,
				RecordedDate: today,
			})
			if err != nil {
				return err
			}
		}

		if in.BodyWeight != nil {
			_, err := tx.AddWeightEntry(ctx, &model.WeightEntry{
				AthleteID:    a.ID,
				Weight:       model.Decimal(in.BodyWeight),
				RecordedDate: today,
			})
			if err != nil {
				return err
			}
		}

		athlete = a
		return nil
	})
	if errors.Is(err, database.ErrExists) {
		return nil, nameTaken(err)
	}
	if err != nil {
		return nil, fmt.Errorf("setting up profile for user %d: %w", u.ID, err)
	}
	if athlete == nil {
		if !s.store.Available() {
			return nil, nil
		}
		return nil, serr.NewServiceError(nil, http.StatusInternalServerError, "Failed to create athlete profile")
	}

	u.AthleteID = &athlete.ID
	return athlete, nil
}

// Import upserts every row of a tab-separated export. Row failures are
// collected and do not stop the batch.
func (s *Service) Import(ctx context.Context, text string) ImportResult {
	res := ImportResult{Errors: []string{}}
	for _, row := range importer.Parse(text) {
		_, err := s.store.ImportAthlete(ctx, row.Name, rowUpdate(row))
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"name": row.Name, "line": row.Line}).Warn("import row failed")
			res.ErrorCount++
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to import %s: %v", row.Name, err))
			continue
		}
		res.SuccessCount++
	}
	s.log.WithFields(logrus.Fields{"success": res.SuccessCount, "failed": res.ErrorCount}).Info("import finished")
	return res
}

func rowUpdate(r importer.Row) database.AthleteUpdate {
	return database.AthleteUpdate{
		BodyWeight:     database.Set(r.BodyWeight),
		Squat:          database.Set(r.Squat),
		Bench:          database.Set(r.Bench),
		Deadlift:       database.Set(r.Deadlift),
		OHP:            database.Set(r.OHP),
		InclineBench:   database.Set(r.InclineBench),
		RDL:            database.Set(r.RDL),
		RevBandBench:   database.Set(r.RevBandBench),
		RevBandSquat:   database.Set(r.RevBandSquat),
		RevBandDL:      database.Set(r.RevBandDL),
		SlingshotBench: database.Set(r.SlingshotBench),
		Total:          database.Set(r.Total()),
	}
}

func (s *Service) requireAthlete(ctx context.Context, id uint) error {
	if !s.store.Available() {
		return nil
	}
	a, err := s.store.GetAthleteByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return serr.NotFound("Athlete not found")
	}
	return nil
}

func nameTaken(err error) error {
	return serr.NewServiceError(err, http.StatusConflict, "An athlete with that name already exists")
}
