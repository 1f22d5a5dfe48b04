package athletes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lildude/strengthboard/internal/database"
	"github.com/lildude/strengthboard/internal/model"
	"github.com/lildude/strengthboard/internal/serr"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate reads a client date and returns the UTC calendar day it falls on.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// recordedDate parses a history date. A bad date is a bad request.
func recordedDate(s string) (model.Date, error) {
	t, err := ParseDate(s)
	if err != nil {
		return model.Date{}, serr.NewServiceError(err, http.StatusBadRequest, "recordedDate: %v", err)
	}
	return model.Date{Time: t}, nil
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nonNegative(field string, v *float64) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// LiftInput appends one lift to an athlete's history.
type LiftInput struct {
	AthleteID    uint     `json:"athleteId"`
	ExerciseType string   `json:"exerciseType"`
	Weight       *float64 `json:"weight"`
	Reps         *int     `json:"reps"`
	Distance     *float64 `json:"distance"`
	RecordedDate string   `json:"recordedDate"`
	Notes        *string  `json:"notes"`
}

func (in *LiftInput) Validate() error {
	switch {
	case in.AthleteID == 0:
		return errors.New("athleteId is required")
	case strings.TrimSpace(in.ExerciseType) == "":
		return errors.New("exerciseType is required")
	case len(in.ExerciseType) > 50:
		return errors.New("exerciseType must be at most 50 characters")
	case in.Weight == nil && in.Reps == nil && in.Distance == nil:
		return errors.New("one of weight, reps or distance is required")
	case in.Reps != nil && *in.Reps < 0:
		return errors.New("reps must not be negative")
	}
	if _, err := ParseDate(in.RecordedDate); err != nil {
		return fmt.Errorf("recordedDate: %w", err)
	}
	return firstError(nonNegative("weight", in.Weight), nonNegative("distance", in.Distance))
}

func (in *LiftInput) record() (*model.LiftRecord, error) {
	date, err := recordedDate(in.RecordedDate)
	if err != nil {
		return nil, err
	}
	reps := 1
	if in.Reps != nil && *in.Reps > 0 {
		reps = *in.Reps
	}
	return &model.LiftRecord{
		AthleteID:    in.AthleteID,
		ExerciseType: strings.TrimSpace(in.ExerciseType),
		Weight:       model.Decimal(in.Weight),
		Reps:         &reps,
		Distance:     model.Decimal(in.Distance),
		RecordedDate: date,
		Notes:        in.Notes,
	}, nil
}

// WeightInput appends one body weight measurement.
type WeightInput struct {
	AthleteID    uint     `json:"athleteId"`
	Weight       *float64 `json:"weight"`
	RecordedDate string   `json:"recordedDate"`
}

func (in *WeightInput) Validate() error {
	switch {
	case in.AthleteID == 0:
		return errors.New("athleteId is required")
	case in.Weight == nil:
		return errors.New("weight is required")
	case *in.Weight < 0:
		return errors.New("weight must not be negative")
	}
	if _, err := ParseDate(in.RecordedDate); err != nil {
		return fmt.Errorf("recordedDate: %w", err)
	}
	return nil
}

// LiftEdit changes fields of an existing lift record.
type LiftEdit struct {
	LiftID   uint     `json:"liftId"`
	Weight   *float64 `json:"weight"`
	Reps     *int     `json:"reps"`
	Distance *float64 `json:"distance"`
	Notes    *string  `json:"notes"`
}

func (in *LiftEdit) Validate() error {
	if in.LiftID == 0 {
		return errors.New("liftId is required")
	}
	if in.Reps != nil && *in.Reps < 0 {
		return errors.New("reps must not be negative")
	}
	return firstError(nonNegative("weight", in.Weight), nonNegative("distance", in.Distance))
}

func (in *LiftEdit) update() database.LiftUpdate {
	u := database.LiftUpdate{Reps: in.Reps, Notes: in.Notes}
	if in.Weight != nil {
		u.Weight = database.Set(model.Decimal(in.Weight))
	}
	if in.Distance != nil {
		u.Distance = database.Set(model.Decimal(in.Distance))
	}
	return u
}

// Lifts are the personal records carried by profile inputs.
type Lifts struct {
	BodyWeight     *float64 `json:"bodyWeight"`
	Squat          *float64 `json:"squat"`
	Bench          *float64 `json:"bench"`
	Deadlift       *float64 `json:"deadlift"`
	OHP            *float64 `json:"ohp"`
	InclineBench   *float64 `json:"inclineBench"`
	RDL            *float64 `json:"rdl"`
	RevBandBench   *float64 `json:"revBandBench"`
	RevBandSquat   *float64 `json:"revBandSquat"`
	RevBandDL      *float64 `json:"revBandDl"`
	SlingshotBench *float64 `json:"slingshotBench"`
}

func (l *Lifts) validate() error {
	return firstError(
		nonNegative("bodyWeight", l.BodyWeight),
		nonNegative("squat", l.Squat),
		nonNegative("bench", l.Bench),
		nonNegative("deadlift", l.Deadlift),
		nonNegative("ohp", l.OHP),
		nonNegative("inclineBench", l.InclineBench),
		nonNegative("rdl", l.RDL),
		nonNegative("revBandBench", l.RevBandBench),
		nonNegative("revBandSquat", l.RevBandSquat),
		nonNegative("revBandDl", l.RevBandDL),
		nonNegative("slingshotBench", l.SlingshotBench),
	)
}

// supplied writes the lifts that were given into u and recomputes the total
// when squat, bench and deadlift were all given.
func (l *Lifts) supplied(u *database.AthleteUpdate) {
	for _, f := range []struct {
		v   *float64
		dst **decimal.NullDecimal
	}{
		{l.BodyWeight, &u.BodyWeight},
		{l.Squat, &u.Squat},
		{l.Bench, &u.Bench},
		{l.Deadlift, &u.Deadlift},
		{l.OHP, &u.OHP},
		{l.InclineBench, &u.InclineBench},
		{l.RDL, &u.RDL},
		{l.RevBandBench, &u.RevBandBench},
		{l.RevBandSquat, &u.RevBandSquat},
		{l.RevBandDL, &u.RevBandDL},
		{l.SlingshotBench, &u.SlingshotBench},
	} {
		if f.v != nil {
			*f.dst = database.Set(model.Decimal(f.v))
		}
	}
	if l.Squat != nil && l.Bench != nil && l.Deadlift != nil {
		u.Total = database.Set(model.Total(*u.Squat, *u.Bench, *u.Deadlift))
	}
}

// ProfileUpdate edits an athlete profile. Absent fields are left unchanged.
type ProfileUpdate struct {
	AthleteID uint    `json:"athleteId"`
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
	Lifts
}

func (in *ProfileUpdate) Validate() error {
	if in.AthleteID == 0 {
		return errors.New("athleteId is required")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return errors.New("name must not be empty")
	}
	return in.Lifts.validate()
}

func (in *ProfileUpdate) update() database.AthleteUpdate {
	u := database.AthleteUpdate{AvatarURL: in.AvatarURL}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		u.Name = &name
	}
	in.Lifts.supplied(&u)
	return u
}

// Setup creates or claims the caller's athlete profile during onboarding.
type Setup struct {
	Name       string   `json:"name"`
	AvatarURL  *string  `json:"avatarUrl"`
	BodyWeight *float64 `json:"bodyWeight"`
	Squat      *float64 `json:"squat"`
	Bench      *float64 `json:"bench"`
	Deadlift   *float64 `json:"deadlift"`
	OHP        *float64 `json:"ohp"`
}

func (in *Setup) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	if len(in.Name) > 255 {
		return errors.New("name must be at most 255 characters")
	}
	return firstError(
		nonNegative("bodyWeight", in.BodyWeight),
		nonNegative("squat", in.Squat),
		nonNegative("bench", in.Bench),
		nonNegative("deadlift", in.Deadlift),
		nonNegative("ohp", in.OHP),
	)
}

// update sets every onboarding lift, storing null for the ones not given.
func (in *Setup) update(email string) database.AthleteUpdate {
	squat, bench, deadlift := model.Decimal(in.Squat), model.Decimal(in.Bench), model.Decimal(in.Deadlift)
	u := database.AthleteUpdate{
		AvatarURL:  in.AvatarURL,
		BodyWeight: database.Set(model.Decimal(in.BodyWeight)),
		Squat:      database.Set(squat),
		Bench:      database.Set(bench),
		Deadlift:   database.Set(deadlift),
		OHP:        database.Set(model.Decimal(in.OHP)),
		Total:      database.Set(model.Total(squat, bench, deadlift)),
	}
	if email != "" {
		u.Email = &email
	}
	return u
}

// ImportResult counts the rows of a bulk import.
type ImportResult struct {
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}
