// Package model holds the records persisted by the database store.
package model

import (
	"time"

	"github.com/jackc/pgtype"
	"github.com/shopspring/decimal"
)

// Role is the access level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a local account bound to an identity provider subject.
type User struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	OpenID       string       `gorm:"size:64;uniqueIndex;not null" json:"openId"`
	Name         string       `json:"name"`
	Email        string       `gorm:"size:320" json:"email"`
	LoginMethod  string       `gorm:"size:64" json:"loginMethod"`
	Role         Role         `gorm:"size:16;not null;default:user" json:"role"`
	AthleteID    *uint        `json:"athleteId"`
	Metadata     pgtype.JSONB `gorm:"type:jsonb;default:'{}'" json:"-"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	LastSignedIn time.Time    `json:"lastSignedIn"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Athlete is the public profile and personal records of a lifter.
type Athlete struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	Name           string              `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Email          *string             `gorm:"size:320" json:"email"`
	AvatarURL      *string             `gorm:"column:avatar_url" json:"avatarUrl"`
	BodyWeight     decimal.NullDecimal `gorm:"column:body_weight;type:decimal(6,2)" json:"bodyWeight"`
	Squat          decimal.NullDecimal `gorm:"column:squat;type:decimal(6,2)" json:"squat"`
	Bench          decimal.NullDecimal `gorm:"column:bench;type:decimal(6,2)" json:"bench"`
	Deadlift       decimal.NullDecimal `gorm:"column:deadlift;type:decimal(6,2)" json:"deadlift"`
	OHP            decimal.NullDecimal `gorm:"column:ohp;type:decimal(6,2)" json:"ohp"`
	InclineBench   decimal.NullDecimal `gorm:"column:incline_bench;type:decimal(6,2)" json:"inclineBench"`
	RDL            decimal.NullDecimal `gorm:"column:rdl;type:decimal(6,2)" json:"rdl"`
	RevBandBench   decimal.NullDecimal `gorm:"column:rev_band_bench;type:decimal(6,2)" json:"revBandBench"`
	RevBandSquat   decimal.NullDecimal `gorm:"column:rev_band_squat;type:decimal(6,2)" json:"revBandSquat"`
	RevBandDL      decimal.NullDecimal `gorm:"column:rev_band_dl;type:decimal(6,2)" json:"revBandDl"`
	SlingshotBench decimal.NullDecimal `gorm:"column:slingshot_bench;type:decimal(6,2)" json:"slingshotBench"`
	Total          decimal.NullDecimal `gorm:"column:total;type:decimal(7,2);index" json:"total"`
	GymID          *uint               `gorm:"index" json:"gymId"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// WeightEntry is one body weight measurement.
type WeightEntry struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	AthleteID    uint                `gorm:"index;not null" json:"athleteId"`
	Weight       decimal.NullDecimal `gorm:"type:decimal(6,2);not null" json:"weight"`
	RecordedDate Date                `gorm:"type:date;not null" json:"recordedDate"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// LiftRecord is one historical performance of an exercise.
type LiftRecord struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	AthleteID    uint                `gorm:"index;not null" json:"athleteId"`
	ExerciseType string              `gorm:"size:50;not null" json:"exerciseType"`
	Weight       decimal.NullDecimal `gorm:"type:decimal(6,2)" json:"weight"`
	Reps         *int                `json:"reps"`
	Distance     decimal.NullDecimal `gorm:"type:decimal(8,2)" json:"distance"`
	RecordedDate Date                `gorm:"type:date;not null" json:"recordedDate"`
	Notes        *string             `json:"notes"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// Gym groups athletes under a shared leaderboard.
type Gym struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Slug       string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	InviteCode string    `gorm:"size:16;uniqueIndex;not null" json:"inviteCode,omitempty"`
	CreatedBy  uint      `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// GymRequestStatus tracks the review state of a gym request.
type GymRequestStatus string

const (
	GymRequestPending  GymRequestStatus = "pending"
	GymRequestApproved GymRequestStatus = "approved"
	GymRequestRejected GymRequestStatus = "rejected"
)

// GymRequest asks an admin to create a gym.
type GymRequest struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"size:255;not null" json:"name"`
	RequestedBy uint             `gorm:"index;not null" json:"requestedBy"`
	Status      GymRequestStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	ReviewedBy  *uint            `json:"reviewedBy"`
	GymID       *uint            `json:"gymId"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// All lists every model for schema migration.
func All() []any {
	return []any{&User{}, &Athlete{}, &WeightEntry{}, &LiftRecord{}, &Gym{}, &GymRequest{}}
}
