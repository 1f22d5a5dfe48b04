package auth

import (
	"strconv"

	"github.com/lildude/strengthboard/internal/model"
	"github.com/lildude/strengthboard/internal/serr"
)

// EnforceAthleteOwnership allows admins and the user linked to the athlete.
func EnforceAthleteOwnership(u *model.User, athleteID uint) error {
	if u == nil {
		return serr.Unauthorized("Unauthorized")
	}
	if u.IsAdmin() {
		return nil
	}
	if u.AthleteID == nil || *u.AthleteID != athleteID {
		se := serr.Forbidden("You do not have permission to edit this athlete profile")
		se.Env["user_id"] = strconv.FormatUint(uint64(u.ID), 10)
		se.Env["athlete_id"] = strconv.FormatUint(uint64(athleteID), 10)
		return se
	}
	return nil
}
