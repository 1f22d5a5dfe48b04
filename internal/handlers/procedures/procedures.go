// Package procedures registers the application's remote procedures.
package procedures

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/lildude/strengthboard/internal/athletes"
	"github.com/lildude/strengthboard/internal/gyms"
	"github.com/lildude/strengthboard/internal/model"
	"github.com/lildude/strengthboard/internal/rpc"
	"github.com/lildude/strengthboard/internal/serr"
	"github.com/lildude/strengthboard/internal/sessions"
)

// Version is reported by system.version.
const Version = "1.0.2"

// Identity is the part of the identity bridge the auth procedures use.
type Identity interface {
	Token(r *http.Request) string
	Forget(ctx context.Context, r *http.Request)
}

// Deps are the services behind the procedures.
type Deps struct {
	Athletes *athletes.Service
	Gyms     *gyms.Service
	Sessions *sessions.Store
	Identity Identity
}

// Success is the result of mutations that return nothing else.
type Success struct {
	Success bool `json:"success"`
}

var ok = Success{Success: true}

// Register adds every procedure to s.
func Register(s *rpc.Server, d Deps) {
	s.Register(system()...)
	s.Register(authProcedures(d)...)
	s.Register(leaderboard(d.Athletes)...)
	s.Register(athlete(d.Athletes)...)
	s.Register(gym(d.Gyms)...)
}

func system() []rpc.Procedure {
	return []rpc.Procedure{
		rpc.NewQuery("system.version", rpc.Public, func(context.Context, *rpc.Request, rpc.NoInput) (string, error) {
			return Version, nil
		}),
	}
}

func authProcedures(d Deps) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.NewQuery("auth.me", rpc.Public, func(_ context.Context, req *rpc.Request, _ rpc.NoInput) (*model.User, error) {
			return req.User, nil
		}),
		rpc.NewMutation("auth.session", rpc.Protected, func(_ context.Context, req *rpc.Request, _ rpc.NoInput) (Success, error) {
			if d.Sessions == nil {
				return Success{}, serr.BadRequest("Sessions are disabled")
			}
			token := bearer(req.HTTP)
			if token == "" {
				return Success{}, serr.BadRequest("An Authorization bearer token is required")
			}
			if err := d.Sessions.SaveToken(req.Writer, req.HTTP, token); err != nil {
				return Success{}, err
			}
			return ok, nil
		}),
		rpc.NewMutation("auth.logout", rpc.Public, func(ctx context.Context, req *rpc.Request, _ rpc.NoInput) (Success, error) {
			if d.Identity != nil {
				d.Identity.Forget(ctx, req.HTTP)
			}
			if err := d.Sessions.Clear(req.Writer, req.HTTP); err != nil {
				return Success{}, err
			}
			return ok, nil
		}),
	}
}

func bearer(r *http.Request) string {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// ExerciseInput selects the leaderboard column and an optional gym.
type ExerciseInput struct {
	Exercise string `json:"exercise"`
	GymID    *uint  `json:"gymId"`
}

func (in *ExerciseInput) Validate() error {
	if strings.TrimSpace(in.Exercise) == "" {
		return errors.New("exercise is required")
	}
	return nil
}

func leaderboard(svc *athletes.Service) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.NewQuery("leaderboard.getAll", rpc.Public, func(ctx context.Context, _ *rpc.Request, _ rpc.NoInput) ([]model.Athlete, error) {
			return svc.All(ctx)
		}),
		rpc.NewQuery("leaderboard.getByExercise", rpc.Public, func(ctx context.Context, _ *rpc.Request, in ExerciseInput) ([]model.Athlete, error) {
			return svc.Leaderboard(ctx, in.Exercise, in.GymID)
		}),
	}
}

type IDInput struct {
	ID uint `json:"id"`
}

func (in *IDInput) Validate() error {
	if in.ID == 0 {
		return errors.New("id is required")
	}
	return nil
}

type HistoryInput struct {
	AthleteID    uint   `json:"athleteId"`
	ExerciseType string `json:"exerciseType"`
}

func (in *HistoryInput) Validate() error {
	if in.AthleteID == 0 {
		return errors.New("athleteId is required")
	}
	return nil
}

func athlete(svc *athletes.Service) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.NewQuery("athlete.getById", rpc.Public, func(ctx context.Context, _ *rpc.Request, in IDInput) (*model.Athlete, error) {
			return svc.GetByID(ctx, in.ID)
		}),
		rpc.NewQuery("athlete.getLiftHistory", rpc.Public, func(ctx context.Context, _ *rpc.Request, in HistoryInput) ([]model.LiftRecord, error) {
			return svc.LiftHistory(ctx, in.AthleteID, in.ExerciseType)
		}),
		rpc.NewQuery("athlete.getWeightHistory", rpc.Public, func(ctx context.Context, _ *rpc.Request, in HistoryInput) ([]model.WeightEntry, error) {
			return svc.WeightHistory(ctx, in.AthleteID)
		}),
		rpc.NewMutation("athlete.addLift", rpc.Protected, func(ctx context.Context, req *rpc.Request, in athletes.LiftInput) (*model.LiftRecord, error) {
			return svc.AddLift(ctx, req.User, in)
		}),
		rpc.NewMutation("athlete.addWeight", rpc.Protected, func(ctx context.Context, req *rpc.Request, in athletes.WeightInput) (*model.WeightEntry, error) {
			return svc.AddWeight(ctx, req.User, in)
		}),
		rpc.NewMutation("athlete.updateLift", rpc.Protected, func(ctx context.Context, req *rpc.Request, in athletes.LiftEdit) (*model.LiftRecord, error) {
			return svc.UpdateLift(ctx, req.User, in)
		}),
		rpc.NewMutation("athlete.updateProfile", rpc.Protected, func(ctx context.Context, req *rpc.Request, in athletes.ProfileUpdate) (*model.Athlete, error) {
			return svc.UpdateProfile(ctx, req.User, in)
		}),
		rpc.NewMutation("athlete.setupProfile", rpc.Protected, func(ctx context.Context, req *rpc.Request, in athletes.Setup) (*model.Athlete, error) {
			return svc.SetupProfile(ctx, req.User, in)
		}),
		rpc.NewMutation("athlete.importData", rpc.Admin, func(ctx context.Context, _ *rpc.Request, text string) (athletes.ImportResult, error) {
			return svc.Import(ctx, text), nil
		}),
	}
}

func gym(svc *gyms.Service) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.NewQuery("gym.getAll", rpc.Public, func(ctx context.Context, req *rpc.Request, _ rpc.NoInput) ([]model.Gym, error) {
			return svc.List(ctx, req.User)
		}),
		rpc.NewQuery("gym.getBySlug", rpc.Public, func(ctx context.Context, req *rpc.Request, in gyms.SlugInput) (*model.Gym, error) {
			return svc.BySlug(ctx, req.User, in.Slug)
		}),
		rpc.NewMutation("gym.join", rpc.Protected, func(ctx context.Context, req *rpc.Request, in gyms.JoinInput) (*model.Gym, error) {
			return svc.Join(ctx, req.User, in.InviteCode)
		}),
		rpc.NewMutation("gym.leave", rpc.Protected, func(ctx context.Context, req *rpc.Request, _ rpc.NoInput) (Success, error) {
			if err := svc.Leave(ctx, req.User); err != nil {
				return Success{}, err
			}
			return ok, nil
		}),
		rpc.NewMutation("gym.request", rpc.Protected, func(ctx context.Context, req *rpc.Request, in gyms.NameInput) (*model.GymRequest, error) {
			return svc.Request(ctx, req.User, in.Name)
		}),
		rpc.NewQuery("gym.myRequests", rpc.Protected, func(ctx context.Context, req *rpc.Request, _ rpc.NoInput) ([]model.GymRequest, error) {
			return svc.MyRequests(ctx, req.User)
		}),
		rpc.NewQuery("gym.listRequests", rpc.Admin, func(ctx context.Context, _ *rpc.Request, in gyms.StatusInput) ([]model.GymRequest, error) {
			return svc.ListRequests(ctx, in.Status)
		}),
		rpc.NewMutation("gym.review", rpc.Admin, func(ctx context.Context, req *rpc.Request, in gyms.ReviewInput) (*model.GymRequest, error) {
			return svc.Review(ctx, req.User, in)
		}),
		rpc.NewMutation("gym.create", rpc.Admin, func(ctx context.Context, req *rpc.Request, in gyms.NameInput) (*model.Gym, error) {
			return svc.Create(ctx, req.User, in.Name)
		}),
	}
}
