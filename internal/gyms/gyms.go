// Package gyms manages gyms, membership by invite code and the requests
// users make for new gyms.
package gyms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/lildude/strengthboard/internal/database"
	"github.com/lildude/strengthboard/internal/model"
	"github.com/lildude/strengthboard/internal/serr"
	"github.com/sirupsen/logrus"
)

type Service struct {
	store *database.Store
	log   logrus.FieldLogger
}

var (
	errNameTaken = errors.New("gym name is taken")
	errSlugTaken = errors.New("gym slug is taken")
)

// inviteCodeAttempts bounds the search for an unused invite code.
const inviteCodeAttempts = 5

var inviteCode = NewInviteCode

func NewService(store *database.Store, log logrus.FieldLogger) *Service {
	return &Service{store: store, log: log}
}

// NameInput names a gym to create or request.
type NameInput struct {
	Name string `json:"name"`
}

func (in *NameInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return errors.New("name is required")
	}
	if len(name) > 255 {
		return errors.New("name must be at most 255 characters")
	}
	if slug.Make(name) == "" {
		return errors.New("name must contain letters or digits")
	}
	return nil
}

type JoinInput struct {
	InviteCode string `json:"inviteCode"`
}

func (in *JoinInput) Validate() error {
	if strings.TrimSpace(in.InviteCode) == "" {
		return errors.New("inviteCode is required")
	}
	return nil
}

type ReviewInput struct {
	RequestID uint `json:"requestId"`
	Approve   bool `json:"approve"`
}

func (in *ReviewInput) Validate() error {
	if in.RequestID == 0 {
		return errors.New("requestId is required")
	}
	return nil
}

// List returns every gym. Invite codes are only shown to the viewer's own
// gyms, or to admins.
func (s *Service) List(ctx context.Context, viewer *model.User) ([]model.Gym, error) {
	gyms, err := s.store.ListGyms(ctx)
	if err != nil {
		return nil, err
	}
	for i := range gyms {
		redact(&gyms[i], viewer)
	}
	return gyms, nil
}

// BySlug returns nil without an error when no gym has the slug.
func (s *Service) BySlug(ctx context.Context, viewer *model.User, slug string) (*model.Gym, error) {
	g, err := s.store.GetGymBySlug(ctx, slug)
	if err != nil || g == nil {
		return nil, err
	}
	redact(g, viewer)
	return g, nil
}

func redact(g *model.Gym, viewer *model.User) {
	if viewer.IsAdmin() || (viewer != nil && viewer.ID == g.CreatedBy) {
		return
	}
	g.InviteCode = ""
}

// Create adds a gym with a slug derived from its name and a fresh invite
// code.
func (s *Service) Create(ctx context.Context, u *model.User, name string) (*model.Gym, error) {
	g, err := create(ctx, s.store, u.ID, name)
	if err != nil {
		return nil, createError(err)
	}
	if g != nil {
		s.log.WithFields(logrus.Fields{"gym_id": g.ID, "slug": g.Slug, "user_id": u.ID}).Info("created gym")
	}
	return g, nil
}

// create checks the slug and picks an unused invite code before inserting,
// so a clash is reported by the column it hits.
func create(ctx context.Context, store *database.Store, creator uint, name string) (*model.Gym, error) {
	name = strings.TrimSpace(name)
	g := &model.Gym{Name: name, Slug: slug.Make(name), CreatedBy: creator}

	existing, err := store.GetGymBySlug(ctx, g.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Name == name {
			return nil, fmt.Errorf("creating gym %q: %w", name, errNameTaken)
		}
		return nil, fmt.Errorf("creating gym %q: slug %q is used by %q: %w", name, g.Slug, existing.Name, errSlugTaken)
	}

	for i := 0; i < inviteCodeAttempts && g.InviteCode == ""; i++ {
		code := inviteCode()
		other, err := store.GetGymByInviteCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if other == nil {
			g.InviteCode = code
		}
	}
	if g.InviteCode == "" {
		return nil, fmt.Errorf("creating gym %q: no unused invite code after %d attempts", name, inviteCodeAttempts)
	}

	return store.CreateGym(ctx, g)
}

func createError(err error) error {
	switch {
	case errors.Is(err, errSlugTaken):
		return serr.NewServiceError(err, http.StatusConflict, "A gym with a similar name already exists")
	case errors.Is(err, errNameTaken), errors.Is(err, database.ErrExists):
		return serr.NewServiceError(err, http.StatusConflict, "A gym with that name already exists")
	}
	return err
}

// NewInviteCode returns eight random upper-case hex characters.
func NewInviteCode() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// Join moves the user's athlete into the gym with the invite code.
func (s *Service) Join(ctx context.Context, u *model.User, code string) (*model.Gym, error) {
	if u.AthleteID == nil {
		return nil, serr.BadRequest("Set up your athlete profile before joining a gym")
	}
	g, err := s.store.GetGymByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if g == nil {
		if !s.store.Available() {
			return nil, nil
		}
		return nil, serr.NotFound("Invalid invite code")
	}
	if err := s.store.SetAthleteGym(ctx, *u.AthleteID, &g.ID); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"gym_id": g.ID, "athlete_id": *u.AthleteID}).Info("athlete joined gym")
	return g, nil
}

// Leave removes the user's athlete from its gym.
func (s *Service) Leave(ctx context.Context, u *model.User) error {
	if u.AthleteID == nil {
		return serr.BadRequest("You do not have an athlete profile")
	}
	return s.store.SetAthleteGym(ctx, *u.AthleteID, nil)
}

// Request asks an admin to create a gym.
func (s *Service) Request(ctx context.Context, u *model.User, name string) (*model.GymRequest, error) {
	return s.store.CreateGymRequest(ctx, &model.GymRequest{
		Name:        strings.TrimSpace(name),
		RequestedBy: u.ID,
	})
}

func (s *Service) MyRequests(ctx context.Context, u *model.User) ([]model.GymRequest, error) {
	return s.store.ListGymRequests(ctx, database.GymRequestFilter{RequestedBy: u.ID})
}

func (s *Service) ListRequests(ctx context.Context, status model.GymRequestStatus) ([]model.GymRequest, error) {
	return s.store.ListGymRequests(ctx, database.GymRequestFilter{Status: status})
}

// Review approves or rejects a pending request. Approval creates the gym in
// the same transaction.
func (s *Service) Review(ctx context.Context, reviewer *model.User, in ReviewInput) (*model.GymRequest, error) {
	var reviewed *model.GymRequest
	err := s.store.WithTx(ctx, func(tx *database.Store) error {
		req, err := tx.GetGymRequest(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if req == nil {
			if !tx.Available() {
				return nil
			}
			return serr.NotFound("Gym request not found")
		}
		if req.Status != model.GymRequestPending {
			return serr.BadRequest("Gym request has already been %s", req.Status)
		}

		status := model.GymRequestRejected
		var gymID *uint
		if in.Approve {
			g, err := create(ctx, tx, req.RequestedBy, req.Name)
			if err != nil {
				return createError(err)
			}
			status = model.GymRequestApproved
			gymID = &g.ID
		}

		reviewed, err = tx.ReviewGymRequest(ctx, req.ID, status, reviewer.ID, gymID)
		return err
	})
	if err != nil {
		var se *serr.ServiceError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, fmt.Errorf("reviewing gym request %d: %w", in.RequestID, err)
	}
	if reviewed != nil {
		s.log.WithFields(logrus.Fields{"request_id": reviewed.ID, "status": reviewed.Status, "reviewer": reviewer.ID}).Info("reviewed gym request")
	}
	return reviewed, nil
}

// StatusInput filters the request list. An empty status lists all requests.
type StatusInput struct {
	Status model.GymRequestStatus `json:"status"`
}

func (in *StatusInput) Validate() error {
	switch in.Status {
	case "", model.GymRequestPending, model.GymRequestApproved, model.GymRequestRejected:
		return nil
	}
	return fmt.Errorf("unknown status %q", in.Status)
}

// SlugInput looks up a gym by slug.
type SlugInput struct {
	Slug string `json:"slug"`
}

func (in *SlugInput) Validate() error {
	if strings.TrimSpace(in.Slug) == "" {
		return errors.New("slug is required")
	}
	return nil
}
