package database

import (
	"context"
	"fmt"

	"github.com/lildude/strengthboard/internal/model"
)

func (s *Store) ListGyms(ctx context.Context) ([]model.Gym, error) {
	if s.unavailable("ListGyms") {
		return []model.Gym{}, nil
	}
	gyms := []model.Gym{}
	if err := s.conn(ctx).Order("name ASC").Find(&gyms).Error; err != nil {
		return nil, fmt.Errorf("listing gyms: %w", err)
	}
	return gyms, nil
}

func (s *Store) GetGymByID(ctx context.Context, id uint) (*model.Gym, error) {
	return s.getGym(ctx, "id", id)
}

func (s *Store) GetGymBySlug(ctx context.Context, slug string) (*model.Gym, error) {
	return s.getGym(ctx, "slug", slug)
}

func (s *Store) GetGymByInviteCode(ctx context.Context, code string) (*model.Gym, error) {
	return s.getGym(ctx, "invite_code", code)
}

func (s *Store) getGym(ctx context.Context, col string, v any) (*model.Gym, error) {
	if s.unavailable("GetGym") {
		return nil, nil
	}
	g, err := first[model.Gym](s.conn(ctx).Where(col+" = ?", v))
	if err != nil {
		return nil, fmt.Errorf("getting gym by %s: %w", col, err)
	}
	return g, nil
}

func (s *Store) CreateGym(ctx context.Context, g *model.Gym) (*model.Gym, error) {
	if s.unavailable("CreateGym") {
		return nil, nil
	}
	if err := s.conn(ctx).Create(g).Error; err != nil {
		return nil, fmt.Errorf("creating gym %q: %w", g.Name, translate(err))
	}
	return g, nil
}

func (s *Store) CreateGymRequest(ctx context.Context, r *model.GymRequest) (*model.GymRequest, error) {
	if s.unavailable("CreateGymRequest") {
		return nil, nil
	}
	if r.Status == "" {
		r.Status = model.GymRequestPending
	}
	if err := s.conn(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("creating gym request %q: %w", r.Name, err)
	}
	return r, nil
}

// GymRequestFilter narrows ListGymRequests. Zero values match everything.
type GymRequestFilter struct {
	Status      model.GymRequestStatus
	RequestedBy uint
}

func (s *Store) ListGymRequests(ctx context.Context, f GymRequestFilter) ([]model.GymRequest, error) {
	if s.unavailable("ListGymRequests") {
		return []model.GymRequest{}, nil
	}

	q := s.conn(ctx)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RequestedBy != 0 {
		q = q.Where("requested_by = ?", f.RequestedBy)
	}

	requests := []model.GymRequest{}
	if err := q.Order("created_at ASC").Order("id ASC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("listing gym requests: %w", err)
	}
	return requests, nil
}

func (s *Store) GetGymRequest(ctx context.Context, id uint) (*model.GymRequest, error) {
	if s.unavailable("GetGymRequest") {
		return nil, nil
	}
	r, err := first[model.GymRequest](s.conn(ctx).Where("id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting gym request %d: %w", id, err)
	}
	return r, nil
}

// ReviewGymRequest records the outcome of a review. gymID is set for
// approved requests.
func (s *Store) ReviewGymRequest(ctx context.Context, id uint, status model.GymRequestStatus, reviewer uint, gymID *uint) (*model.GymRequest, error) {
	if s.unavailable("ReviewGymRequest") {
		return nil, nil
	}
	err := s.conn(ctx).Model(&model.GymRequest{}).Where("id = ?", id).Updates(map[string]any{
		"status":      status,
		"reviewed_by": reviewer,
		"gym_id":      gymID,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("reviewing gym request %d: %w", id, err)
	}
	return s.GetGymRequest(ctx, id)
}
