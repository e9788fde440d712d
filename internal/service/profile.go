package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	vs "voltage_sweeper"
	"voltage_sweeper/internal/repository"
)

var errEmptyProfileName = errors.New("profile name is empty")

type ProfileService struct {
	profileRepo repository.ProfileRepo
}

func NewProfileService(profiles repository.ProfileRepo) *ProfileService {
	return &ProfileService{profileRepo: profiles}
}

// Save stores the settings under a new profile id.
func (s *ProfileService) Save(ctx context.Context, name string, settings vs.SweepSettings) (vs.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return vs.Profile{}, errEmptyProfileName
	}
	now := time.Now().UTC()
	p := vs.Profile{
		ID:        uuid.NewString(),
		Name:      name,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profileRepo.Save(ctx, p); err != nil {
		return vs.Profile{}, err
	}
	return p, nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (vs.Profile, error) {
	return s.profileRepo.Get(ctx, id)
}

func (s *ProfileService) List(ctx context.Context) ([]vs.Profile, error) {
	return s.profileRepo.List(ctx)
}

func (s *ProfileService) Delete(ctx context.Context, id string) error {
	return s.profileRepo.Delete(ctx, id)
}
