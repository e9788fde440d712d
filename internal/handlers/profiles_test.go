package handlers

import (
	"context"
	"net/http"
	"testing"

	vs "voltage_sweeper"
	"voltage_sweeper/internal/repository"
	"voltage_sweeper/internal/service"
)

func TestSaveProfileOK(t *testing.T) {
	body := `{"name": "slow ramp", "settings": {"channel": 2, "start_voltage": 0, "end_voltage": 5, "step_size": 0.5, "dwell_seconds": 1}}`
	var gotName string
	h := testHandler(func(s *service.Service) {
		s.Profiles = mockProfiles{saveFn: func(ctx context.Context, name string, settings vs.SweepSettings) (vs.Profile, error) {
			gotName = name
			return vs.Profile{ID: "p1", Name: name, Settings: settings}, nil
		}}
	})

	w := doRequest(h, http.MethodPost, "/api/v1/profiles/", body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200 (%s)", w.Code, w.Body.String())
	}
	if gotName != "slow ramp" {
		t.Fatalf("name %q not forwarded", gotName)
	}
}

func TestSaveProfileMissingNameIs400(t *testing.T) {
	body := `{"settings": {"channel": 2, "start_voltage": 0, "end_voltage": 5, "step_size": 0.5}}`
	w := doRequest(testHandler(), http.MethodPost, "/api/v1/profiles/", body, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	h := testHandler(func(s *service.Service) {
		s.Profiles = mockProfiles{getFn: func(ctx context.Context, id string) (vs.Profile, error) {
			return vs.Profile{}, repository.ErrProfileNotFound
		}}
	})
	w := doRequest(h, http.MethodGet, "/api/v1/profiles/ghost", "", true)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

func TestDeleteProfileNotFound(t *testing.T) {
	h := testHandler(func(s *service.Service) {
		s.Profiles = mockProfiles{deleteFn: func(ctx context.Context, id string) error {
			return repository.ErrProfileNotFound
		}}
	})
	w := doRequest(h, http.MethodDelete, "/api/v1/profiles/ghost", "", true)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}
