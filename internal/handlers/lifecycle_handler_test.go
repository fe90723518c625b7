package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/PeppePc-EchoArachna/arachna-connect/internal/models"
	"github.com/PeppePc-EchoArachna/arachna-connect/internal/services"
)

type stubLifecycleService struct {
	upsertErr     error
	deleteErr     error
	lastProfile   *models.Profile
	lastDeletedID int64
}

func (s *stubLifecycleService) UpsertProfile(_ context.Context, profile *models.Profile) error {
	s.lastProfile = profile
	return s.upsertErr
}

func (s *stubLifecycleService) CascadeDeleteUser(_ context.Context, userID int64) error {
	s.lastDeletedID = userID
	return s.deleteErr
}

func newLifecycleApp(service *stubLifecycleService) *fiber.App {
	handler := NewLifecycleHandler(service)

	app := fiber.New()
	app.Put("/users/:id", handler.UpsertProfile)
	app.Delete("/users/:id", handler.DeleteUser)
	return app
}

func TestUpsertProfileMirrorsRecord(t *testing.T) {
	service := &stubLifecycleService{}
	app := newLifecycleApp(service)

	req := httptest.NewRequest(http.MethodPut, "/users/5",
		strings.NewReader(`{"display_name":"Rosa","role":"artist"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastProfile == nil || service.lastProfile.ID != 5 || service.lastProfile.Role != "artist" {
		t.Fatalf("unexpected profile %+v", service.lastProfile)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	service := &stubLifecycleService{}
	app := newLifecycleApp(service)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/users/5", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if service.lastDeletedID != 5 {
		t.Fatalf("expected delete of user 5, got %d", service.lastDeletedID)
	}
}

func TestDeleteUnknownUserIsNotFound(t *testing.T) {
	service := &stubLifecycleService{deleteErr: services.ErrUnknownUser}
	app := newLifecycleApp(service)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/users/5", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
