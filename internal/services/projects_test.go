package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"portfolio-backend/internal/models"
)

type stubProjectStore struct {
	projects   []models.Project
	lastUpdate models.UpdateProjectRequest
	updateErr  error
	seeded     []models.Project
	deleted    []uuid.UUID
}

func (s *stubProjectStore) List(ctx context.Context) ([]models.Project, error) {
	return s.projects, nil
}

func (s *stubProjectStore) Count(ctx context.Context) (int, error) {
	return len(s.projects), nil
}

func (s *stubProjectStore) Create(ctx context.Context, p *models.Project) error {
	p.ID = uuid.New()
	p.Order = len(s.projects)
	s.projects = append(s.projects, *p)
	return nil
}

func (s *stubProjectStore) Update(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest) (*models.Project, error) {
	s.lastUpdate = req
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &models.Project{ID: id}, nil
}

func (s *stubProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubProjectStore) SeedIfEmpty(ctx context.Context, defaults []models.Project) (bool, int, error) {
	if len(s.projects) > 0 {
		return false, len(s.projects), nil
	}
	s.seeded = defaults
	s.projects = defaults
	return true, len(defaults), nil
}

func TestProjectService_CreateRequiresFields(t *testing.T) {
	svc := NewProjectService(&stubProjectStore{}, nil)

	bad := []models.CreateProjectRequest{
		{Description: "d", Tech: []string{"Go"}},
		{Title: "t", Tech: []string{"Go"}},
		{Title: "t", Description: "d"},
		{Title: "t", Description: "d", Tech: []string{" "}},
	}
	for i, req := range bad {
		_, err := svc.Create(context.Background(), req)
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Message != "Title, description, and tech are required" {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestProjectService_CreatePublishesEvent(t *testing.T) {
	events := &stubEvents{}
	svc := NewProjectService(&stubProjectStore{}, events)

	p, err := svc.Create(context.Background(), models.CreateProjectRequest{Title: "t", Description: "d", Tech: []string{"Go", ""}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Tech) != 1 || p.Tech[0] != "Go" {
		t.Fatalf("expected cleaned tech, got %v", p.Tech)
	}
	if len(events.events) != 1 || events.events[0].Type != models.EventProjectChanged {
		t.Fatalf("expected project_changed event, got %v", events.events)
	}
}

func TestProjectService_UpdateIgnoresEmptyRequiredFields(t *testing.T) {
	store := &stubProjectStore{}
	svc := NewProjectService(store, nil)

	empty := ""
	image := ""
	_, err := svc.Update(context.Background(), uuid.New(), models.UpdateProjectRequest{
		Title: &empty,
		Tech:  []string{},
		Image: &image,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastUpdate.Title != nil {
		t.Fatalf("empty title must be ignored")
	}
	if store.lastUpdate.Tech != nil {
		t.Fatalf("empty tech must be ignored")
	}
	if store.lastUpdate.Image == nil || *store.lastUpdate.Image != "" {
		t.Fatalf("present image must be applied even when empty")
	}
}

func TestProjectService_UpdateNotFound(t *testing.T) {
	svc := NewProjectService(&stubProjectStore{updateErr: pgx.ErrNoRows}, nil)

	_, err := svc.Update(context.Background(), uuid.New(), models.UpdateProjectRequest{})
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Message != "Project not found" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestProjectService_InitDefaults(t *testing.T) {
	store := &stubProjectStore{}
	svc := NewProjectService(store, nil)

	res, err := svc.InitDefaults(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Inserted || res.Count != 6 {
		t.Fatalf("expected 6 inserted, got %+v", res)
	}
	for i, p := range store.seeded {
		if p.Order != i {
			t.Errorf("default %q: expected order %d, got %d", p.Title, i, p.Order)
		}
		if len(p.Tech) == 0 {
			t.Errorf("default %q has no tech", p.Title)
		}
	}

	res, err = svc.InitDefaults(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Inserted || res.Count != 6 {
		t.Fatalf("expected no-op with count 6, got %+v", res)
	}
}
