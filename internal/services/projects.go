package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"portfolio-backend/internal/logger"
	"portfolio-backend/internal/models"
)

type ProjectStore interface {
	List(ctx context.Context) ([]models.Project, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, p *models.Project) error
	Update(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SeedIfEmpty(ctx context.Context, defaults []models.Project) (bool, int, error)
}

type ProjectService struct {
	repo   ProjectStore
	events EventPublisher
	log    zerolog.Logger
}

func NewProjectService(repo ProjectStore, events EventPublisher) *ProjectService {
	return &ProjectService{repo: repo, events: events, log: logger.Component("projects")}
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	return s.repo.List(ctx)
}

func (s *ProjectService) Create(ctx context.Context, req models.CreateProjectRequest) (*models.Project, error) {
	tech := cleanTech(req.Tech)
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" || len(tech) == 0 {
		return nil, &ValidationError{Message: "Title, description, and tech are required"}
	}

	p := &models.Project{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Tech:        tech,
		Image:       req.Image,
		Github:      req.Github,
		Demo:        req.Demo,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.announce(ctx, "created", p.ID)
	return p, nil
}

// Update applies a partial update. Empty title, description or tech are
// ignored; image, github and demo are replaced whenever present.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest) (*models.Project, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		req.Title = nil
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		req.Description = nil
	}
	if req.Tech != nil {
		req.Tech = cleanTech(req.Tech)
		if len(req.Tech) == 0 {
			req.Tech = nil
		}
	}

	p, err := s.repo.Update(ctx, id, req)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Message: "Project not found"}
	}
	if err != nil {
		return nil, err
	}

	s.announce(ctx, "updated", p.ID)
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.announce(ctx, "deleted", id)
	return nil
}

// SeedResult reports what InitDefaults did.
type SeedResult struct {
	Inserted bool
	Count    int
}

// InitDefaults inserts DefaultProjects when no project exists yet.
func (s *ProjectService) InitDefaults(ctx context.Context) (*SeedResult, error) {
	inserted, count, err := s.repo.SeedIfEmpty(ctx, DefaultProjects())
	if err != nil {
		return nil, err
	}
	if inserted {
		s.log.Info().Int("count", count).Msg("default projects initialized")
		s.announce(ctx, "seeded", uuid.Nil)
	}
	return &SeedResult{Inserted: inserted, Count: count}, nil
}

func (s *ProjectService) announce(ctx context.Context, action string, id uuid.UUID) {
	if s.events == nil {
		return
	}
	payload := map[string]string{"action": action}
	if id != uuid.Nil {
		payload["id"] = id.String()
	}
	if err := s.events.Publish(ctx, models.WSMessage{Type: models.EventProjectChanged, Payload: payload}); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish project_changed event")
	}
}

func cleanTech(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// DefaultProjects is the showcase inserted into an empty portfolio.
func DefaultProjects() []models.Project {
	return []models.Project{
		{
			Title:       "E-Commerce Platform",
			Description: "A full-featured e-commerce platform with payment integration, inventory management, and real-time analytics.",
			Tech:        []string{"React", "Node.js", "PostgreSQL", "Stripe"},
			Image:       "https://images.unsplash.com/photo-1557821552-17105176677c?w=800&q=80",
			Github:      "https://github.com",
			Demo:        "https://example.com",
			Order:       0,
		},
		{
			Title:       "Task Management App",
			Description: "Collaborative task management tool with real-time updates, team workspaces, and advanced filtering.",
			Tech:        []string{"Next.js", "TypeScript", "Supabase", "Tailwind"},
			Image:       "https://images.unsplash.com/photo-1454165804606-c3d57bc86b40?w=800&q=80",
			Github:      "https://github.com",
			Demo:        "https://example.com",
			Order:       1,
		},
		{
			Title:       "AI Content Generator",
			Description: "AI-powered content generation tool that helps create blog posts, social media content, and marketing copy.",
			Tech:        []string{"Vue.js", "Python", "OpenAI API", "MongoDB"},
			Image:       "https://images.unsplash.com/photo-1677442136019-21780ecad995?w=800&q=80",
			Github:      "https://github.com",
			Demo:        "https://example.com",
			Order:       2,
		},
		{
			Title:       "Fitness Tracking Dashboard",
			Description: "Comprehensive fitness tracking application with workout plans, nutrition tracking, and progress analytics.",
			Tech:        []string{"React Native", "Firebase", "Charts.js", "Redux"},
			Image:       "https://images.unsplash.com/photo-1517836357463-d25dfeac3438?w=800&q=80",
			Github:      "https://github.com",
			Demo:        "https://example.com",
			Order:       3,
		},
		{
			Title:       "Real Estate Marketplace",
			Description: "Property listing platform with advanced search, virtual tours, and integrated messaging system.",
			Tech:        []string{"Angular", "Express", "MySQL", "AWS S3"},
			Image:       "https://images.unsplash.com/photo-1560518883-ce09059eeffa?w=800&q=80",
			Github:      "https://github.com",
			Demo:        "https://example.com",
			Order:       4,
		},
		{
			Title:       "Developer Portfolio CMS",
			Description: "Content management system specifically designed for developers to showcase their projects and blog posts.",
			Tech:        []string{"Svelte", "Sanity.io", "Vercel", "MDX"},
			Image:       "https://images.unsplash.com/photo-1467232004584-a241de8bcf5d?w=800&q=80",
			Github:      "https://github.com",
			Demo:        "https://example.com",
			Order:       5,
		},
	}
}
