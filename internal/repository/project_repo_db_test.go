package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-backend/internal/database"
	"portfolio-backend/internal/models"
)

// newTestPool connects to PORTFOLIO_TEST_DATABASE_URL inside a throwaway,
// migrated schema.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("PORTFOLIO_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PORTFOLIO_TEST_DATABASE_URL not set")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	schema := fmt.Sprintf("repository_test_%d", time.Now().UnixNano())
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE")
		pool.Close()
	})

	if _, err := pool.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := database.RunMigrations(ctx, pool, "../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func TestProjectRepo_CreateAppendsOrder(t *testing.T) {
	repo := NewProjectRepo(newTestPool(t))
	ctx := context.Background()

	first := &models.Project{Title: "A", Description: "a", Tech: []string{"Go"}}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := &models.Project{Title: "B", Description: "b", Tech: []string{"Redis"}, Github: "https://github.com/x/b"}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	if first.Order != 0 || second.Order != 1 {
		t.Fatalf("expected orders 0 and 1, got %d and %d", first.Order, second.Order)
	}

	projects, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 2 || projects[0].ID != first.ID || projects[1].ID != second.ID {
		t.Fatalf("unexpected list order %+v", projects)
	}
	if !reflect.DeepEqual(projects[1].Tech, []string{"Redis"}) || projects[1].Github != "https://github.com/x/b" {
		t.Fatalf("unexpected stored project %+v", projects[1])
	}
}

func TestProjectRepo_UpdatePartial(t *testing.T) {
	repo := NewProjectRepo(newTestPool(t))
	ctx := context.Background()

	p := &models.Project{Title: "A", Description: "a", Tech: []string{"Go"}, Demo: "https://demo"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	title, demo := "Renamed", ""
	updated, err := repo.Update(ctx, p.ID, models.UpdateProjectRequest{Title: &title, Demo: &demo})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Renamed" || updated.Description != "a" || updated.Demo != "" {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if !reflect.DeepEqual(updated.Tech, []string{"Go"}) {
		t.Fatalf("tech must be unchanged, got %v", updated.Tech)
	}

	if _, err := repo.Update(ctx, uuid.New(), models.UpdateProjectRequest{Title: &title}); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows for missing project, got %v", err)
	}
}

func TestProjectRepo_SeedIfEmpty(t *testing.T) {
	repo := NewProjectRepo(newTestPool(t))
	ctx := context.Background()

	defaults := []models.Project{
		{Title: "One", Description: "1", Tech: []string{"Go"}, Order: 0},
		{Title: "Two", Description: "2", Tech: []string{"SQL"}, Order: 1},
	}

	inserted, count, err := repo.SeedIfEmpty(ctx, defaults)
	if err != nil || !inserted || count != 2 {
		t.Fatalf("expected seed of 2, got inserted=%v count=%d err=%v", inserted, count, err)
	}

	inserted, count, err = repo.SeedIfEmpty(ctx, defaults)
	if err != nil || inserted || count != 2 {
		t.Fatalf("expected no second seed, got inserted=%v count=%d err=%v", inserted, count, err)
	}
}

func TestProjectRepo_ListDecodesStringEncodedTech(t *testing.T) {
	pool := newTestPool(t)
	repo := NewProjectRepo(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO projects (id, title, description, tech)
		VALUES ($1, 'Legacy', 'old row', to_jsonb('["React","Node.js"]'::text))`, uuid.New())
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	projects, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 1 || !reflect.DeepEqual(projects[0].Tech, []string{"React", "Node.js"}) {
		t.Fatalf("unexpected decoded tech %+v", projects)
	}
}

func TestProjectRepo_Delete(t *testing.T) {
	repo := NewProjectRepo(newTestPool(t))
	ctx := context.Background()

	p := &models.Project{Title: "A", Description: "a", Tech: []string{"Go"}}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Fatalf("expected 0 projects, got %d", n)
	}
}
