package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-backend/internal/models"
)

const projectColumns = `id, title, description, tech, image, github, demo, order_num, created_at`

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

// List returns all projects by ascending display order.
func (r *ProjectRepo) List(ctx context.Context) ([]models.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY order_num ASC, created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n)
	return n, err
}

// Create appends p after the current last project.
func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	tech, err := json.Marshal(p.Tech)
	if err != nil {
		return fmt.Errorf("failed to encode tech: %w", err)
	}

	query := `
		INSERT INTO projects (id, title, description, tech, image, github, demo, order_num)
		SELECT $1::uuid, $2::text, $3::text, $4::jsonb, $5::text, $6::text, $7::text, COALESCE(MAX(order_num) + 1, 0) FROM projects
		RETURNING order_num, created_at`

	p.ID = uuid.New()
	return r.pool.QueryRow(ctx, query,
		p.ID, p.Title, p.Description, tech, p.Image, p.Github, p.Demo,
	).Scan(&p.Order, &p.CreatedAt)
}

// Update applies the non-nil fields of req. Returns pgx.ErrNoRows when id does not exist.
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest) (*models.Project, error) {
	var tech []byte
	if req.Tech != nil {
		encoded, err := json.Marshal(req.Tech)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tech: %w", err)
		}
		tech = encoded
	}

	query := `
		UPDATE projects SET
			title       = COALESCE($2::text, title),
			description = COALESCE($3::text, description),
			tech        = COALESCE($4::jsonb, tech),
			image       = COALESCE($5::text, image),
			github      = COALESCE($6::text, github),
			demo        = COALESCE($7::text, demo)
		WHERE id = $1
		RETURNING ` + projectColumns

	return scanProject(r.pool.QueryRow(ctx, query,
		id, req.Title, req.Description, tech, req.Image, req.Github, req.Demo,
	))
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

// SeedIfEmpty inserts defaults when the table has no rows. It returns whether
// anything was inserted and the resulting project count.
func (r *ProjectRepo) SeedIfEmpty(ctx context.Context, defaults []models.Project) (bool, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback(ctx)

	// Serialises concurrent seeders.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('projects_seed'))`); err != nil {
		return false, 0, err
	}

	var existing int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&existing); err != nil {
		return false, 0, err
	}
	if existing > 0 {
		return false, existing, nil
	}

	batch := &pgx.Batch{}
	for _, p := range defaults {
		tech, err := json.Marshal(p.Tech)
		if err != nil {
			return false, 0, fmt.Errorf("failed to encode tech: %w", err)
		}
		batch.Queue(`
			INSERT INTO projects (id, title, description, tech, image, github, demo, order_num)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), p.Title, p.Description, tech, p.Image, p.Github, p.Demo, p.Order)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return false, 0, fmt.Errorf("failed to insert default projects: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, err
	}
	return true, len(defaults), nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var (
		p    models.Project
		tech []byte
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &tech, &p.Image, &p.Github, &p.Demo, &p.Order, &p.CreatedAt); err != nil {
		return nil, err
	}

	decoded, err := DecodeTech(tech)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", p.ID, err)
	}
	p.Tech = decoded
	return &p, nil
}

// DecodeTech reads the tech column. Older rows hold the array JSON-encoded a
// second time, as a string, so both forms are accepted.
func DecodeTech(raw []byte) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, nil
	}

	var tech []string
	if err := json.Unmarshal(raw, &tech); err == nil {
		if tech == nil {
			tech = []string{}
		}
		return tech, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("invalid tech value: %w", err)
	}
	if encoded == "" {
		return []string{}, nil
	}
	if err := json.Unmarshal([]byte(encoded), &tech); err != nil {
		return nil, fmt.Errorf("invalid tech value: %w", err)
	}
	if tech == nil {
		tech = []string{}
	}
	return tech, nil
}
