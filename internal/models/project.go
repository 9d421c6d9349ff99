package models

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tech        []string  `json:"tech"`
	Image       string    `json:"image"`
	Github      string    `json:"github"`
	Demo        string    `json:"demo"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateProjectRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tech        []string `json:"tech"`
	Image       string   `json:"image"`
	Github      string   `json:"github"`
	Demo        string   `json:"demo"`
}

// UpdateProjectRequest carries a partial update. Nil fields are left unchanged.
type UpdateProjectRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Tech        []string `json:"tech"`
	Image       *string  `json:"image"`
	Github      *string  `json:"github"`
	Demo        *string  `json:"demo"`
}
