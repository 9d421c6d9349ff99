package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ErrorResponse is the flat error payload every endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

type AdminLoginRequest struct {
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Job is a unit of background work pushed onto a Redis list.
type Job struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount int             `json:"retry_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

const JobTypeContactNotification = "contact-notification"

// WSMessage is an event pushed to connected admin dashboards.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventContactCreated = "contact_created"
	EventProjectChanged = "project_changed"
)
