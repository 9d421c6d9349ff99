package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"portfolio-backend/internal/logger"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type ContactStore interface {
	Create(ctx context.Context, c *models.Contact) error
	List(ctx context.Context) ([]models.Contact, error)
}

// JobEnqueuer pushes background work. *worker.Queue satisfies it.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}) error
}

// EventPublisher fans admin events out to dashboards. *websocket.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, msg models.WSMessage) error
}

// ContactNotification is the payload of a contact-notification job.
type ContactNotification struct {
	ContactID string `json:"contact_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

type ContactService struct {
	repo    ContactStore
	queue   JobEnqueuer
	events  EventPublisher
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewContactService wires contact handling. queue and events may be nil.
func NewContactService(repo ContactStore, queue JobEnqueuer, events EventPublisher, m *metrics.Metrics) *ContactService {
	return &ContactService{
		repo:    repo,
		queue:   queue,
		events:  events,
		metrics: m,
		log:     logger.Component("contact"),
	}
}

// Submit stores a contact form submission, then queues the owner notification
// and announces it to admin dashboards. Only the store write can fail the call.
func (s *ContactService) Submit(ctx context.Context, req models.ContactRequest) (*models.Contact, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" || req.Email == "" || req.Subject == "" || req.Message == "" {
		return nil, &ValidationError{Message: "All fields are required"}
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, &ValidationError{
			Message: "Invalid email format",
			Fields:  map[string]string{"email": "Invalid email format"},
		}
	}

	contact := &models.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, err
	}
	contact.Status = "new"

	if s.metrics != nil {
		s.metrics.ContactSubmissionsTotal.Inc()
	}

	if s.queue != nil {
		job := ContactNotification{
			ContactID: contact.ID.String(),
			Name:      contact.Name,
			Email:     contact.Email,
			Subject:   contact.Subject,
			Message:   contact.Message,
		}
		if err := s.queue.Enqueue(ctx, models.JobTypeContactNotification, job); err != nil {
			s.log.Error().Err(err).Str("contact_id", contact.ID.String()).Msg("failed to enqueue contact notification")
		}
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, models.WSMessage{Type: models.EventContactCreated, Payload: contact}); err != nil {
			s.log.Warn().Err(err).Msg("failed to publish contact_created event")
		}
	}

	s.log.Info().Str("contact_id", contact.ID.String()).Msg("contact submission saved")
	return contact, nil
}

// List returns all submissions newest first, each marked "new".
func (s *ContactService) List(ctx context.Context) ([]models.Contact, error) {
	contacts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		contacts[i].Status = "new"
	}
	return contacts, nil
}
