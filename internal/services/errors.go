package services

import "fmt"

// Custom errors
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation error"
}

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

// QuotaExceededError is a policy outcome: the identity has used today's questions.
type QuotaExceededError struct {
	QuestionsAsked int
	MaxQuestions   int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %d/%d questions asked today", e.QuestionsAsked, e.MaxQuestions)
}

// UpstreamUnavailableError means the completion service is unconfigured or unreachable.
type UpstreamUnavailableError struct {
	NotConfigured bool
	Err           error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.NotConfigured {
		return "completion service not configured"
	}
	return fmt.Sprintf("completion service unavailable: %v", e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// UpstreamRejectedError means the completion service answered with a non-success status.
type UpstreamRejectedError struct {
	Status  int
	Details string
	Err     error
}

func (e *UpstreamRejectedError) Error() string {
	return fmt.Sprintf("completion service rejected request (status %d): %s", e.Status, e.Details)
}

func (e *UpstreamRejectedError) Unwrap() error { return e.Err }
