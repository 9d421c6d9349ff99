package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"portfolio-backend/internal/models"
)

const queuePrefix = "queue:"

func queueName(jobType string) string {
	return queuePrefix + jobType
}

// Queue pushes jobs onto per-type Redis lists consumed by Pool.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

func (q *Queue) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", jobType, err)
	}

	job := models.Job{
		ID:        uuid.New(),
		Type:      jobType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	if err := q.redis.LPush(ctx, queueName(jobType), string(jobBytes)).Err(); err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", jobType, err)
	}
	return nil
}
