package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"portfolio-backend/internal/logger"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

const maxAttempts = 3

// Notifier delivers contact notifications. *services.EmailService satisfies it.
type Notifier interface {
	SendContactNotification(to string, n services.ContactNotification) error
}

type Pool struct {
	redis       *redis.Client
	notifier    Notifier
	ownerEmail  string
	metrics     *metrics.Metrics
	workerCount int
	pollTimeout time.Duration
	retryBase   time.Duration
	log         zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Retries waiting out their backoff, keyed by sequence number.
	retryMu  sync.Mutex
	retrySeq uint64
	retries  map[uint64]*pendingRetry
	retryWG  sync.WaitGroup
}

type pendingRetry struct {
	jobID   string
	queue   string
	payload string
	timer   *time.Timer
}

func NewPool(redisClient *redis.Client, notifier Notifier, ownerEmail string, m *metrics.Metrics, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		redis:       redisClient,
		notifier:    notifier,
		ownerEmail:  ownerEmail,
		metrics:     m,
		workerCount: workerCount,
		pollTimeout: 5 * time.Second,
		retryBase:   time.Second,
		log:         logger.Component("worker"),
		ctx:         ctx,
		cancel:      cancel,
		retries:     make(map[uint64]*pendingRetry),
	}
}

func (p *Pool) Start() {
	queues := []string{
		queueName(models.JobTypeContactNotification),
	}

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i, queues)
	}

	p.log.Info().Int("workers", p.workerCount).Msg("started worker goroutines")
}

// Stop cancels in-flight polls and waits for workers to exit. Retries still
// waiting out their backoff are pushed back onto their queue immediately.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.flushRetries()
}

func (p *Pool) worker(id int, queues []string) {
	defer p.wg.Done()
	log := p.log.With().Int("worker", id).Logger()

	for {
		select {
		case <-p.ctx.Done():
			log.Info().Msg("worker shutting down")
			return
		default:
		}

		result, err := p.redis.BLPop(p.ctx, p.pollTimeout, queues...).Result()
		if err != nil {
			continue // Timeout, shutdown or transient error
		}
		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Error().Err(err).Msg("failed to parse job")
			continue
		}

		p.run(log, &job)
	}
}

func (p *Pool) run(log zerolog.Logger, job *models.Job) {
	ctx := p.ctx

	// Try to acquire lock
	lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
	locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
	if err != nil || !locked {
		return // Another worker has this job
	}
	defer p.redis.Del(context.Background(), lockKey)

	log.Debug().Str("job_id", job.ID.String()).Str("type", job.Type).Msg("processing job")

	var processErr error
	switch job.Type {
	case models.JobTypeContactNotification:
		processErr = p.processContactNotification(job)
	default:
		processErr = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if processErr != nil {
		p.handleFailure(log, job, processErr)
		return
	}
	p.record(job.Type, "completed")
	log.Info().Str("job_id", job.ID.String()).Msg("job completed")
}

func (p *Pool) processContactNotification(job *models.Job) error {
	if p.ownerEmail == "" {
		p.log.Debug().Msg("OWNER_EMAIL not set, skipping contact notification")
		return nil
	}

	var n services.ContactNotification
	if err := json.Unmarshal(job.Payload, &n); err != nil {
		return fmt.Errorf("invalid contact notification payload: %w", err)
	}
	return p.notifier.SendContactNotification(p.ownerEmail, n)
}

func (p *Pool) handleFailure(log zerolog.Logger, job *models.Job, err error) {
	job.RetryCount++

	if job.RetryCount >= maxAttempts {
		log.Error().Err(err).Str("job_id", job.ID.String()).Msg("job failed permanently")
		p.record(job.Type, "failed")
		return
	}

	jobBytes, marshalErr := json.Marshal(job)
	if marshalErr != nil {
		log.Error().Err(marshalErr).Str("job_id", job.ID.String()).Msg("failed to encode job for retry")
		p.record(job.Type, "failed")
		return
	}

	log.Warn().Err(err).Str("job_id", job.ID.String()).Int("attempt", job.RetryCount).Msg("job failed, retrying")
	p.record(job.Type, "retried")

	backoff := time.Duration(1<<uint(job.RetryCount)) * p.retryBase
	p.scheduleRetry(job.ID.String(), queueName(job.Type), string(jobBytes), backoff)
}

// scheduleRetry re-queues payload after backoff unless Stop flushes it first.
func (p *Pool) scheduleRetry(jobID, queue, payload string, backoff time.Duration) {
	p.retryMu.Lock()
	defer p.retryMu.Unlock()

	p.retrySeq++
	seq := p.retrySeq
	r := &pendingRetry{jobID: jobID, queue: queue, payload: payload}
	r.timer = time.AfterFunc(backoff, func() {
		p.retryMu.Lock()
		if p.ctx.Err() != nil {
			// Stop owns the remaining retries.
			p.retryMu.Unlock()
			return
		}
		delete(p.retries, seq)
		p.retryWG.Add(1)
		p.retryMu.Unlock()

		defer p.retryWG.Done()
		p.pushRetry(r)
	})
	p.retries[seq] = r
}

func (p *Pool) flushRetries() {
	p.retryMu.Lock()
	pending := make([]*pendingRetry, 0, len(p.retries))
	for seq, r := range p.retries {
		r.timer.Stop()
		pending = append(pending, r)
		delete(p.retries, seq)
	}
	p.retryMu.Unlock()

	for _, r := range pending {
		p.pushRetry(r)
	}
	p.retryWG.Wait()
}

func (p *Pool) pushRetry(r *pendingRetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.redis.LPush(ctx, r.queue, r.payload).Err(); err != nil {
		p.log.Error().Err(err).Str("job_id", r.jobID).Str("queue", r.queue).Msg("failed to re-queue job")
	}
}

func (p *Pool) record(jobType, status string) {
	if p.metrics != nil {
		p.metrics.JobsProcessedTotal.WithLabelValues(jobType, status).Inc()
	}
}
