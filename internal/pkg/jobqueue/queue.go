package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/subamericanetwork/nx8up/internal/pkg/cache"
)

const (
	// Redis key prefixes
	JobKeyPrefix = "job:"
	JobQueueKey  = "job_queue"

	// Job settings
	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour // Jobs expire after 24 hours
)

// JobType identifies what a job does
type JobType string

const (
	// JobTypeSyncStats pulls fresh engagement metrics for one account
	JobTypeSyncStats JobType = "sync_social_stats"
	// JobTypeMirrorAvatar copies a provider avatar into our own storage
	JobTypeMirrorAvatar JobType = "mirror_profile_image"
)

// Job is one unit of background work
type Job struct {
	ID         string            `json:"id"`
	Type       JobType           `json:"type"`
	Payload    map[string]string `json:"payload"`
	Retries    int               `json:"retries"`
	MaxRetries int               `json:"max_retries"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Processor handles jobs of the types it claims
type Processor interface {
	CanProcess(t JobType) bool
	Process(ctx context.Context, job *Job) error
}

// Queue manages background jobs using Redis
type Queue struct {
	client     *redis.Client
	workers    int
	processors []Processor
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewQueue creates a new job queue
func NewQueue(workers int) *Queue {
	if workers <= 0 {
		workers = 3 // Default number of workers
	}
	return &Queue{
		client:  cache.GetClient(),
		workers: workers,
		stopCh:  make(chan struct{}),
	}
}

// RegisterProcessor adds a processor; call before Start
func (q *Queue) RegisterProcessor(p Processor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processors = append(q.processors, p)
}

// Start starts the job queue workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop stops the workers and waits for them to drain
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopCh)
	q.mu.Unlock()

	q.wg.Wait()
	log.Info("[JobQueue] Stopped")
}

// Enqueue adds a new job to the queue
func (q *Queue) Enqueue(jobType JobType, payload map[string]string) (string, error) {
	job := &Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Payload:    payload,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
	}
	return job.ID, q.push(job)
}

func (q *Queue) push(job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	ctx := context.Background()
	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL)
	pipe.LPush(ctx, JobQueueKey, data)
	_, err = pipe.Exec(ctx)
	return err
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		res, err := q.client.BRPop(ctx, 2*time.Second, JobQueueKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[JobQueue] worker %d: pop failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(res) < 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			log.Errorf("[JobQueue] worker %d: corrupt job dropped: %v", id, err)
			continue
		}

		q.process(ctx, id, &job)
	}
}

func (q *Queue) process(ctx context.Context, worker int, job *Job) {
	for _, p := range q.processors {
		if !p.CanProcess(job.Type) {
			continue
		}
		if err := p.Process(ctx, job); err != nil {
			if job.Retries < job.MaxRetries {
				job.Retries++
				log.Warnf("[JobQueue] worker %d: job %s failed (retry %d/%d): %v",
					worker, job.ID, job.Retries, job.MaxRetries, err)
				if pushErr := q.push(job); pushErr != nil {
					log.Errorf("[JobQueue] worker %d: requeue of %s failed: %v", worker, job.ID, pushErr)
				}
			} else {
				log.Errorf("[JobQueue] worker %d: job %s gave up after %d retries: %v",
					worker, job.ID, job.MaxRetries, err)
			}
		}
		return
	}
	log.Warnf("[JobQueue] no processor for job type %s", job.Type)
}
