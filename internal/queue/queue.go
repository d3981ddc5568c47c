// Package queue is a Redis-list job queue connecting the API to the
// analysis worker. Jobs are small JSON envelopes; the worker reloads all
// state from the database, so a lost job is re-enqueueable at any time.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job types.
const (
	JobAnalyzeVersion    = "analyze_version"
	JobAnalyzeComparison = "analyze_comparison"
)

// Job is one unit of background work.
type Job struct {
	Type         string    `json:"type"`
	VersionID    uint64    `json:"version_id,omitempty"`
	ComparisonID uint64    `json:"comparison_id,omitempty"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// ErrClosed is returned by Dequeue when the queue has no Redis client.
var ErrClosed = errors.New("queue: no redis connection")

// Queue pushes and pops jobs on a single Redis list.
type Queue struct {
	client *redis.Client
	key    string
}

// New creates a queue over the given Redis list key.
func New(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

// Enqueue pushes a job. The timestamp is stamped here so consumers can
// measure queue latency.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if q.client == nil {
		return ErrClosed
	}
	job.EnqueuedAt = time.Now()
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

// Dequeue blocks up to timeout for the next job. A nil job with nil
// error means the timeout elapsed with nothing to do.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	if q.client == nil {
		return nil, ErrClosed
	}
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Depth reports the number of pending jobs.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	if q.client == nil {
		return 0, ErrClosed
	}
	return q.client.LLen(ctx, q.key).Result()
}
