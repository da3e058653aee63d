package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"

	"github.com/go-redis/redis/v8"
)

const (
	uploadQueueKey     = "plan_upload:queue"
	uploadJobKeyPrefix = "plan_upload:job:"
)

// ErrJobNotFound is returned when a job id has no metadata (expired or unknown).
var ErrJobNotFound = errors.New("job not found")

// RedisJobStore keeps job metadata as JSON strings and the queue as a list.
type RedisJobStore struct {
	rdb *redis.Client
}

func NewRedisJobStore(rdb *redis.Client) *RedisJobStore {
	return &RedisJobStore{rdb: rdb}
}

func jobKey(id string) string {
	return uploadJobKeyPrefix + id
}

func (s *RedisJobStore) Save(ctx context.Context, job *models.UploadJob, ttl time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := s.rdb.Set(ctx, jobKey(job.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job metadata: %w", err)
	}
	return nil
}

func (s *RedisJobStore) Get(ctx context.Context, id string) (*models.UploadJob, error) {
	val, err := s.rdb.Get(ctx, jobKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job metadata: %w", err)
	}
	var job models.UploadJob
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, fmt.Errorf("failed to parse job metadata: %w", err)
	}
	return &job, nil
}

func (s *RedisJobStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, jobKey(id)).Err()
}

func (s *RedisJobStore) Enqueue(ctx context.Context, id string) error {
	if err := s.rdb.RPush(ctx, uploadQueueKey, id).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Dequeue blocks on BLPOP with no timeout.
func (s *RedisJobStore) Dequeue(ctx context.Context) (string, error) {
	res, err := s.rdb.BLPop(ctx, 0*time.Second, uploadQueueKey).Result()
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", fmt.Errorf("unexpected BLPOP reply: %v", res)
	}
	return res[1], nil
}
