// Package storage provides the Redis-backed caches of the delivery side:
// durable session snapshots, the exam paper and definition caches, and the
// attempt start-time cache the timer recovery path reads.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/certilearn/assessd-backend/internal/config"
	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSnapshotStore persists whole session snapshots in Redis. It implements
// session.SnapshotStore for the server-side engines. Snapshots carry a TTL a
// bit past the longest exam window; an attempt that outlives it has long
// since hit the grading window check anyway.
type RedisSnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSnapshotStore creates a snapshot store with the given TTL.
func NewRedisSnapshotStore(rdb *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{rdb: rdb, ttl: ttl}
}

// Save writes the whole snapshot record.
func (s *RedisSnapshotStore) Save(ctx context.Context, snap *model.SessionSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	key := config.CacheKey.SessionSnapshotKey(snap.ExamID.String(), snap.CandidateID)
	return s.rdb.Set(ctx, key, raw, s.ttl).Err()
}

// Load returns the stored snapshot, or (nil, nil) when absent.
func (s *RedisSnapshotStore) Load(ctx context.Context, examID uuid.UUID, candidateID int) (*model.SessionSnapshot, error) {
	key := config.CacheKey.SessionSnapshotKey(examID.String(), candidateID)
	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	snap := &model.SessionSnapshot{}
	if err := json.Unmarshal([]byte(raw), snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Clear removes the snapshot for one attempt.
func (s *RedisSnapshotStore) Clear(ctx context.Context, examID uuid.UUID, candidateID int) error {
	key := config.CacheKey.SessionSnapshotKey(examID.String(), candidateID)
	return s.rdb.Del(ctx, key).Err()
}
