// Package worker holds the async persistence loops: scored-result audit
// trails and candidate violation events both flow through Redis queues so the
// submit path never waits on bulk Postgres writes.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/certilearn/assessd-backend/internal/config"
	"github.com/certilearn/assessd-backend/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	AuditBatchSize    = 50
	AuditBatchTimeout = 2 * time.Second
	AuditPollTimeout  = 1 * time.Second
)

// AuditWorker drains scored submissions off the audit queue and persists the
// per-question audit rows in batches. It also flips the attempt rows to
// COMPLETED and clears the per-attempt Redis keys, so the synchronous submit
// path only ever writes the result row.
type AuditWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewAuditWorker creates a new AuditWorker.
func NewAuditWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "audit_worker").Logger(),
	}
}

// Start runs the worker loop until ctx is cancelled, then flushes what is
// buffered.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AuditWorker started")

	batch := make([]*service.AuditPayload, 0, AuditBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= AuditBatchSize || time.Since(lastFlush) >= AuditBatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flushSafe(shutdownCtx, batch)
			cancel()
			return

		default:
			item, err := w.rdb.BLPop(ctx, AuditPollTimeout, config.WorkerKey.PersistAuditQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var p service.AuditPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Str("data", item[1]).Msg("Discarding malformed JSON")
				continue
			}
			batch = append(batch, &p)
		}
	}
}

func (w *AuditWorker) flushSafe(ctx context.Context, batch []*service.AuditPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsertAudits(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk audit insert failed, requeueing")
		w.requeue(ctx, batch)
		return
	}
	if err := w.bulkCompleteAttempts(ctx, batch); err != nil {
		// Audit rows are in; the attempt state update can be retried on the
		// next batch without duplicating rows, so only log.
		w.log.Error().Err(err).Msg("Bulk attempt completion failed")
	}
	w.bulkClearAttemptKeys(ctx, batch)
}

func (w *AuditWorker) bulkInsertAudits(ctx context.Context, batch []*service.AuditPayload) error {
	rows := make([][]interface{}, 0, len(batch)*4)
	for _, p := range batch {
		examID, err := uuid.Parse(p.ExamID)
		if err != nil {
			return err
		}
		gradedAt := time.Unix(p.GradedAt, 0)
		for _, a := range p.Answers {
			submitted, err := json.Marshal(a.Submitted)
			if err != nil {
				return err
			}
			rows = append(rows, []interface{}{
				examID, p.CandidateID, a.QuestionID, submitted, a.Correct, a.MarksAwarded, gradedAt,
			})
		}
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"result_answers"},
		[]string{"exam_id", "candidate_id", "question_id", "submitted", "correct", "marks_awarded", "graded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *AuditWorker) bulkCompleteAttempts(ctx context.Context, batch []*service.AuditPayload) error {
	n := len(batch)
	examIDs := make([]uuid.UUID, 0, n)
	candidates := make([]int, 0, n)
	finishedAts := make([]time.Time, 0, n)

	for _, p := range batch {
		examID, err := uuid.Parse(p.ExamID)
		if err != nil {
			return err
		}
		examIDs = append(examIDs, examID)
		candidates = append(candidates, p.CandidateID)
		finishedAts = append(finishedAts, time.Unix(p.GradedAt, 0))
	}

	query := `
		UPDATE attempts AS a
		SET state = 'COMPLETED',
		    finished_at = t.finished_at
		FROM (
			SELECT u.exam_id, u.candidate_id, u.finished_at
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::timestamptz[]
			) AS u (exam_id, candidate_id, finished_at)
		) AS t
		WHERE a.exam_id = t.exam_id
		  AND a.candidate_id = t.candidate_id
	`

	_, err := w.pool.Exec(ctx, query, examIDs, candidates, finishedAts)
	return err
}

func (w *AuditWorker) bulkClearAttemptKeys(ctx context.Context, batch []*service.AuditPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range batch {
		pipe.Del(ctx, config.CacheKey.AttemptStartKey(p.ExamID, p.CandidateID))
		pipe.Del(ctx, config.CacheKey.CandidateActiveExamKey(p.CandidateID))
	}
	_, _ = pipe.Exec(ctx)
}

func (w *AuditWorker) requeue(ctx context.Context, items []*service.AuditPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistAuditQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue audit batch. Audit rows lost.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed audit batch")
	// Back off so a hard-down database is not hammered.
	time.Sleep(2 * time.Second)
}
