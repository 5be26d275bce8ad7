package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/certilearn/assessd-backend/internal/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	EventBatchSize    = 50
	EventBatchTimeout = 2 * time.Second
	EventPollTimeout  = 1 * time.Second
)

// EventWorker persists candidate violation events (focus loss, navigation
// away, guard trips) reported over the live connection. Events are advisory
// for proctoring review and never affect grading, so they flow through an
// async queue.
type EventWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewEventWorker creates a new EventWorker.
func NewEventWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *EventWorker {
	return &EventWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "event_worker").Logger(),
	}
}

type eventPayload struct {
	CandidateID int    `json:"candidate_id"`
	ExamID      string `json:"exam_id"`
	Kind        string `json:"kind"`
	Detail      string `json:"detail"`
	Timestamp   int64  `json:"timestamp"`
}

// Start runs the worker loop until ctx is cancelled, then flushes what is
// buffered.
func (w *EventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("EventWorker started")

	buffer := make([]*eventPayload, 0, EventBatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 &&
			(len(buffer) >= EventBatchSize || time.Since(lastFlush) >= EventBatchTimeout) {
			w.flushSafe(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, EventPollTimeout, config.WorkerKey.PersistEventsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var payload eventPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}
		buffer = append(buffer, &payload)
	}
}

func (w *EventWorker) flushSafe(ctx context.Context, batch []*eventPayload) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *EventWorker) bulkInsert(ctx context.Context, batch []*eventPayload) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, p := range batch {
		examID, err := uuid.Parse(p.ExamID)
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{
			examID, p.CandidateID, p.Kind, p.Detail, time.Unix(p.Timestamp, 0),
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"session_events"},
		[]string{"exam_id", "candidate_id", "kind", "detail", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *EventWorker) fallbackInsert(ctx context.Context, batch []*eventPayload) {
	requeueList := make([]*eventPayload, 0)

	for _, p := range batch {
		examID, err := uuid.Parse(p.ExamID)
		if err != nil {
			w.log.Error().Str("exam_id", p.ExamID).Msg("Dropping event with invalid UUID")
			continue
		}

		_, err = w.pool.Exec(ctx,
			`INSERT INTO session_events (exam_id, candidate_id, kind, detail, recorded_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			examID, p.CandidateID, p.Kind, p.Detail, time.Unix(p.Timestamp, 0),
		)
		if err != nil {
			w.log.Error().Err(err).Int("candidate_id", p.CandidateID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *EventWorker) requeue(ctx context.Context, items []*eventPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistEventsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue events. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed events back to Redis")
	time.Sleep(2 * time.Second)
}

func (w *EventWorker) shutdown(buffer []*eventPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
