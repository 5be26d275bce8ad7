package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/google/uuid"
)

// MemoryStore is an in-process SnapshotStore. It backs tests and embedded
// single-candidate clients; the server wires the Redis-backed store instead.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]model.SessionSnapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]model.SessionSnapshot)}
}

func memKey(examID uuid.UUID, candidateID int) string {
	return fmt.Sprintf("%s/%d", examID, candidateID)
}

// Save stores a copy of the whole snapshot.
func (s *MemoryStore) Save(_ context.Context, snap *model.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[memKey(snap.ExamID, snap.CandidateID)] = *snap
	return nil
}

// Load returns the stored snapshot, or (nil, nil) when absent.
func (s *MemoryStore) Load(_ context.Context, examID uuid.UUID, candidateID int) (*model.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[memKey(examID, candidateID)]
	if !ok {
		return nil, nil
	}
	cp := snap
	return &cp, nil
}

// Clear removes the snapshot for one attempt.
func (s *MemoryStore) Clear(_ context.Context, examID uuid.UUID, candidateID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, memKey(examID, candidateID))
	return nil
}
