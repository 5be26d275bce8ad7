package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateLoginKey returns the cache key for a candidate's login session.
func (r *CacheKeyStruct) CandidateLoginKey(candidateID int) string {
	return fmt.Sprintf("login:%d", candidateID)
}

// SessionSnapshotKey returns the cache key for a candidate's durable session
// snapshot of one exam attempt.
func (r *CacheKeyStruct) SessionSnapshotKey(examID string, candidateID int) string {
	return fmt.Sprintf("candidate:%d:exam:%s:session", candidateID, examID)
}

// AttemptStartKey returns the cache key for a candidate's attempt start time.
func (r *CacheKeyStruct) AttemptStartKey(examID string, candidateID int) string {
	return fmt.Sprintf("candidate:%d:exam:%s:started_at", candidateID, examID)
}

// ExamPaperKey returns the cache key for an exam's candidate-facing paper.
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// ExamDefinitionKey returns the cache key for a published exam's full
// definition (questions with correct answers) used by the grading authority.
func (r *CacheKeyStruct) ExamDefinitionKey(examID string) string {
	return fmt.Sprintf("exam:%s:definition", examID)
}

// CandidateActiveExamKey returns the cache key for a candidate's currently
// active exam.
func (r *CacheKeyStruct) CandidateActiveExamKey(candidateID int) string {
	return fmt.Sprintf("candidate:%d:active_exam", candidateID)
}

var CacheKey = NewCacheKeyStruct()
