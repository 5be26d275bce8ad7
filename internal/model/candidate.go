package model

import "time"

// Candidate is an exam taker. Identity is supplied to the grading boundary by
// the authentication layer; the core trusts it as verified.
type Candidate struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CandidateLoginRequest is the payload for candidate authentication.
type CandidateLoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}
