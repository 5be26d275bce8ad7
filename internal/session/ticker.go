package session

import (
	"context"
	"time"

	"github.com/certilearn/assessd-backend/internal/model"
)

// RunTicker drives the advisory 1-second countdown. Each tick recomputes the
// deadline-derived remaining time, fires the auto-submit once at zero, and
// keeps retrying a submission stuck in Submitting. It returns when the
// attempt completes or the context is cancelled.
func (e *Engine) RunTicker(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
			if st := e.State(); st == model.SessionCompleted {
				return
			}
		}
	}
}
