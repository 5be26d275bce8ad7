package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/certilearn/assessd-backend/internal/grading"
	"github.com/certilearn/assessd-backend/internal/middleware"
	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/certilearn/assessd-backend/internal/service"
	"github.com/certilearn/assessd-backend/internal/session"
	ws "github.com/certilearn/assessd-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the live attempt WebSocket stream.
type WSHandler struct {
	deliveryService *service.DeliveryService
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(deliveryService *service.DeliveryService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		deliveryService: deliveryService,
		log:             log.With().Str("component", "ws_handler").Logger(),
		upgrader:        buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes to a single connection. The read loop and the
// countdown goroutine both write; gorilla/websocket allows only one writer
// at a time.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex

	// manualSubmit marks that the read loop delivered the graded result
	// itself, so the countdown goroutine must not send a second one.
	manualSubmit bool
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = ws.WriteError(w.conn, msg)
}

// AttemptStream godoc
// WS /ws/v1/candidate/exams/:exam_id/stream
// Upgrades to WebSocket for the live attempt: navigation, answer capture,
// violation events, and submission.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer rawConn.Close()

	candidateID := claims.UserID
	wsLog := h.log.With().
		Int("candidate_id", candidateID).
		Str("exam_id", examID.String()).
		Logger()

	conn := &wsConn{conn: rawConn}

	if err := h.deliveryService.VerifyActiveAttempt(c.Request.Context(), examID, candidateID); err != nil {
		conn.writeError(err.Error())
		return
	}

	eng, err := h.deliveryService.Engine(c.Request.Context(), examID, candidateID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Engine construction failed")
		conn.writeError("could not restore the attempt")
		return
	}

	// Adopting a start past the deadline auto-submits during construction.
	if eng.State() == model.SessionCompleted {
		if res := eng.Result(); res != nil {
			_ = conn.write(gradedResponse(res, true))
		}
		return
	}

	state, err := h.deliveryService.GetAttemptState(c.Request.Context(), examID, candidateID)
	if err != nil {
		conn.writeError("could not restore the attempt")
		return
	}
	if err := conn.write(ws.StateResponse{Event: ws.EventState, State: state}); err != nil {
		return
	}

	wsLog.Info().Msg("Candidate connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.runCountdown(ctx, eng, conn, wsLog)

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(rawConn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionGoTo:
			h.ackMutation(conn, eng, msg.Action, eng.GoTo(ctx, msg.Index))
		case ws.ActionSelect:
			qID, ok := parseQID(conn, msg.QID)
			if !ok {
				continue
			}
			h.ackMutation(conn, eng, msg.Action, eng.SelectOption(ctx, qID, msg.Index))
		case ws.ActionSelectMulti:
			qID, ok := parseQID(conn, msg.QID)
			if !ok {
				continue
			}
			h.ackMutation(conn, eng, msg.Action, eng.SelectOptions(ctx, qID, msg.Indexes))
		case ws.ActionText:
			qID, ok := parseQID(conn, msg.QID)
			if !ok {
				continue
			}
			h.ackMutation(conn, eng, msg.Action, eng.SetText(ctx, qID, msg.Text))
		case ws.ActionClear:
			qID, ok := parseQID(conn, msg.QID)
			if !ok {
				continue
			}
			h.ackMutation(conn, eng, msg.Action, eng.ClearAnswer(ctx, qID))
		case ws.ActionMark:
			qID, ok := parseQID(conn, msg.QID)
			if !ok {
				continue
			}
			h.ackMutation(conn, eng, msg.Action, eng.ToggleMark(ctx, qID))
		case ws.ActionEvent:
			h.handleEvent(ctx, conn, eng, candidateID, examID, &msg)
		case ws.ActionSubmit:
			if done := h.handleSubmit(ctx, conn, eng, wsLog); done {
				return
			}
		case ws.ActionPing:
			_ = conn.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.writeError("unknown action: " + string(msg.Action))
		}
	}
}

// runCountdown drives the server-side timer. When the deadline triggers the
// auto-submit, the graded result is pushed to the client and the connection
// closed.
func (h *WSHandler) runCountdown(ctx context.Context, eng *session.Engine, conn *wsConn, wsLog zerolog.Logger) {
	eng.RunTicker(ctx)
	if ctx.Err() != nil {
		return
	}
	if eng.State() != model.SessionCompleted {
		return
	}

	conn.mu.Lock()
	manual := conn.manualSubmit
	conn.mu.Unlock()
	if manual {
		return
	}

	if res := eng.Result(); res != nil {
		wsLog.Info().Float64("score", res.ScorePercentage).Msg("Deadline auto-submit delivered")
		_ = conn.write(gradedResponse(res, true))
	}
	conn.conn.Close()
}

// ackMutation confirms a persisted mutation with the remaining time, or
// reports the rejection.
func (h *WSHandler) ackMutation(conn *wsConn, eng *session.Engine, action ws.Action, err error) {
	if err != nil {
		conn.writeError(err.Error())
		return
	}
	_ = conn.write(ws.AckResponse{
		Event:            ws.EventAck,
		Action:           action,
		RemainingSeconds: eng.RemainingSeconds(),
	})
}

// handleEvent queues a candidate-reported violation for async persistence.
func (h *WSHandler) handleEvent(ctx context.Context, conn *wsConn, eng *session.Engine, candidateID int, examID uuid.UUID, msg *ws.RequestPayload) {
	if msg.Kind == "" {
		conn.writeError("kind is required")
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"candidate_id": candidateID,
		"exam_id":      examID.String(),
		"kind":         msg.Kind,
		"detail":       msg.Detail,
		"timestamp":    time.Now().Unix(),
	})
	if err := h.deliveryService.QueueEvent(ctx, payload); err != nil {
		conn.writeError("event not recorded")
		return
	}
	_ = conn.write(ws.AckResponse{
		Event:            ws.EventAck,
		Action:           ws.ActionEvent,
		RemainingSeconds: eng.RemainingSeconds(),
	})
}

// handleSubmit finishes the attempt and delivers the graded result. A
// retryable transport failure leaves the engine in Submitting with the
// answers frozen; the client retries the same submit action. Returns true
// when the stream should close.
func (h *WSHandler) handleSubmit(ctx context.Context, conn *wsConn, eng *session.Engine, wsLog zerolog.Logger) bool {
	res, err := eng.Finish(ctx)
	if err != nil {
		if grading.IsRetryable(err) {
			wsLog.Warn().Err(err).Msg("Submit transport failure, answers frozen")
			_ = conn.write(ws.ErrorResponse{
				Event:     ws.EventError,
				Error:     "submission could not be delivered, retry",
				Retryable: true,
			})
			return false
		}
		wsLog.Error().Err(err).Msg("Submit rejected")
		conn.writeError(err.Error())
		return false
	}

	conn.mu.Lock()
	conn.manualSubmit = true
	conn.mu.Unlock()

	wsLog.Info().
		Float64("score", res.ScorePercentage).
		Int("correct", res.CorrectAnswers).
		Int("total", res.TotalQuestions).
		Msg("Attempt submitted and graded")

	_ = conn.write(gradedResponse(res, false))
	return true
}

func gradedResponse(res *model.Result, auto bool) ws.GradedResponse {
	return ws.GradedResponse{
		Event:          ws.EventGraded,
		Score:          res.ScorePercentage,
		Passed:         res.IsPassed,
		CorrectAnswers: res.CorrectAnswers,
		TotalQuestions: res.TotalQuestions,
		Auto:           auto,
	}
}

func parseQID(conn *wsConn, raw string) (uuid.UUID, bool) {
	qID, err := uuid.Parse(raw)
	if err != nil {
		conn.writeError("invalid q_id format")
		return uuid.Nil, false
	}
	return qID, true
}
