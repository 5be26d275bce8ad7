package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionGoTo        Action = "goto"
	ActionSelect      Action = "select"
	ActionSelectMulti Action = "select_multi"
	ActionText        Action = "text"
	ActionClear       Action = "clear"
	ActionMark        Action = "mark"
	ActionEvent       Action = "event"
	ActionSubmit      Action = "submit"
	ActionPing        Action = "ping"
)

// RequestPayload carries every client action; which fields are meaningful
// depends on Action.
type RequestPayload struct {
	Action  Action `json:"action"`
	QID     string `json:"q_id,omitempty"`
	Index   int    `json:"index"`
	Indexes []int  `json:"indexes,omitempty"`
	Text    string `json:"text,omitempty"`
	Kind    string `json:"kind,omitempty"`   // violation event kind
	Detail  string `json:"detail,omitempty"` // violation event detail
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventAck    Event = "ack"
	EventState  Event = "state"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

// AckResponse confirms a persisted mutation.
type AckResponse struct {
	Event            Event  `json:"event"`
	Action           Action `json:"action"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// StateResponse carries the full attempt overview, sent on connect so a
// reloaded client can re-render exactly where it left off.
type StateResponse struct {
	Event Event       `json:"event"`
	State interface{} `json:"state"`
}

// GradedResponse delivers the scored result. Auto marks a deadline-triggered
// submission.
type GradedResponse struct {
	Event          Event   `json:"event"`
	Score          float64 `json:"score"`
	Passed         bool    `json:"passed"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
	Auto           bool    `json:"auto"`
}

// ErrorResponse reports a rejected action. Retryable distinguishes a
// transport failure during submit, where the frozen answers are preserved
// and the client should retry, from a terminal rejection.
type ErrorResponse struct {
	Event     Event  `json:"event"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
