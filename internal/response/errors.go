package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden     ErrCode = "FORBIDDEN"
	ErrCandidateOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAuthorOnly    ErrCode = "AUTHOR_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam / attempt ────────────────────────────────────────────────
	ErrExamNotPublishable  ErrCode = "EXAM_NOT_PUBLISHABLE"
	ErrExamNotPublished    ErrCode = "EXAM_NOT_PUBLISHED"
	ErrExamNotDraft        ErrCode = "EXAM_NOT_DRAFT"
	ErrNotExamAuthor       ErrCode = "NOT_EXAM_AUTHOR"
	ErrNoQuestions         ErrCode = "NO_QUESTIONS"
	ErrNoActiveAttempt     ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrAttemptLocked       ErrCode = "ATTEMPT_LOCKED"
	ErrDeadlineExceeded    ErrCode = "DEADLINE_EXCEEDED"
	ErrDuplicateSubmission ErrCode = "DUPLICATE_SUBMISSION"
	ErrSubmitFailed        ErrCode = "SUBMIT_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid username or password."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateOnly:
		return "This resource is restricted to candidates."
	case ErrAuthorOnly:
		return "This resource is restricted to exam authors."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Exam / attempt ────────────────────────────────────────────────
	case ErrExamNotPublishable:
		return "The exam has incomplete questions and cannot be published."
	case ErrExamNotPublished:
		return "This exam has not been published."
	case ErrExamNotDraft:
		return "This exam is not in DRAFT status."
	case ErrNotExamAuthor:
		return "You are not the author of this exam."
	case ErrNoQuestions:
		return "This exam has no questions."
	case ErrNoActiveAttempt:
		return "No active attempt exists for this exam."
	case ErrAttemptLocked:
		return "A submission for this attempt is already in flight."
	case ErrDeadlineExceeded:
		return "Time expired before the submission arrived. The attempt was not counted, please contact support."
	case ErrDuplicateSubmission:
		return "This attempt has already been scored."
	case ErrSubmitFailed:
		return "The submission could not be delivered. Your answers are preserved, please retry."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
