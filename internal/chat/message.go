package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"famspend/internal/analytics"
	"famspend/internal/core"
	"famspend/internal/parser"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleBot   Role = "bot"
	RoleError Role = "error"
)

// Error codes attached to RoleError messages.
const (
	CodeExtraction  = "extraction_error"
	CodeNetwork     = "network_error"
	CodeAuthExpired = "auth_expired"
	CodeBackend     = "backend_error"
	CodeInternal    = "internal_error"
)

// WelcomeMessage opens every session.
const WelcomeMessage = `Hi! I can help you track expenses in any language. Try: "500 rupees for food" or "आज ₹300 खाने पर खर्च किया"`

// User-facing error texts.
const (
	extractionText  = `I couldn't find an amount in that message. Try something like "500 for food".`
	networkText     = "Network error. Please check your connection."
	authExpiredText = "Your session has expired. Please log in again."
	fallbackText    = "Failed to process message"
)

// Message is one transcript entry.
type Message struct {
	ID        string             `json:"id"`
	Role      Role               `json:"role"`
	Text      string             `json:"text"`
	Code      string             `json:"code,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Expense   *core.Expense      `json:"-"`
	Context   *analytics.Context `json:"-"`
	Parsed    *parser.Utterance  `json:"-"`
	Language  *core.Language     `json:"language,omitempty"`
}

func newMessage(role Role, text string, at time.Time) Message {
	return Message{ID: uuid.NewString(), Role: role, Text: text, Timestamp: at}
}

// ErrorReply converts any turn failure into the text and code shown to the user.
func ErrorReply(err error) (text, code string) {
	var be *core.BackendError
	switch {
	case errors.Is(err, core.ErrExtraction):
		return extractionText, CodeExtraction
	case errors.Is(err, core.ErrAuthExpired):
		return authExpiredText, CodeAuthExpired
	case errors.Is(err, core.ErrNetwork):
		return networkText, CodeNetwork
	case errors.As(err, &be) && be.Message != "":
		return be.Message, CodeBackend
	case errors.Is(err, core.ErrBackend):
		return fallbackText, CodeBackend
	default:
		return fallbackText, CodeInternal
	}
}
