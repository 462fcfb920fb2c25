package terminal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/antibyte/petbasic/pkg/configuration"
	"github.com/antibyte/petbasic/pkg/shared"
)

// Grenzen für Client-Nachrichten
const (
	MaxKeyLength      = 16  // längster Tastenname ("ArrowRight" etc.)
	MaxLineLengthDef  = 255 // Eingabezeile
	maxClientFrameLen = 4096
)

var (
	ErrMessageTooLarge = errors.New("message too large")
	ErrMessageType     = errors.New("message type not accepted from clients")
	ErrMessageContent  = errors.New("invalid message content")
)

// MessageValidator prüft Nachrichten, die Clients an den Spiegel schicken.
// Nur Tasten und Eingabezeilen werden angenommen.
type MessageValidator struct {
	MaxLineLength int
}

// NewMessageValidator erstellt einen Validator mit den Grenzen aus der
// [Network] Sektion
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{
		MaxLineLength: configuration.GetInt("Network", "max_line_length", MaxLineLengthDef),
	}
}

// Decode parses and checks one client frame.
func (v *MessageValidator) Decode(data []byte) (shared.Message, error) {
	var msg shared.Message
	if len(data) > maxClientFrameLen {
		return msg, ErrMessageTooLarge
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&msg); err != nil {
		return msg, fmt.Errorf("invalid JSON: %w", err)
	}
	switch msg.Type {
	case shared.MessageTypeKey:
		if msg.Content == "" || len(msg.Content) > MaxKeyLength {
			return msg, fmt.Errorf("key %q: %w", msg.Content, ErrMessageContent)
		}
	case shared.MessageTypeLine:
		if len(msg.Content) > v.MaxLineLength {
			return msg, fmt.Errorf("line of %d bytes: %w", len(msg.Content), ErrMessageTooLarge)
		}
	default:
		return msg, fmt.Errorf("type %d: %w", msg.Type, ErrMessageType)
	}
	if err := validateText(msg.Content); err != nil {
		return msg, err
	}
	return msg, nil
}

// validateText rejects invalid UTF-8 and control characters.
func validateText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("not UTF-8: %w", ErrMessageContent)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("control character %U: %w", r, ErrMessageContent)
		}
	}
	return nil
}

// ValidateSessionID prüft die Gültigkeit einer Session-ID
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is empty")
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return fmt.Errorf("session ID %q: %w", sessionID, err)
	}
	return nil
}
