// Package core defines the conversation data model and the text
// protocol of the transcript file, shared by the parser, the driver,
// and the renderers.
package core

// Delimiter separates consecutive turns in the transcript file. An
// assistant reply is always written as "\n" + reply + Delimiter, so a
// trailing delimiter doubles as the "assistant spoke last" marker.
const Delimiter = "\n***\n"

// Terminator is the double newline a user types to mark their message
// as complete and ready to send.
const Terminator = "\n\n"

// MaxContextMessages caps the conversation window sent to the
// completion service. Oldest messages are discarded first.
const MaxContextMessages = 6

// Role enumerates who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in the conversation. The transcript file
// stores no role metadata; roles are inferred structurally from turn
// position during parsing.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
