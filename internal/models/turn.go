package models

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is used only for prompt composition; it is never stored
	// in session history.
	RoleSystem Role = "system"
)

// Turn is a single conversation message. Histories are append-only and
// chronological.
type Turn struct {
	Role    Role
	Content string
}
