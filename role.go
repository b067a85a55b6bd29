package recall

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// RoleSystem messages exist server-side but are never shown to the
	// user; session hydration filters them out.
	RoleSystem Role = "system"
)
