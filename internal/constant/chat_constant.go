package constant

// Stored conversation roles, shared by advice and contract sessions.
const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

// Default titles for sessions created without one. The first user
// message replaces them.
const (
	DefaultChatSessionTitle     = "Nouvelle consultation"
	DefaultContractSessionTitle = "Nouveau contrat"
)
