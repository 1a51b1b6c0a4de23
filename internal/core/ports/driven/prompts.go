package driven

// Prompt names understood by PromptStore.
const (
	PromptChatSystem     = "chat_system"
	PromptSelectorSystem = "selector_system"
)

// PromptStore loads system prompts by name.
type PromptStore interface {
	// Load returns the prompt text for name.
	Load(name string) (string, error)
}
