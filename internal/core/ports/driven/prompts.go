package driven

// PromptStore provides access to prompt templates.
// Implementations may load prompts from files or fall back to built-in defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptGroundedContext frames retrieved chunks for an answering model.
	// The template expects %s (context block) then %s (question).
	PromptGroundedContext = "grounded_context"

	// PromptNoContext is used when retrieval produced nothing.
	// The template expects %s (question).
	PromptNoContext = "no_context"
)
