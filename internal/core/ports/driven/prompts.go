package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the built-in
	// default or an error when no default exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Both templates expect {{question}}; the
// with-context template also expects {{context}}.
const (
	// PromptAnswerWithContext instructs the model to answer only from the
	// supplied context and to admit when the context does not cover the question.
	PromptAnswerWithContext = "answer_with_context"

	// PromptAnswerWithoutContext is the open-ended prompt used when retrieval
	// found nothing.
	PromptAnswerWithoutContext = "answer_without_context"
)
