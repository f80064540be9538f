package driven

import "github.com/custodia-labs/embediq/internal/core/domain"

// PromptStore provides access to answer prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Each template expects one %s placeholder that
// receives the assembled context.
const (
	// PromptAnswerNormal answers strictly from the context.
	PromptAnswerNormal = "answer_normal"

	// PromptAnswerELI5 answers in language a five-year-old would follow.
	PromptAnswerELI5 = "answer_eli5"

	// PromptAnswerCompare contrasts the labelled documents in the context.
	PromptAnswerCompare = "answer_compare"
)

// PromptName returns the template name for a mode.
func PromptName(mode domain.Mode) string {
	switch mode {
	case domain.ModeELI5:
		return PromptAnswerELI5
	case domain.ModeCompare:
		return PromptAnswerCompare
	default:
		return PromptAnswerNormal
	}
}
