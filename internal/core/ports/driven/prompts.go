package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptCollect maps a requirement group onto document headings.
	// The prompt has no placeholders; the group and table of contents are
	// sent as the human input.
	PromptCollect = "collect"

	// PromptStandardize turns collected excerpts into an API description.
	PromptStandardize = "standardize"

	// PromptGenerate produces one JSON test case. Expects a %s placeholder
	// for the output language.
	PromptGenerate = "generate"

	// PromptRequirements lists the functional requirements in a block.
	PromptRequirements = "requirements"
)
