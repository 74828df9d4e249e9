package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every problem found during Validate so an
// operator sees all missing credentials in a single startup failure.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func (c *Config) Validate() ValidationErrors {
	var errors ValidationErrors

	if c.LLMAPIKey() == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key_env",
			Message: fmt.Sprintf("environment variable %s is not set", c.LLM.APIKeyEnv),
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid LLM base URL",
		})
	}

	if c.Database.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "database URL is required (set DATABASE_URL)",
		})
	} else if _, err := url.Parse(c.Database.URL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "invalid database URL",
		})
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.RAG.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "rag.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.RAG.MaxQuestionLen < 1 {
		errors = append(errors, ValidationError{
			Field:   "rag.max_question_len",
			Message: "max_question_len must be positive",
		})
	}

	if c.History.MaxTurns < 0 {
		errors = append(errors, ValidationError{
			Field:   "history.max_turns",
			Message: "max_turns cannot be negative",
		})
	}

	if c.Server.SessionSecret == "" {
		errors = append(errors, ValidationError{
			Field:   "server.session_secret",
			Message: "session secret is required (set SESSION_SECRET)",
		})
	}

	return errors
}
