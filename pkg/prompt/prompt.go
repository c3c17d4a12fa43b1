// Package prompt models the interactive question collaborator the engine
// invokes during the Prompting phase. The engine treats prompting as opaque
// request/response: it hands over named questions and merges the answers
// into the target's raw config.
package prompt

import "fmt"

// Question is one named prompt shown to the user.
type Question struct {
	// Name is the raw config key the answer is stored under.
	Name string

	// Message is the text shown to the user.
	Message string

	// Default is used when the user (or a non-interactive prompter) gives
	// no answer.
	Default interface{}

	// Choices restricts the answer to an enumerated set when non-empty.
	Choices []string
}

// Answers maps question names to the values supplied for them.
type Answers map[string]interface{}

// Prompter collects answers for a sequence of questions. Implementations
// may block awaiting user input; the engine suspends the whole run while
// they do.
type Prompter interface {
	Ask(questions []Question) (Answers, error)
}

// Defaults is a non-interactive Prompter that answers every question with
// its declared default. Used when the CLI runs with answers supplied
// entirely through flags and persisted config.
type Defaults struct{}

// Ask answers each question with its default value.
func (Defaults) Ask(questions []Question) (Answers, error) {
	answers := make(Answers, len(questions))
	for _, q := range questions {
		answers[q.Name] = q.Default
	}
	return answers, nil
}

// Static is a Prompter with canned answers, keyed by question name. Missing
// answers fall back to the question default. Primarily for tests.
type Static map[string]interface{}

// Ask answers from the canned map, validating enumerated choices.
func (s Static) Ask(questions []Question) (Answers, error) {
	answers := make(Answers, len(questions))
	for _, q := range questions {
		value, ok := s[q.Name]
		if !ok {
			answers[q.Name] = q.Default
			continue
		}
		if len(q.Choices) > 0 {
			if str, isStr := value.(string); isStr && !contains(q.Choices, str) {
				return nil, fmt.Errorf("answer %q for question %q is not one of %v", str, q.Name, q.Choices)
			}
		}
		answers[q.Name] = value
	}
	return answers, nil
}

func contains(choices []string, value string) bool {
	for _, c := range choices {
		if c == value {
			return true
		}
	}
	return false
}
