package workflow

import (
	"strings"

	"github.com/mcpflow/mcpflow/agent"
)

// terminationPhrases end a workflow when spoken by a terminating agent.
// Matching is case-insensitive substring containment.
var terminationPhrases = []string{
	"approved",
	"workflow completed",
	"task finished",
	"query resolved",
	"analysis complete",
	"monitoring complete",
	"recommendations provided",
}

func containsTerminationPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range terminationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// isTerminating reports whether the agent's statements may end the workflow:
// it carries a review or monitoring duty, or it speaks last in the turn order.
func isTerminating(a *agent.Agent, turnOrder []string) bool {
	if a.Capabilities().Terminating() {
		return true
	}
	return len(turnOrder) > 0 && turnOrder[len(turnOrder)-1] == a.Name()
}

// shouldTerminate applies the termination rule after one message. Any message
// produced beyond round zero forces termination so total completions stay
// bounded even when no phrase ever matches.
func shouldTerminate(round int, a *agent.Agent, turnOrder []string, text string) bool {
	if round > 0 {
		return true
	}
	return isTerminating(a, turnOrder) && containsTerminationPhrase(text)
}
