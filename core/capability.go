package core

// Capability is a recognized agent capability tag. The set is closed: every
// tag an agent can carry is either one of the named constants below or an
// explicit custom passthrough created with CustomCapability. Checks are done
// with predicate methods rather than substring matching so that a new tag
// cannot accidentally satisfy an unrelated test.
type Capability string

const (
	// CapabilityToolUse marks an agent that may issue tool invocations.
	CapabilityToolUse Capability = "mcp"
	// CapabilityReview marks an agent that reviews and approves output.
	CapabilityReview Capability = "review"
	// CapabilitySafetyReview marks an agent performing safety review.
	CapabilitySafetyReview Capability = "safety_review"
	// CapabilityMonitoring marks an agent that monitors ongoing state.
	CapabilityMonitoring Capability = "monitoring"
)

// known holds every non-custom capability for parse-time recognition.
var known = map[Capability]struct{}{
	CapabilityToolUse:      {},
	CapabilityReview:       {},
	CapabilitySafetyReview: {},
	CapabilityMonitoring:   {},
}

// ParseCapability maps a raw configuration string onto the closed capability
// set. Unrecognized tags are preserved as custom capabilities so that forward
// compatible configuration does not fail validation.
func ParseCapability(raw string) Capability {
	c := Capability(raw)
	if _, ok := known[c]; ok {
		return c
	}
	return CustomCapability(raw)
}

// CustomCapability wraps an unrecognized tag as an explicit passthrough.
func CustomCapability(raw string) Capability { return Capability(raw) }

// IsCustom reports whether the capability is outside the recognized set.
func (c Capability) IsCustom() bool {
	_, ok := known[c]
	return !ok
}

// CapabilitySet is the capability collection carried by one agent.
type CapabilitySet []Capability

// ParseCapabilities converts raw configuration tags into a CapabilitySet.
func ParseCapabilities(raw []string) CapabilitySet {
	set := make(CapabilitySet, 0, len(raw))
	for _, r := range raw {
		set = append(set, ParseCapability(r))
	}
	return set
}

// Contains reports whether the set holds the exact capability.
func (s CapabilitySet) Contains(c Capability) bool {
	for _, have := range s {
		if have == c {
			return true
		}
	}
	return false
}

// AllowsToolUse reports whether an agent with this set may issue tool
// invocations.
func (s CapabilitySet) AllowsToolUse() bool { return s.Contains(CapabilityToolUse) }

// Terminating reports whether this set marks the agent as one whose approval
// or completion statement may end a workflow (review, safety review or
// monitoring duty).
func (s CapabilitySet) Terminating() bool {
	return s.Contains(CapabilityReview) ||
		s.Contains(CapabilitySafetyReview) ||
		s.Contains(CapabilityMonitoring)
}

// Strings returns the raw tag values, preserving order.
func (s CapabilitySet) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = string(c)
	}
	return out
}
