// Package agent binds configured personas to a completion model.
//
// An Agent couples a name, role, system instructions, capability set and
// tool allow-list to a model.Model, exposing a single Complete call that
// returns the messages the model produced for a task. The Factory builds
// the enabled agent set from configuration and injects each agent's visible
// tool listing into its instructions so the model knows what it may call.
package agent
