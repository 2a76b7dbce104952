// Package workflow drives bounded multi-agent conversations over MCP tools.
//
// MultiAgentWorkflow iterates a configured turn order for a fixed number of
// rounds, feeding each agent a bounded slice of recent conversation context,
// parsing tool commands out of agent output, dispatching them and folding the
// results back into the conversation. SimpleWorkflow is the degenerate
// single-agent form. Orchestrator wires the server pool, tool catalog,
// parser, dispatcher and agent set together from configuration.
package workflow
