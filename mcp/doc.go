// Package mcp implements the HTTP client side of the tool server wire
// contract: JSON request/response bodies, bearer token authentication, health
// checks with a fixed retry policy, and tool invocation via
// POST <toolsPath>/<toolName>/call.
//
// Two types matter to callers:
//
//   - Client: one configured tool server connection with its own lifecycle
//     (Connect with retries, Healthy, Invoke, Close).
//   - Pool: the active set of connected clients, initialized in parallel
//     because servers are independent of each other.
//
// Retries for connect/health are local to Client (fixed attempt count, fixed
// inter-attempt delay) and are intentionally not repeated at any higher layer.
package mcp
