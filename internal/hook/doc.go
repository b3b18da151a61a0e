// Package hook defines hook callbacks the agent invokes at lifecycle points
// such as before and after a tool runs, and the registry that maps the
// agent's callback ids back to them.
package hook
