// Package toolkit implements the tool registry (C2): a name-indexed map of
// capabilities with JSON-schema params and uniform async execution. Grounded on
// original_source/src/tools/{registry,result,context}.rs.
package toolkit

// Result is the outcome of executing one tool call.
type Result struct {
	// ForLLM is always appended to history as the Tool message content.
	ForLLM string
	// ForUser, if non-nil and not Silent, is sent to the chat transport immediately.
	ForUser *string
	// Silent suppresses ForUser even when set.
	Silent bool
	// IsError marks this as a tool error (the model may retry or report it).
	IsError bool
	// Async signals the tool started background work; completion is reported later.
	Async bool
}

// Ok builds a plain success result (LLM-visible content only).
func Ok(forLLM string) Result {
	return Result{ForLLM: forLLM}
}

// User builds a user-facing result: sent to the chat transport unless silenced
// later, and also fed to the LLM verbatim.
func User(content string) Result {
	c := content
	return Result{ForLLM: content, ForUser: &c}
}

// SilentOk builds a success result visible only to the LLM.
func SilentOk(forLLM string) Result {
	return Result{ForLLM: forLLM, Silent: true}
}

// Error builds an error result.
func Error(msg string) Result {
	return Result{ForLLM: msg, IsError: true}
}

// Started builds an async result: the tool launched background work.
func Started(forLLM string) Result {
	return Result{ForLLM: forLLM, Async: true}
}
