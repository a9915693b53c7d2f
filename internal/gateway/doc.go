// Package gateway is the boundary to the hosted generative-AI service.
//
// A Gateway analyzes terms, illustrates them, speaks text, chats about a term
// and writes short stories. Two providers implement it: Gemini (the default)
// and OpenAI. New wraps the chosen provider with a per-call timeout, a single
// retry for transient failures, a circuit breaker and a request rate limit.
//
// Every failure that leaves the package is an *Error carrying a Kind, which
// UserMessage turns into the text shown to the user.
package gateway
