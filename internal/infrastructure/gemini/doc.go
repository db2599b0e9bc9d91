// Package gemini provides the HTTP client for the Gemini language-model
// backend.
//
// The client speaks the generateContent REST endpoint directly rather
// than through an SDK, keeping the dependency surface small. Responses
// are returned as raw text with any fenced directive intact; parsing is
// the caller's concern.
//
// Conversation history is kept per session in memory so follow-up
// prompts carry context. The system prompt that teaches the model the
// directive grammar is pinned as the first history entry of every
// session.
//
// Thread Safety:
//   - All methods are safe for concurrent use; the session history map
//     is guarded by a mutex.
package gemini
