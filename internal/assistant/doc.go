// Package assistant orchestrates the conversational control flow.
//
// A chat prompt goes through four stages: the language model generates
// a reply (which may embed a fenced directive), the directive parser
// classifies that reply, the parameter builder resolves numeric
// parameters, and the dispatcher delivers the command. Plain
// conversation and malformed directives short-circuit after parsing and
// echo the model text back to the user.
//
// The model is treated as an opaque text generator behind the Generator
// interface; the assistant never inspects prompts itself. Sink failures
// during dispatch are reported as unconfirmed delivery rather than
// errors, so the user still sees the model's reply.
package assistant
