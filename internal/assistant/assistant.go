package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/solhome/sol-core/internal/directive"
	"github.com/solhome/sol-core/internal/dispatch"
)

// Generator produces a model reply for a prompt within a session. The
// reply may contain a fenced directive; the assistant does not care
// how it was produced.
type Generator interface {
	Generate(ctx context.Context, sessionID, prompt string) (string, error)
}

// Dispatcher delivers a parsed command. *dispatch.Dispatcher satisfies
// this interface.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd directive.Command) (*dispatch.Result, error)
}

// Logger defines the logging interface used by the Assistant.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Reply is the outcome of one chat turn.
type Reply struct {
	// SessionID identifies the conversation, newly minted when the
	// caller supplied none.
	SessionID string `json:"sessionId"`

	// Message is the model's text, fenced directive included, echoed
	// verbatim for display.
	Message string `json:"message"`

	// Command is present when the model emitted a well-formed directive
	// that was dispatched (or attempted).
	Command *directive.Command `json:"command,omitempty"`

	// Params are the resolved numeric parameters that were published.
	Params map[string]float64 `json:"params,omitempty"`

	// Delivered reports whether the command reached the sink. True for
	// pure chat turns, false only when publishing failed.
	Delivered bool `json:"delivered"`
}

// Assistant wires the generator, parser, and dispatcher together.
type Assistant struct {
	generator  Generator
	dispatcher Dispatcher
	logger     Logger
}

// New creates an assistant over the given generator and dispatcher.
func New(gen Generator, disp Dispatcher) *Assistant {
	return &Assistant{
		generator:  gen,
		dispatcher: disp,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the assistant.
func (a *Assistant) SetLogger(logger Logger) {
	a.logger = logger
}

// NewSession mints a fresh session identifier.
func (a *Assistant) NewSession() string {
	return uuid.NewString()
}

// HandleChat runs one conversational turn.
//
// The model reply is classified by the directive parser. Plain chat and
// malformed directives echo the reply as-is with Delivered true and no
// command. A well-formed directive is dispatched; a sink failure is
// reported through Reply.Delivered rather than as an error, since the
// conversation itself succeeded. Generator and resolution failures
// return an error.
func (a *Assistant) HandleChat(ctx context.Context, sessionID, prompt string) (*Reply, error) {
	if sessionID == "" {
		sessionID = a.NewSession()
	}

	text, err := a.generator.Generate(ctx, sessionID, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	reply := &Reply{
		SessionID: sessionID,
		Message:   text,
		Delivered: true,
	}

	result := directive.Parse(text)
	switch result.Kind {
	case directive.KindPlainChat:
		return reply, nil

	case directive.KindMalformed:
		// A broken directive is not actionable; the user sees the raw
		// reply and can rephrase.
		a.logger.Warn("malformed directive in model reply", "session_id", sessionID)
		return reply, nil
	}

	cmd := result.Command
	reply.Command = &cmd

	dispatched, err := a.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		if errors.Is(err, dispatch.ErrSink) {
			a.logger.Error("command accepted but not delivered",
				"session_id", sessionID, "error", err)
			reply.Delivered = false
			reply.Params = directive.BuildParams(cmd)
			return reply, nil
		}
		return nil, err
	}

	reply.Params = dispatched.Params

	a.logger.Info("chat turn dispatched",
		"session_id", sessionID,
		"topic", dispatched.Topic,
		"state", cmd.State,
	)

	return reply, nil
}
