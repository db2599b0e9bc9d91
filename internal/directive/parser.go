package directive

import (
	"strconv"
	"strings"
)

// fence delimits the directive segment inside model output.
const fence = "```"

// ResultKind tags the outcome of parsing model output.
type ResultKind int

// Parse outcomes.
const (
	// KindCommand means a well-formed control directive was extracted.
	KindCommand ResultKind = iota

	// KindPlainChat means the text contains no directive segment and
	// should be shown to the user as-is.
	KindPlainChat

	// KindMalformed means a fenced segment was present but did not form
	// a valid control directive. Callers fall back to plain chat.
	KindMalformed
)

// Result is the tagged outcome of Parse.
type Result struct {
	Kind    ResultKind
	Command Command // valid only when Kind == KindCommand
	// Text is the original raw input, kept for the plain-chat fallback.
	Text string
}

// Parse extracts a canonical Command from raw model output.
//
// Algorithm:
//  1. Locate the first complete fenced segment; none means plain chat.
//  2. Split the segment on commas into key:value / key=value tokens.
//  3. Require action=control, a device category, and a state key;
//     anything else is malformed.
//  4. Numeric values that fail to parse are treated as absent — a
//     half-broken directive never produces a partial failure.
//
// Parse is a pure transformation and never returns an error.
func Parse(raw string) Result {
	segment, ok := extractFenced(raw)
	if !ok {
		return Result{Kind: KindPlainChat, Text: raw}
	}

	cmd, ok := parseSegment(segment)
	if !ok {
		return Result{Kind: KindMalformed, Text: raw}
	}

	return Result{Kind: KindCommand, Command: cmd, Text: raw}
}

// extractFenced returns the content of the first complete fenced span.
func extractFenced(raw string) (string, bool) {
	start := strings.Index(raw, fence)
	if start < 0 {
		return "", false
	}
	rest := raw[start+len(fence):]
	end := strings.Index(rest, fence)
	if end < 0 {
		// Opening fence without a closing one: not a directive segment.
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// parseSegment tokenises a fenced segment and validates the grammar.
func parseSegment(segment string) (Command, bool) {
	var cmd Command
	var hasDevice, hasState bool

	for _, token := range strings.Split(segment, ",") {
		key, value, ok := splitToken(token)
		if !ok {
			continue
		}

		switch key {
		case "action":
			cmd.Action = Action(strings.ToLower(value))
		case "device", "type":
			cmd.Device = DeviceType(strings.ToLower(value))
			hasDevice = cmd.Device != ""
		case "location":
			cmd.Location = value
		case "name":
			cmd.Name = value
		case "state":
			cmd.State = State(strings.ToUpper(value))
			hasState = cmd.State != ""
		case "delay":
			cmd.Params.Delay = parseFloat(value)
		case "duration":
			cmd.Params.Duration = parseFloat(value)
		case "times":
			cmd.Params.Times = parseInt(value)
		}
	}

	if cmd.Action != ActionControl || !hasDevice || !hasState {
		return Command{}, false
	}

	return cmd, true
}

// splitToken splits a "key:value" or "key=value" token on whichever
// separator appears first. The key is lowercased; both halves are trimmed.
func splitToken(token string) (key, value string, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "", false
	}

	sep := strings.IndexAny(token, ":=")
	if sep < 0 {
		return "", "", false
	}

	key = strings.ToLower(strings.TrimSpace(token[:sep]))
	value = strings.TrimSpace(token[sep+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

// parseFloat parses a float value, returning nil when unparsable.
func parseFloat(value string) *float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseInt parses an integer value, returning nil when unparsable.
func parseInt(value string) *int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}
