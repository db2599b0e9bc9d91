package directive

// Defaults applied when a blink directive omits timing inputs.
const (
	defaultBlinkDelay    = 0.5
	defaultBlinkTimes    = 5
	defaultBlinkDuration = 5.0
)

// Safety bounds enforced on resolved blink parameters.
const (
	minBlinkDelay    = 0.1
	maxBlinkDelay    = 10.0
	minBlinkTimes    = 1
	maxBlinkTimes    = 50
	minBlinkDuration = 0.2
	maxBlinkDuration = 60.0
)

// BlinkParams holds a fully resolved blink cycle: per-cycle delay in
// seconds, repeat count, and total duration in seconds.
type BlinkParams struct {
	Delay    float64 `json:"delay"`
	Times    int     `json:"times"`
	Duration float64 `json:"duration"`
}

// ResolveBlink derives missing blink parameters from the supplied ones.
//
// Priority policy (highest first): duration → times → delay. Exactly one
// of four cases applies:
//   - duration given: times defaults to 5, delay is derived
//   - times given: delay defaults to 0.5, duration is derived
//   - delay given: times defaults to 5, duration is derived
//   - nothing given: all defaults (0.5s delay, 5 times, 5s total)
//
// Bounds are then enforced independently per field: delay [0.1,10],
// times [1,50], duration [0.2,60]. Clamping does not re-derive the other
// fields, so the three values may be mutually inconsistent at extreme
// inputs; controllers treat delay and times as authoritative.
//
// The function is total and deterministic.
func ResolveBlink(delay *float64, times *int, duration *float64) BlinkParams {
	var p BlinkParams

	switch {
	case duration != nil:
		p.Times = defaultBlinkTimes
		if times != nil {
			p.Times = *times
		}
		p.Delay = *duration / float64(p.Times*2)
		p.Duration = *duration

	case times != nil:
		p.Delay = defaultBlinkDelay
		if delay != nil {
			p.Delay = *delay
		}
		p.Times = *times
		p.Duration = float64(p.Times) * p.Delay * 2

	case delay != nil:
		p.Delay = *delay
		p.Times = defaultBlinkTimes
		p.Duration = p.Delay * float64(p.Times) * 2

	default:
		p = BlinkParams{
			Delay:    defaultBlinkDelay,
			Times:    defaultBlinkTimes,
			Duration: defaultBlinkDuration,
		}
	}

	p.Delay = clampFloat(p.Delay, minBlinkDelay, maxBlinkDelay)
	p.Times = clampInt(p.Times, minBlinkTimes, maxBlinkTimes)
	p.Duration = clampFloat(p.Duration, minBlinkDuration, maxBlinkDuration)

	return p
}

// BuildParams converts a command's raw optional parameters into the flat
// numeric params published to controllers. Only BLINK goes through full
// resolution (and clamping); other states forward what was supplied.
func BuildParams(cmd Command) map[string]float64 {
	params := make(map[string]float64)

	switch cmd.State {
	case StateBlink:
		bp := ResolveBlink(cmd.Params.Delay, cmd.Params.Times, cmd.Params.Duration)
		params["delay"] = bp.Delay
		params["times"] = float64(bp.Times)
		params["duration"] = bp.Duration

	case StateOn:
		if cmd.Params.Duration != nil {
			params["duration"] = *cmd.Params.Duration
		}

	case StateDelayedOn:
		params["delay"] = 0
		if cmd.Params.Delay != nil {
			params["delay"] = *cmd.Params.Delay
		}
		if cmd.Params.Duration != nil {
			params["duration"] = *cmd.Params.Duration
		}

	case StateDelayedOff:
		params["delay"] = 0
		if cmd.Params.Delay != nil {
			params["delay"] = *cmd.Params.Delay
		}
	}

	return params
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
