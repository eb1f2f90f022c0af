package window

import (
	"fmt"
	"time"
)

type Action int

const (
	// ActionPreset switches to a rolling window.
	ActionPreset Action = iota
	// ActionReset starts an open window at the current time and asks the
	// server to drop what it has aggregated so far.
	ActionReset
	// ActionCustom asks the user for an explicit range.
	ActionCustom
)

type Option struct {
	Label  string
	Past   time.Duration
	Action Action
}

var presets = []Option{
	{Label: "last 5 minutes", Past: 5 * time.Minute},
	{Label: "last 15 minutes", Past: 15 * time.Minute},
	{Label: "last 30 minutes", Past: 30 * time.Minute},
	{Label: "last hour", Past: time.Hour},
	{Label: "last 3 hours", Past: 3 * time.Hour},
	{Label: "last 6 hours", Past: 6 * time.Hour},
	{Label: "last 12 hours", Past: 12 * time.Hour},
	{Label: "last day", Past: 24 * time.Hour},
	{Label: "last 3 days", Past: 72 * time.Hour},
	{Label: "last 7 days", Past: 7 * 24 * time.Hour},
	{Label: "last 30 days", Past: 30 * 24 * time.Hour},
}

// Options lists everything the period menu offers, presets first.
func Options() []Option {
	opts := make([]Option, 0, len(presets)+2)
	opts = append(opts, presets...)
	opts = append(opts,
		Option{Label: "since now (reset)", Action: ActionReset},
		Option{Label: "custom range...", Action: ActionCustom},
	)
	return opts
}

// PresetLabel names a rolling duration, falling back to a generic label
// for durations that are not in the preset list.
func PresetLabel(d time.Duration) string {
	for _, p := range presets {
		if p.Past == d {
			return p.Label
		}
	}
	return fmt.Sprintf("last %s", d)
}

// OptionIndex returns the menu position matching w, or the custom entry.
func OptionIndex(w Window) int {
	opts := Options()
	if w.Kind() == KindPast {
		for i, o := range opts {
			if o.Action == ActionPreset && o.Past == w.Past() {
				return i
			}
		}
	}
	return len(opts) - 1
}

// Transition is the result of choosing a period option.
type Transition struct {
	Window Window
	// Reset is set when the next top-level load must carry reset=true.
	Reset bool
	// NeedsRange means the window is unchanged until a range is submitted.
	NeedsRange bool
}

// Choose applies a period menu choice to current.
func Choose(current Window, opt Option, now time.Time) Transition {
	switch opt.Action {
	case ActionReset:
		return Transition{Window: Since(now), Reset: true}
	case ActionCustom:
		return Transition{Window: current, NeedsRange: true}
	default:
		return Transition{Window: Last(opt.Past)}
	}
}

// Submit validates a user-entered custom range. Both endpoints are required
// and the end must be after the start; on failure the caller keeps its
// current window.
func Submit(fromInput, toInput string) (Window, error) {
	from, ok, err := ParseInput(fromInput)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if !ok {
		return Window{}, fmt.Errorf("%w: start is required", ErrInvalidRange)
	}
	to, ok, err := ParseInput(toInput)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if !ok {
		return Window{}, fmt.Errorf("%w: end is required", ErrInvalidRange)
	}
	return Range(from, to)
}
