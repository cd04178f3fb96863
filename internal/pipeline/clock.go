package pipeline

import "github.com/jonboulle/clockwork"

// clock stamps run start, finish and the generated_at of published rows.
var clock = clockwork.NewRealClock()

// SetClock swaps the pipeline time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
