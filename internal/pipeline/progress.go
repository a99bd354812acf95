package pipeline

import "sync"

// Stage is the phase a progress value belongs to.
type Stage string

const (
	StageExtracting Stage = "extracting"
	StageParsing    Stage = "parsing"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// Progress is a transient observability signal emitted while a run is in
// flight.
type Progress struct {
	Stage   Stage  `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Terminal reports whether p ends the stream.
func (p Progress) Terminal() bool {
	return p.Stage == StageComplete || p.Stage == StageError
}

// reporter serialises progress from concurrent workers. Percent never goes
// down, and exactly one terminal value is delivered; anything after it is
// dropped.
type reporter struct {
	mu   sync.Mutex
	sink func(Progress)
	last int
	done bool
}

func newReporter(sink func(Progress)) *reporter {
	return &reporter{sink: sink}
}

func (r *reporter) report(stage Stage, percent int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return
	}
	if percent < r.last {
		percent = r.last
	}
	if percent > 100 {
		percent = 100
	}
	r.last = percent
	if stage == StageComplete || stage == StageError {
		r.done = true
	}
	if r.sink != nil {
		r.sink(Progress{Stage: stage, Percent: percent, Message: message})
	}
}

func (r *reporter) complete(message string) {
	r.report(StageComplete, 100, message)
}

// fail ends the stream with an error value carrying the last percent reached.
func (r *reporter) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return
	}
	r.done = true
	if r.sink != nil {
		r.sink(Progress{Stage: StageError, Percent: r.last, Message: err.Error()})
	}
}
