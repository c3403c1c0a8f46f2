package pipeline

// Phase is a step of a pass. A pass only moves forward through the phases;
// PhaseAborted can be entered from any phase before PhaseFinalizing.
type Phase int

const (
	PhaseValidating Phase = iota
	PhaseInitializing
	PhaseAccumulating
	PhaseDraining
	PhaseAwaiting
	PhaseFinalizing
	PhaseDone
	PhaseAborted
)

var phaseNames = [...]string{
	PhaseValidating:   "validating",
	PhaseInitializing: "initializing",
	PhaseAccumulating: "accumulating",
	PhaseDraining:     "draining",
	PhaseAwaiting:     "awaiting",
	PhaseFinalizing:   "finalizing",
	PhaseDone:         "done",
	PhaseAborted:      "aborted",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}
