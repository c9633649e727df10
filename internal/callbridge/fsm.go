package callbridge

// Phase is the connection phase of the single outbound call session.
type Phase string

const (
	PhaseIdle                 Phase = "IDLE"
	PhaseRequestingCapability Phase = "REQUESTING_CAPABILITY"
	PhaseAwaitingAuth         Phase = "AWAITING_AUTH"
	PhaseSignaling            Phase = "SIGNALING"
	PhaseLive                 Phase = "LIVE"
	PhaseEnded                Phase = "ENDED"
)

// phaseTransitions is the call lifecycle graph. ENDED is reachable from
// every non-terminal phase so that teardown is always legal.
var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:                 {PhaseRequestingCapability},
	PhaseRequestingCapability: {PhaseAwaitingAuth, PhaseEnded},
	PhaseAwaitingAuth:         {PhaseSignaling, PhaseEnded},
	PhaseSignaling:            {PhaseLive, PhaseEnded},
	PhaseLive:                 {PhaseEnded},
	PhaseEnded:                {},
}

func canTransition(from, to Phase) bool {
	for _, next := range phaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Active reports whether the phase belongs to a session that is still
// holding the bridge.
func (p Phase) Active() bool {
	switch p {
	case PhaseRequestingCapability, PhaseAwaitingAuth, PhaseSignaling, PhaseLive:
		return true
	default:
		return false
	}
}
