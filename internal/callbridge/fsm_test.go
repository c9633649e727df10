package callbridge

import "testing"

func TestPhaseGraph(t *testing.T) {
	legal := []struct{ from, to Phase }{
		{PhaseIdle, PhaseRequestingCapability},
		{PhaseRequestingCapability, PhaseAwaitingAuth},
		{PhaseAwaitingAuth, PhaseSignaling},
		{PhaseSignaling, PhaseLive},
		{PhaseLive, PhaseEnded},
		{PhaseRequestingCapability, PhaseEnded},
		{PhaseAwaitingAuth, PhaseEnded},
		{PhaseSignaling, PhaseEnded},
	}
	for _, tt := range legal {
		if !canTransition(tt.from, tt.to) {
			t.Fatalf("%s -> %s should be legal", tt.from, tt.to)
		}
	}

	illegal := []struct{ from, to Phase }{
		{PhaseIdle, PhaseLive},
		{PhaseSignaling, PhaseAwaitingAuth},
		{PhaseLive, PhaseSignaling},
		{PhaseEnded, PhaseRequestingCapability},
		{PhaseEnded, PhaseEnded},
	}
	for _, tt := range illegal {
		if canTransition(tt.from, tt.to) {
			t.Fatalf("%s -> %s should be illegal", tt.from, tt.to)
		}
	}
}

func TestPhaseActive(t *testing.T) {
	for _, p := range []Phase{PhaseRequestingCapability, PhaseAwaitingAuth, PhaseSignaling, PhaseLive} {
		if !p.Active() {
			t.Fatalf("%s should be active", p)
		}
	}
	for _, p := range []Phase{PhaseIdle, PhaseEnded} {
		if p.Active() {
			t.Fatalf("%s should not be active", p)
		}
	}
}
