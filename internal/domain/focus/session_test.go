package focus

import "testing"

func TestRememberDecisionKeepsFirstVerdict(t *testing.T) {
	s := &Session{}
	if _, ok := s.LookupDecision("vid-00001"); ok {
		t.Fatalf("expected empty session map")
	}
	if !s.RememberDecision("vid-00001", Verdict{Decision: DecisionValid, Confidence: 0.9, Reason: "on topic"}) {
		t.Fatalf("expected first verdict to be stored")
	}
	if s.RememberDecision("vid-00001", Verdict{Decision: DecisionInvalid, Confidence: 0.1}) {
		t.Fatalf("expected second verdict for the same video to be ignored")
	}
	got, ok := s.LookupDecision("vid-00001")
	if !ok || got.Decision != DecisionValid || got.Confidence != 0.9 {
		t.Fatalf("unexpected verdict: %#v ok=%v", got, ok)
	}
}

func TestDecisionMapToleratesGarbage(t *testing.T) {
	s := &Session{Decisions: []byte("{not json")}
	if m := s.DecisionMap(); len(m) != 0 {
		t.Fatalf("expected empty map, got %#v", m)
	}
}

func TestStatusHelpers(t *testing.T) {
	for _, tc := range []struct {
		status   string
		active   bool
		terminal bool
	}{
		{StatusArmed, true, false},
		{StatusRunning, true, false},
		{StatusCompleted, false, true},
		{StatusInvalid, false, true},
	} {
		s := &Session{Status: tc.status}
		if s.IsActive() != tc.active || s.IsTerminal() != tc.terminal {
			t.Fatalf("%s: active=%v terminal=%v", tc.status, s.IsActive(), s.IsTerminal())
		}
	}
}
