package agentproc

import (
	"testing"
)

func TestValidMode(t *testing.T) {
	tests := []struct {
		mode Mode
		want bool
	}{
		{ModeInteractive, true},
		{ModePrint, true},
		{Mode("stream"), false},
		{Mode(""), false},
	}
	for _, tt := range tests {
		if got := ValidMode(tt.mode); got != tt.want {
			t.Errorf("ValidMode(%q) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StatePending, "pending"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateDone, "done"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestSendBeforeStart(t *testing.T) {
	var r Runner
	if err := r.Send("hello"); err != ErrNotRunning {
		t.Errorf("Send before start = %v, want ErrNotRunning", err)
	}
}

func TestStartInvalidState(t *testing.T) {
	var r Runner
	r.state.Store(int32(StateRunning))

	err := r.StartInteractive(t.Context())
	if err == nil {
		t.Fatal("expected error starting a running session")
	}
	// Either not installed or invalid state, depending on environment;
	// both refuse the start.
}

func TestStopIdleRunner(t *testing.T) {
	var r Runner
	r.Stop() // must not panic or block
}
