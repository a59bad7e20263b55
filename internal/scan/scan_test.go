package scan

import (
	"testing"
	"time"

	"github.com/snapetech/ttxepg/internal/metrics"
	"github.com/snapetech/ttxepg/internal/ratelimit"
)

func TestController_advancesThroughStatesOnSignal(t *testing.T) {
	c := NewController([]Channel{{Name: "ch1"}}, false)
	now := time.Unix(0, 0)

	c.Tick(now, Observation{}) // RESET -> WAIT_SIGNAL
	if c.state != StateWaitSignal {
		t.Fatalf("state = %v, want WAIT_SIGNAL", c.state)
	}

	c.Tick(now, Observation{HasVideoSignal: true}) // -> WAIT_ANY (non-DVB channel)
	if c.state != StateWaitAny {
		t.Fatalf("state = %v, want WAIT_ANY", c.state)
	}
}

func TestController_waitSignalTimesOutToDone(t *testing.T) {
	c := NewController([]Channel{{Name: "ch1"}, {Name: "ch2"}}, false)
	now := time.Unix(0, 0)

	c.Tick(now, Observation{})
	c.Tick(now.Add(3*time.Second), Observation{})

	if c.idx != 1 {
		t.Fatalf("idx = %d, want 1 (advanced past ch1)", c.idx)
	}
}

func TestController_ttxDetectionThreshold(t *testing.T) {
	c := NewController([]Channel{{Name: "ch1"}}, false)
	now := time.Unix(0, 0)

	c.Tick(now, Observation{HasVideoSignal: true})
	for i := 0; i < TTXDetectPackets; i++ {
		c.Tick(now, Observation{TTXPacketCount: 1, TTXPageCount: 1})
	}
	if !c.ttxDetected() {
		t.Error("expected ttxDetected() true after enough packets and distinct pages")
	}
}

func TestController_slowModeDoublesDeadlines(t *testing.T) {
	slow := NewController([]Channel{{Name: "ch1"}}, true)
	fast := NewController([]Channel{{Name: "ch1"}}, false)

	if slow.deadline(StateWaitDVBPID) != 2*fast.deadline(StateWaitDVBPID) {
		t.Errorf("slow deadline = %v, want double of fast %v", slow.deadline(StateWaitDVBPID), fast.deadline(StateWaitDVBPID))
	}
}

func TestController_fractionDone(t *testing.T) {
	c := NewController([]Channel{{Name: "a"}, {Name: "b"}, {Name: "c"}}, false)
	if got := c.FractionDone(); got != 0 {
		t.Errorf("FractionDone at start = %v, want 0", got)
	}
	c.idx = 3
	if got := c.FractionDone(); got != 0.75 {
		t.Errorf("FractionDone at end = %v, want 0.75", got)
	}
}

func TestController_fatalErrorStopsScan(t *testing.T) {
	c := NewController([]Channel{{Name: "a"}}, false)
	c.Tick(time.Unix(0, 0), Observation{FatalError: errTest})
	if !c.Done() || c.Err() == nil {
		t.Error("expected a fatal observation to stop the scan and record the error")
	}
}

func TestController_publishesMetricsAndRespectsRetuneLimiter(t *testing.T) {
	m := metrics.New()
	c := NewController([]Channel{{Name: "ch1"}, {Name: "ch2"}}, false)
	c.Metrics = m
	c.RetuneLimiter = ratelimit.New(0, 0) // disabled, must not block Tick
	now := time.Unix(0, 0)

	c.Tick(now, Observation{})
	c.Tick(now.Add(3*time.Second), Observation{})

	mfs, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected scan controller to have published at least one metric")
	}
}

var errTest = &scanTestError{}

type scanTestError struct{}

func (*scanTestError) Error() string { return "driver error" }
