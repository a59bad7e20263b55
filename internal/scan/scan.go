// Package scan implements the per-channel teletext acquisition scan
// controller: a state machine that walks a channel list (or a band-scan
// iterator), waits out signal/PID/teletext-detection deadlines on each
// channel, and reports a fraction-done progress indicator while it works.
package scan

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/snapetech/ttxepg/internal/metrics"
	"github.com/snapetech/ttxepg/internal/ratelimit"
)

// State is one step of the per-channel scan state machine.
type State int

const (
	StateReset State = iota
	StateWaitSignal
	StateWaitDVBPID
	StateWaitAny
	StateWaitNI
	StateDone
)

func (s State) String() string {
	switch s {
	case StateReset:
		return "RESET"
	case StateWaitSignal:
		return "WAIT_SIGNAL"
	case StateWaitDVBPID:
		return "WAIT_DVB_PID"
	case StateWaitAny:
		return "WAIT_ANY"
	case StateWaitNI:
		return "WAIT_NI"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TTXDetectPackets and TTXDetectPages are the TTX_DETECTION thresholds: a
// channel counts as "has teletext" only once both are met within the scan
// window for that channel.
const (
	TTXDetectPackets = 15
	TTXDetectPages   = 2
)

// Per-state deadlines, doubled in "slow" mode.
const (
	deadlineWaitSignal  = 2 * time.Second
	deadlineWaitDVBPID  = 4 * time.Second
	deadlineWaitAnyMin  = 2 * time.Second
	deadlineWaitAnyMax  = 4 * time.Second
	deadlineWaitNI      = 6 * time.Second
)

// reschedule is the delay range the controller asks the owner's event loop
// to wait before the next Tick, between channels.
const (
	rescheduleMin = 50 * time.Millisecond
	rescheduleMax = 250 * time.Millisecond
)

// Channel describes one tunable entry in the scan list.
type Channel struct {
	Name      string
	Frequency uint64 // Hz; meaning is tuner-specific
	DVB       bool   // true selects the WAIT_DVB_PID step
}

// Observation is the per-tick snapshot the tuner/assembler layer feeds the
// controller: what has been seen on the currently tuned channel since the
// last state transition.
type Observation struct {
	HasVideoSignal bool
	TTXPacketCount int
	TTXPageCount   int // distinct pages seen
	DVBPID         int // teletext PID; <=0 means "none found yet"
	CNIWaitHint    bool // CNI layer asked for more time to confirm
	CNIConfirmed   bool
	FatalError     error
}

// Result is what the controller reports for one completed channel.
type Result struct {
	Channel   Channel
	HasVideo  bool
	HasTTX    bool
	CNI       bool
	Err       error
}

// StatusFunc receives human-readable progress messages, mirroring the
// scan worker's log.Printf status lines.
type StatusFunc func(format string, args ...any)

// Controller drives the scan across a fixed channel list.
type Controller struct {
	Channels []Channel
	Slow     bool
	OnStatus StatusFunc
	OnResult func(Result)

	// Metrics, when set, receives live scan progress and per-channel
	// outcome counts. Metrics may be nil.
	Metrics *metrics.Metrics

	// RetuneLimiter paces beginChannel's simulated frequency retune, so a
	// band scan over many channels does not starve the acquisition
	// goroutine of CPU. RetuneLimiter may be nil, which disables pacing.
	RetuneLimiter *ratelimit.Limiter

	idx        int
	state      State
	channelAt  time.Time
	stateSince time.Time

	scanPkgCount int
	scanPageSet  map[int]bool
	sawVideo     bool
	dvbPID       int

	channelsWithSignal   int
	channelsWithTeletext int

	stopped bool
	fatal   error
}

// NewController builds a controller over channels. slow doubles every
// per-state deadline (used for noisy/low-signal tuners).
func NewController(channels []Channel, slow bool) *Controller {
	return &Controller{
		Channels:    channels,
		Slow:        slow,
		state:       StateReset,
		scanPageSet: make(map[int]bool),
	}
}

func (c *Controller) status(format string, args ...any) {
	if c.OnStatus != nil {
		c.OnStatus(format, args...)
		return
	}
	log.Printf("scan: "+format, args...)
}

func (c *Controller) deadline(s State) time.Duration {
	var d time.Duration
	switch s {
	case StateWaitSignal:
		d = deadlineWaitSignal
	case StateWaitDVBPID:
		d = deadlineWaitDVBPID
	case StateWaitAny:
		d = deadlineWaitAnyMin
		if c.scanPkgCount > 1 && !c.ttxDetected() {
			d = deadlineWaitAnyMax
		}
	case StateWaitNI:
		d = deadlineWaitNI
	default:
		return 0
	}
	if c.Slow {
		d *= 2
	}
	return d
}

func (c *Controller) ttxDetected() bool {
	return c.scanPkgCount >= TTXDetectPackets && len(c.scanPageSet) >= TTXDetectPages
}

// FractionDone returns the public progress indicator.
func (c *Controller) FractionDone() float64 {
	total := len(c.Channels)
	if total == 0 {
		return 1.0
	}
	return float64(c.idx) / float64(total+1)
}

// Done reports whether every channel has been scanned.
func (c *Controller) Done() bool {
	return c.stopped || c.idx >= len(c.Channels)
}

// Err returns the fatal driver error that stopped the scan, if any.
func (c *Controller) Err() error { return c.fatal }

// Tick advances the state machine by one step given the current
// observation and wall-clock time, returning the delay the owner's event
// loop should wait before calling Tick again.
func (c *Controller) Tick(now time.Time, obs Observation) time.Duration {
	if c.Done() {
		return rescheduleMax
	}
	if obs.FatalError != nil {
		c.fatal = obs.FatalError
		c.stopped = true
		c.status("fatal driver error on %s: %v", c.current().Name, obs.FatalError)
		return 0
	}

	if c.state == StateReset {
		c.beginChannel(now)
	}

	c.scanPkgCount += obs.TTXPacketCount
	for i := 0; i < obs.TTXPageCount; i++ {
		c.scanPageSet[i] = true
	}
	if obs.HasVideoSignal {
		c.sawVideo = true
	}
	if obs.DVBPID > 0 {
		c.dvbPID = obs.DVBPID
	}

	elapsed := now.Sub(c.stateSince)
	advance := false

	switch c.state {
	case StateWaitSignal:
		if obs.HasVideoSignal || c.scanPkgCount > 0 || c.Slow {
			advance = true
		} else if elapsed >= c.deadline(StateWaitSignal) {
			c.finishChannel(now, false, false, false)
			return c.afterChannel()
		}
	case StateWaitDVBPID:
		if obs.DVBPID > 0 {
			advance = true
		} else if elapsed >= c.deadline(StateWaitDVBPID) {
			if !c.current().DVB || obs.DVBPID <= 0 {
				c.finishChannel(now, c.sawVideo, false, false)
				return c.afterChannel()
			}
		}
	case StateWaitAny:
		if c.ttxDetected() {
			advance = true
		} else if elapsed >= c.deadline(StateWaitAny) {
			c.finishChannel(now, c.sawVideo, c.ttxDetected(), false)
			return c.afterChannel()
		}
	case StateWaitNI:
		if obs.CNIConfirmed {
			c.finishChannel(now, c.sawVideo, c.ttxDetected(), true)
			return c.afterChannel()
		} else if elapsed >= c.deadline(StateWaitNI) {
			c.finishChannel(now, c.sawVideo, c.ttxDetected(), false)
			return c.afterChannel()
		}
	}

	if advance {
		c.nextState(now, obs)
		if c.state == StateDone {
			return c.afterChannel()
		}
	}
	return rescheduleMin
}

func (c *Controller) current() Channel {
	if c.idx < len(c.Channels) {
		return c.Channels[c.idx]
	}
	return Channel{}
}

func (c *Controller) beginChannel(now time.Time) {
	if c.RetuneLimiter != nil {
		c.RetuneLimiter.Wait(context.Background())
	}
	c.channelAt = now
	c.stateSince = now
	c.scanPkgCount = 0
	c.scanPageSet = make(map[int]bool)
	c.sawVideo = false
	c.dvbPID = 0
	c.state = StateWaitSignal
	c.status("tuning %s", c.current().Name)
}

func (c *Controller) nextState(now time.Time, obs Observation) {
	switch c.state {
	case StateWaitSignal:
		if c.current().DVB {
			c.state = StateWaitDVBPID
		} else {
			c.state = StateWaitAny
		}
	case StateWaitDVBPID:
		c.state = StateWaitAny
	case StateWaitAny:
		if obs.CNIWaitHint {
			c.state = StateWaitNI
		} else {
			c.finishChannel(now, c.sawVideo, c.ttxDetected(), false)
			return
		}
	}
	c.stateSince = now
}

func (c *Controller) finishChannel(now time.Time, hasVideo, hasTTX, cni bool) {
	res := Result{Channel: c.current(), HasVideo: hasVideo, HasTTX: hasTTX, CNI: cni}
	c.status("channel %s done: video=%v ttx=%v cni=%v", res.Channel.Name, hasVideo, hasTTX, cni)
	if hasVideo {
		c.channelsWithSignal++
	}
	if hasTTX {
		c.channelsWithTeletext++
	}
	if c.Metrics != nil {
		c.Metrics.ChannelsWithSignal.Set(float64(c.channelsWithSignal))
		c.Metrics.ChannelsWithTeletext.Set(float64(c.channelsWithTeletext))
		if cni {
			c.Metrics.CNIConfirmed.WithLabelValues("scan").Inc()
		}
	}
	if c.OnResult != nil {
		c.OnResult(res)
	}
	c.state = StateDone
}

func (c *Controller) afterChannel() time.Duration {
	c.idx++
	c.state = StateReset
	if c.Metrics != nil {
		c.Metrics.ScanFractionDone.Set(c.FractionDone())
	}
	if c.Done() {
		c.status("scan complete: %d channels", c.idx)
		return 0
	}
	return rescheduleMin
}
