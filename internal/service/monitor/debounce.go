package monitor

import (
	"strings"
	"time"
)

// Policy selects how continuous presence is reported.
type Policy string

const (
	// PolicyEdge fires once per presence episode.
	PolicyEdge Policy = "edge"
	// PolicyPeriodic re-fires every cooldown while presence continues.
	PolicyPeriodic Policy = "periodic"
)

// ParsePolicy maps a config string to a Policy, defaulting to PolicyEdge.
func ParsePolicy(s string) Policy {
	if Policy(strings.ToLower(strings.TrimSpace(s))) == PolicyPeriodic {
		return PolicyPeriodic
	}
	return PolicyEdge
}

// PresenceState is the debounce state of a presence monitor. IDLE means
// armed, not necessarily that nobody is in view: a face that returns within
// the cooldown is held in IDLE until the cooldown passes (see Debouncer.Held).
type PresenceState int

const (
	StateIdle PresenceState = iota
	StatePresentCooldown
)

func (s PresenceState) String() string {
	switch s {
	case StatePresentCooldown:
		return "PRESENT_COOLDOWN"
	default:
		return "IDLE"
	}
}

// Debouncer turns per-frame face counts into PersonDetected decisions.
//
//	IDLE + face             -> fire, PRESENT_COOLDOWN
//	PRESENT_COOLDOWN + face -> nothing (edge) / fire once cooldown elapsed (periodic)
//	any + no face           -> IDLE
//
// A return to presence sooner than cooldown after the last fire stays IDLE
// until the cooldown has passed, so a flickering detection cannot greet twice.
// It is not safe for concurrent use; each polling goroutine owns its own.
type Debouncer struct {
	policy   Policy
	cooldown time.Duration
	state    PresenceState
	lastEmit time.Time
	fired    bool
	held     bool
}

// NewDebouncer creates a debouncer in the IDLE state.
func NewDebouncer(policy Policy, cooldown time.Duration) *Debouncer {
	return &Debouncer{policy: policy, cooldown: cooldown}
}

// Observe records one frame and reports whether an event should fire.
func (d *Debouncer) Observe(present bool, now time.Time) bool {
	d.held = false
	if !present {
		d.state = StateIdle
		return false
	}

	switch d.state {
	case StateIdle:
		if d.fired && now.Sub(d.lastEmit) < d.cooldown {
			d.held = true
			return false
		}
		d.fire(now)
		return true
	case StatePresentCooldown:
		if d.policy == PolicyPeriodic && now.Sub(d.lastEmit) >= d.cooldown {
			d.fire(now)
			return true
		}
	}
	return false
}

func (d *Debouncer) fire(now time.Time) {
	d.state = StatePresentCooldown
	d.lastEmit = now
	d.fired = true
}

// State returns the current state.
func (d *Debouncer) State() PresenceState {
	return d.state
}

// Held reports whether the last frame showed a face that is being held in
// IDLE because the cooldown since the previous fire has not passed.
func (d *Debouncer) Held() bool {
	return d.held
}

// LastEmit returns the time of the last fire, zero if none.
func (d *Debouncer) LastEmit() time.Time {
	return d.lastEmit
}
