/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package motion

import "time"

const (
	DefaultThreshold     = 0.5
	DefaultCooldown      = 500 * time.Millisecond
	DefaultReadyCooldown = time.Second
)

type Kind uint8

const (
	Confirm Kind = iota
	Skip
)

func (k Kind) String() string {
	if k == Confirm {
		return "confirm"
	}

	return "skip"
}

// ParseKind accepts the wire names produced by String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "confirm":
		return Confirm, true
	case "skip":
		return Skip, true
	}

	return 0, false
}

type Event struct {
	Kind   Kind
	At     time.Time
	Source Source
}

type RecognizerConfig struct {
	Threshold float64
	Cooldown  time.Duration
	Axis      Axis
}

// Recognizer emits at most one gesture per cooldown window, and nothing at
// all between a fire and the next Arm.
type Recognizer struct {
	cfg RecognizerConfig

	lastFire time.Time
	fired    bool
	armed    bool
}

func NewRecognizer(cfg RecognizerConfig) *Recognizer {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}

	return &Recognizer{cfg: cfg, armed: true}
}

func (r *Recognizer) Arm() {
	r.armed = true
}

func (r *Recognizer) Disarm() {
	r.armed = false
}

func (r *Recognizer) Armed() bool {
	return r.armed
}

// Hold restarts the cooldown window at now without emitting anything.
func (r *Recognizer) Hold(now time.Time) {
	r.lastFire = now
	r.fired = true
}

// Fire records a gesture that arrived by other means, such as a key press.
// It disarms and starts the cooldown exactly as a recognized tilt would.
func (r *Recognizer) Fire(now time.Time) {
	r.lastFire = now
	r.fired = true
	r.armed = false
}

// Reset arms the recognizer and forgets the last fire time.
func (r *Recognizer) Reset() {
	r.lastFire = time.Time{}
	r.fired = false
	r.armed = true
}

func (r *Recognizer) OnTick(reading Reading, now time.Time) (Event, bool) {
	if !r.armed {
		return Event{}, false
	}

	if r.fired && now.Sub(r.lastFire) < r.cfg.Cooldown {
		return Event{}, false
	}

	tilt := reading.Tilt(r.cfg.Axis)

	var kind Kind
	switch {
	case tilt > r.cfg.Threshold:
		kind = Confirm
	case tilt < -r.cfg.Threshold:
		kind = Skip
	default:
		return Event{}, false
	}

	r.lastFire = now
	r.fired = true
	r.armed = false

	return Event{Kind: kind, At: now, Source: reading.Source}, true
}
