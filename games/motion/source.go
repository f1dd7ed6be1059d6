/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package motion turns raw device motion samples into discrete tilt gestures.
package motion

import (
	"math"
	"time"
)

// StandardGravity is one g in m/s².
const StandardGravity = 9.80665

// Source identifies where a reading came from. Lower values have higher priority.
type Source uint8

const (
	Primary Source = iota
	SecondaryNative
	TertiaryGravity
)

func (s Source) String() string {
	switch s {
	case Primary:
		return "primary"
	case SecondaryNative:
		return "native"
	case TertiaryGravity:
		return "gravity"
	default:
		return "unknown"
	}
}

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale returns v multiplied by f on every axis.
func (v Vector) Scale(f float64) Vector {
	return Vector{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Normalize converts a raw acceleration in m/s² into g units.
func Normalize(v Vector) Vector {
	return v.Scale(1 / StandardGravity)
}

// GravityFromOrientation derives a unit gravity vector from device
// orientation angles in degrees (beta: front-back, gamma: left-right),
// using the same axes as the accelerometer sources.
func GravityFromOrientation(beta, gamma float64) Vector {
	b := beta * math.Pi / 180
	g := gamma * math.Pi / 180

	return Vector{
		X: -math.Cos(b) * math.Sin(g),
		Y: math.Sin(b),
		Z: -math.Cos(b) * math.Cos(g),
	}
}

// SensorSource is anything that can be polled for an acceleration vector in g units.
// ok is false when the source has nothing to offer at all.
type SensorSource interface {
	Tag() Source
	Sample(now time.Time) (v Vector, ok bool)
}

// LatestSource holds the most recent sample pushed by a device. A sample
// older than the staleness window is reported as unavailable; a zero window
// keeps samples forever.
type LatestSource struct {
	tag   Source
	stale time.Duration

	v   Vector
	at  time.Time
	set bool
}

func NewLatestSource(tag Source, stale time.Duration) *LatestSource {
	return &LatestSource{tag: tag, stale: stale}
}

func (l *LatestSource) Tag() Source {
	return l.tag
}

func (l *LatestSource) Update(v Vector, at time.Time) {
	l.v = v
	l.at = at
	l.set = true
}

func (l *LatestSource) Clear() {
	l.v = Vector{}
	l.set = false
}

func (l *LatestSource) Sample(now time.Time) (Vector, bool) {
	if !l.set {
		return Vector{}, false
	}

	if l.stale > 0 && now.Sub(l.at) > l.stale {
		return Vector{}, false
	}

	return l.v, true
}
