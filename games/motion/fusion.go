/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package motion

import (
	"sort"
	"time"
)

// DeadEpsilon is the magnitude, in g, below which a source is considered dead.
const DeadEpsilon = 0.1

type Reading struct {
	Vector    Vector  `json:"vector"`
	Magnitude float64 `json:"magnitude"`
	Source    Source  `json:"source"`
}

// Axis selects which component of a reading counts as tilt. The zero
// value is AxisY.
type Axis uint8

const (
	AxisY Axis = iota
	AxisX
	AxisZ
)

func (r Reading) Tilt(axis Axis) float64 {
	switch axis {
	case AxisX:
		return r.Vector.X
	case AxisZ:
		return r.Vector.Z
	default:
		return r.Vector.Y
	}
}

// FusionProvider picks the best available source on every read.
type FusionProvider struct {
	sources []SensorSource
}

// NewFusionProvider orders sources by priority (Primary first). Sources
// sharing a tag keep the order they were passed in.
func NewFusionProvider(sources ...SensorSource) *FusionProvider {
	ordered := make([]SensorSource, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			ordered = append(ordered, s)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Tag() < ordered[j].Tag()
	})

	return &FusionProvider{sources: ordered}
}

// Read returns the first present, live source's reading. When nothing
// qualifies the zero vector tagged Primary is returned.
func (f *FusionProvider) Read(now time.Time) Reading {
	for _, s := range f.sources {
		v, ok := s.Sample(now)
		if !ok {
			continue
		}

		mag := v.Magnitude()
		if mag < DeadEpsilon {
			continue
		}

		return Reading{Vector: v, Magnitude: mag, Source: s.Tag()}
	}

	return Reading{Source: Primary}
}
