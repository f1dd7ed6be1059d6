package motion

import (
	"math"
	"testing"
	"time"
)

type fixedSource struct {
	tag Source
	v   Vector
	ok  bool
}

func (f fixedSource) Tag() Source { return f.tag }

func (f fixedSource) Sample(time.Time) (Vector, bool) { return f.v, f.ok }

func TestFusionPrefersPrimary(t *testing.T) {
	now := time.Now()
	f := NewFusionProvider(
		fixedSource{tag: TertiaryGravity, v: Vector{Y: 1}, ok: true},
		fixedSource{tag: Primary, v: Vector{Y: 0.8}, ok: true},
		fixedSource{tag: SecondaryNative, v: Vector{Y: 0.6}, ok: true},
	)

	r := f.Read(now)
	if r.Source != Primary || r.Vector.Y != 0.8 {
		t.Fatalf("read = %+v, want primary y=0.8", r)
	}
}

func TestFusionFallsBackWhenPrimaryDead(t *testing.T) {
	now := time.Now()
	f := NewFusionProvider(
		fixedSource{tag: Primary, v: Vector{X: 0.01, Y: 0.02}, ok: true},
		fixedSource{tag: SecondaryNative, v: Vector{Y: -0.7, Z: -0.7}, ok: true},
		fixedSource{tag: TertiaryGravity, v: Vector{Y: 1}, ok: true},
	)

	r := f.Read(now)
	if r.Source != SecondaryNative {
		t.Fatalf("source = %v, want %v", r.Source, SecondaryNative)
	}
	if r.Vector.Y != -0.7 {
		t.Fatalf("y = %f, want -0.7", r.Vector.Y)
	}
}

func TestFusionSkipsAbsentSources(t *testing.T) {
	f := NewFusionProvider(
		fixedSource{tag: Primary},
		fixedSource{tag: SecondaryNative},
		fixedSource{tag: TertiaryGravity, v: Vector{Z: -1}, ok: true},
	)

	if r := f.Read(time.Now()); r.Source != TertiaryGravity {
		t.Fatalf("source = %v, want %v", r.Source, TertiaryGravity)
	}
}

func TestFusionAllDeadReturnsZero(t *testing.T) {
	f := NewFusionProvider(
		fixedSource{tag: Primary, v: Vector{X: 0.05}, ok: true},
		fixedSource{tag: SecondaryNative},
		fixedSource{tag: TertiaryGravity, v: Vector{}, ok: true},
	)

	r := f.Read(time.Now())
	if r.Source != Primary || r.Vector != (Vector{}) || r.Magnitude != 0 {
		t.Fatalf("read = %+v, want zero primary reading", r)
	}

	if r := NewFusionProvider().Read(time.Now()); r.Source != Primary || r.Vector != (Vector{}) {
		t.Fatalf("empty provider read = %+v, want zero primary reading", r)
	}
}

func TestFusionRecoversWithoutStickyState(t *testing.T) {
	now := time.Now()
	primary := NewLatestSource(Primary, 0)
	native := NewLatestSource(SecondaryNative, 0)
	f := NewFusionProvider(primary, native)

	primary.Update(Vector{}, now)
	native.Update(Vector{Y: 1}, now)
	if r := f.Read(now); r.Source != SecondaryNative {
		t.Fatalf("source = %v, want native while primary is dead", r.Source)
	}

	primary.Update(Vector{Y: 0.9}, now)
	if r := f.Read(now); r.Source != Primary {
		t.Fatalf("source = %v, want primary once it comes back", r.Source)
	}
}

func TestLatestSourceGoesStale(t *testing.T) {
	now := time.Now()
	s := NewLatestSource(Primary, 250*time.Millisecond)

	if _, ok := s.Sample(now); ok {
		t.Fatalf("expected empty source to be unavailable")
	}

	s.Update(Vector{Y: 1}, now)
	if _, ok := s.Sample(now.Add(200 * time.Millisecond)); !ok {
		t.Fatalf("expected fresh sample to be available")
	}
	if _, ok := s.Sample(now.Add(300 * time.Millisecond)); ok {
		t.Fatalf("expected stale sample to be unavailable")
	}

	s.Update(Vector{Y: 1}, now)
	s.Clear()
	if _, ok := s.Sample(now); ok {
		t.Fatalf("expected cleared source to be unavailable")
	}
}

func TestGravityFromOrientation(t *testing.T) {
	flat := GravityFromOrientation(0, 0)
	if math.Abs(flat.Z+1) > 1e-9 || math.Abs(flat.Y) > 1e-9 {
		t.Fatalf("flat gravity = %+v, want (0,0,-1)", flat)
	}

	upright := GravityFromOrientation(90, 0)
	if math.Abs(upright.Y-1) > 1e-9 {
		t.Fatalf("upright gravity = %+v, want y=1", upright)
	}

	for _, angles := range [][2]float64{{30, 10}, {-45, 60}, {120, -80}} {
		g := GravityFromOrientation(angles[0], angles[1])
		if math.Abs(g.Magnitude()-1) > 1e-9 {
			t.Fatalf("gravity %v magnitude = %f, want 1", angles, g.Magnitude())
		}
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize(Vector{Y: StandardGravity})
	if math.Abs(v.Y-1) > 1e-12 {
		t.Fatalf("normalized y = %f, want 1", v.Y)
	}
}

func reading(y float64) Reading {
	v := Vector{Y: y}
	return Reading{Vector: v, Magnitude: v.Magnitude(), Source: Primary}
}

func TestRecognizerThresholdIsStrict(t *testing.T) {
	now := time.Now()
	r := NewRecognizer(RecognizerConfig{Threshold: 0.5, Cooldown: 500 * time.Millisecond, Axis: AxisY})

	if _, ok := r.OnTick(reading(0.5), now); ok {
		t.Fatalf("fired at exactly +threshold")
	}
	if _, ok := r.OnTick(reading(-0.5), now); ok {
		t.Fatalf("fired at exactly -threshold")
	}

	ev, ok := r.OnTick(reading(0.51), now)
	if !ok || ev.Kind != Confirm {
		t.Fatalf("expected confirm above threshold, got %+v ok=%v", ev, ok)
	}

	r.Reset()
	ev, ok = r.OnTick(reading(-0.51), now)
	if !ok || ev.Kind != Skip {
		t.Fatalf("expected skip below -threshold, got %+v ok=%v", ev, ok)
	}
}

func TestRecognizerDisarmsUntilArm(t *testing.T) {
	start := time.Now()
	r := NewRecognizer(RecognizerConfig{Threshold: 0.5, Cooldown: 100 * time.Millisecond})

	if _, ok := r.OnTick(reading(1), start); !ok {
		t.Fatalf("expected first tilt to fire")
	}

	if _, ok := r.OnTick(reading(1), start.Add(time.Second)); ok {
		t.Fatalf("fired while disarmed")
	}

	r.Arm()
	if _, ok := r.OnTick(reading(1), start.Add(time.Second)); !ok {
		t.Fatalf("expected fire after re-arm and cooldown")
	}
}

func TestRecognizerCooldownMonotonic(t *testing.T) {
	const cooldown = 500 * time.Millisecond
	start := time.Now()
	r := NewRecognizer(RecognizerConfig{Threshold: 0.5, Cooldown: cooldown})

	var fired []Event
	for i := 0; i < 200; i++ {
		now := start.Add(time.Duration(i) * 25 * time.Millisecond)
		r.Arm()

		y := 0.9
		if i%3 == 0 {
			y = -0.9
		}

		if ev, ok := r.OnTick(reading(y), now); ok {
			fired = append(fired, ev)
		}
	}

	if len(fired) < 2 {
		t.Fatalf("expected several events, got %d", len(fired))
	}

	for i := 1; i < len(fired); i++ {
		if gap := fired[i].At.Sub(fired[i-1].At); gap < cooldown {
			t.Fatalf("events %d and %d are %s apart, want >= %s", i-1, i, gap, cooldown)
		}
	}
}

func TestRecognizerHoldDelaysFirstFire(t *testing.T) {
	start := time.Now()
	r := NewRecognizer(RecognizerConfig{Threshold: 0.5, Cooldown: time.Second})
	r.Hold(start)

	if _, ok := r.OnTick(reading(1), start.Add(500*time.Millisecond)); ok {
		t.Fatalf("fired inside hold window")
	}
	if _, ok := r.OnTick(reading(1), start.Add(time.Second)); !ok {
		t.Fatalf("expected fire once hold window elapsed")
	}
}

func TestRecognizerFireStartsCooldown(t *testing.T) {
	start := time.Now()
	r := NewRecognizer(RecognizerConfig{Threshold: 0.5, Cooldown: 500 * time.Millisecond})

	r.Fire(start)
	if r.Armed() {
		t.Fatalf("still armed after Fire")
	}

	r.Arm()
	if _, ok := r.OnTick(reading(1), start.Add(300*time.Millisecond)); ok {
		t.Fatalf("fired inside the cooldown started by Fire")
	}
	if _, ok := r.OnTick(reading(1), start.Add(500*time.Millisecond)); !ok {
		t.Fatalf("expected fire once the cooldown elapsed")
	}
}

func TestRecognizerDefaultsToYAxis(t *testing.T) {
	var cfg RecognizerConfig
	if cfg.Axis != AxisY {
		t.Fatalf("zero axis = %d, want AxisY", cfg.Axis)
	}

	r := NewRecognizer(RecognizerConfig{Threshold: 0.5})
	if _, ok := r.OnTick(Reading{Vector: Vector{Y: 0.9}, Magnitude: 0.9}, time.Now()); !ok {
		t.Fatalf("unset axis did not react to y tilt")
	}
}

func TestRecognizerAxis(t *testing.T) {
	r := NewRecognizer(RecognizerConfig{Threshold: 0.5, Axis: AxisX})

	if _, ok := r.OnTick(reading(0.9), time.Now()); ok {
		t.Fatalf("fired on y while configured for x")
	}

	ev, ok := r.OnTick(Reading{Vector: Vector{X: -0.9}}, time.Now())
	if !ok || ev.Kind != Skip {
		t.Fatalf("expected skip on negative x, got %+v ok=%v", ev, ok)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Confirm, Skip} {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}

	if _, ok := ParseKind("sideways"); ok {
		t.Fatalf("ParseKind accepted an unknown kind")
	}
}
