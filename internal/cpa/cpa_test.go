package cpa

import (
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestHeadOn(t *testing.T) {
	own := Vessel{LatDeg: 43.0, LonDeg: 16.0, SogKn: f(10), CogDeg: f(0)}
	target := Vessel{LatDeg: 43.1, LonDeg: 16.0, SogKn: f(10), CogDeg: f(180)}

	res, ok := Compute(own, target)
	if !ok {
		t.Fatalf("expected result")
	}
	if res.CpaNm >= 0.5 {
		t.Fatalf("head-on cpa = %.3f nm, want < 0.5", res.CpaNm)
	}
	if res.TcpaMin <= 0 {
		t.Fatalf("head-on tcpa = %.3f min, want > 0", res.TcpaMin)
	}
	// 6 nm separation closing at 20 kn: 18 minutes to CPA.
	if math.Abs(res.TcpaMin-18.0) > 0.5 {
		t.Fatalf("tcpa = %.3f min, want ~18", res.TcpaMin)
	}
	if !res.IsWarning() || !res.IsDanger() {
		t.Fatalf("head-on must be warning and danger: %+v", res)
	}
}

func TestDiverging(t *testing.T) {
	own := Vessel{LatDeg: 43.0, LonDeg: 16.0, SogKn: f(10), CogDeg: f(180)}
	target := Vessel{LatDeg: 43.1, LonDeg: 16.0, SogKn: f(10), CogDeg: f(0)}

	res, ok := Compute(own, target)
	if !ok {
		t.Fatalf("expected result")
	}
	if res.TcpaMin >= 0 {
		t.Fatalf("diverging tcpa = %.3f, want negative (not clamped)", res.TcpaMin)
	}
	if res.IsWarning() || res.IsDanger() {
		t.Fatalf("diverging tracks must never warn: %+v", res)
	}
}

func TestBothStationary(t *testing.T) {
	own := Vessel{LatDeg: 43.0, LonDeg: 16.0, SogKn: f(0), CogDeg: f(0)}
	target := Vessel{LatDeg: 43.001, LonDeg: 16.0, SogKn: f(0), CogDeg: f(90)}

	if _, ok := Compute(own, target); ok {
		t.Fatalf("both stationary must return no result")
	}
}

func TestMissingVelocity(t *testing.T) {
	own := Vessel{LatDeg: 43.0, LonDeg: 16.0, SogKn: f(10), CogDeg: f(0)}
	target := Vessel{LatDeg: 43.1, LonDeg: 16.0}

	if _, ok := Compute(own, target); ok {
		t.Fatalf("missing target velocity must return no result")
	}
	if _, ok := Compute(target, own); ok {
		t.Fatalf("missing own velocity must return no result")
	}
}

func TestIdenticalVelocityVectors(t *testing.T) {
	own := Vessel{LatDeg: 43.0, LonDeg: 16.0, SogKn: f(10), CogDeg: f(45)}
	target := Vessel{LatDeg: 43.05, LonDeg: 16.05, SogKn: f(10), CogDeg: f(45)}

	if _, ok := Compute(own, target); ok {
		t.Fatalf("parallel same-speed tracks have no defined CPA time")
	}
}

func TestCrossingKeepsDistance(t *testing.T) {
	// Target passes well ahead: a warning-free crossing.
	own := Vessel{LatDeg: 43.0, LonDeg: 16.0, SogKn: f(5), CogDeg: f(0)}
	target := Vessel{LatDeg: 43.5, LonDeg: 15.5, SogKn: f(5), CogDeg: f(90)}

	res, ok := Compute(own, target)
	if !ok {
		t.Fatalf("expected result")
	}
	if res.CpaNm < warnCpaNm && res.TcpaMin > 0 && res.TcpaMin < warnTcpaMin {
		t.Fatalf("distant crossing should not be a warning: %+v", res)
	}
}

func TestDangerIsSubsetOfWarning(t *testing.T) {
	cases := []Result{
		{CpaNm: 0.4, TcpaMin: 10},
		{CpaNm: 0.49, TcpaMin: 14.9},
		{CpaNm: 0.1, TcpaMin: 0.1},
	}
	for _, r := range cases {
		if r.IsDanger() && !r.IsWarning() {
			t.Fatalf("danger without warning: %+v", r)
		}
	}
	if (Result{CpaNm: 0.4, TcpaMin: 20}).IsDanger() {
		t.Fatalf("tcpa 20 min must not be danger")
	}
	if (Result{CpaNm: 0.7, TcpaMin: 10}).IsDanger() {
		t.Fatalf("cpa 0.7 nm must not be danger")
	}
	if !(Result{CpaNm: 0.7, TcpaMin: 10}).IsWarning() {
		t.Fatalf("cpa 0.7 nm / 10 min must be warning")
	}
}
