// Package cpa computes closest-point-of-approach geometry between the own
// vessel and AIS targets.
//
// Positions are projected onto a flat local tangent plane (1' of latitude =
// 1 nm, longitude scaled by cos of the mean latitude). The approximation is
// fine at the short ranges (<20 nm) where collision warnings are meaningful;
// no great-circle correction is applied.
package cpa

import "math"

const (
	// Warning thresholds.
	warnCpaNm   = 1.0
	warnTcpaMin = 30.0
	// Danger thresholds, tighter on both axes.
	dangerCpaNm   = 0.5
	dangerTcpaMin = 15.0

	// Below this speed a vessel has no usable velocity vector.
	stationaryKn = 0.05
)

// Vessel is a track: position plus an optional velocity vector. Nil SogKn or
// CogDeg means the sensor is not reporting, which is different from zero.
type Vessel struct {
	LatDeg float64
	LonDeg float64
	SogKn  *float64
	CogDeg *float64
}

// Result is the CPA/TCPA pair for one own/target pairing. A negative TcpaMin
// means the relative range is currently increasing (diverging tracks); it is
// reported as-is, never clamped, so callers can use the sign.
type Result struct {
	CpaNm   float64 `json:"cpa_nm"`
	TcpaMin float64 `json:"tcpa_min"`
}

// IsWarning: closer than 1 nm within the next 30 minutes.
func (r Result) IsWarning() bool {
	return r.CpaNm < warnCpaNm && r.TcpaMin > 0 && r.TcpaMin < warnTcpaMin
}

// IsDanger: closer than 0.5 nm within the next 15 minutes. Danger tracks
// always also satisfy IsWarning since both bounds are tighter.
func (r Result) IsDanger() bool {
	return r.CpaNm < dangerCpaNm && r.TcpaMin > 0 && r.TcpaMin < dangerTcpaMin
}

// Compute returns the CPA/TCPA between own and target, or ok=false when the
// geometry is undefined: either vessel missing SOG/COG, both vessels
// stationary, or identical velocity vectors (relative motion degenerate).
func Compute(own, target Vessel) (Result, bool) {
	if own.SogKn == nil || own.CogDeg == nil || target.SogKn == nil || target.CogDeg == nil {
		return Result{}, false
	}
	if *own.SogKn < stationaryKn && *target.SogKn < stationaryKn {
		return Result{}, false
	}

	// Relative position of the target in nm on the local tangent plane.
	meanLat := (own.LatDeg + target.LatDeg) / 2.0 * math.Pi / 180.0
	relX := (target.LonDeg - own.LonDeg) * 60.0 * math.Cos(meanLat)
	relY := (target.LatDeg - own.LatDeg) * 60.0

	ovx, ovy := velocity(*own.SogKn, *own.CogDeg)
	tvx, tvy := velocity(*target.SogKn, *target.CogDeg)
	relVX := tvx - ovx
	relVY := tvy - ovy

	relSpeed2 := relVX*relVX + relVY*relVY
	if relSpeed2 < 1e-9 {
		// Same velocity vector: range never changes, no point of approach.
		return Result{}, false
	}

	tcpaHours := -(relX*relVX + relY*relVY) / relSpeed2
	cpaX := relX + relVX*tcpaHours
	cpaY := relY + relVY*tcpaHours

	return Result{
		CpaNm:   math.Hypot(cpaX, cpaY),
		TcpaMin: tcpaHours * 60.0,
	}, true
}

// velocity converts SOG (kn) + COG (deg true) into east/north components in
// nm per hour.
func velocity(sogKn, cogDeg float64) (vx, vy float64) {
	rad := cogDeg * math.Pi / 180.0
	return sogKn * math.Sin(rad), sogKn * math.Cos(rad)
}
