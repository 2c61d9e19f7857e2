package nav

import (
	"math"
	"sync"
	"time"

	"seawatch/internal/nmea"
)

// Position is a geodetic point in signed decimal degrees.
type Position struct {
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
}

// Wind is the latest wind measurement. Reference is "R" (relative to bow) or
// "T" (true).
type Wind struct {
	AngleDeg  float64 `json:"angle_deg"`
	SpeedKn   float64 `json:"speed_kn"`
	Reference string  `json:"reference"`
}

// Aggregator folds parsed sentences into the latest-record-per-type state.
// All derived values live on Snapshot and are computed on access, so the only
// invariant to maintain is "each field holds the most recent record".
type Aggregator struct {
	mu   sync.RWMutex
	snap Snapshot
}

// Snapshot holds the most recent record of each sentence kind plus the time
// of the last update. Records are immutable once stored, so the snapshot can
// be copied and read from any goroutine.
type Snapshot struct {
	RMC *nmea.RMC
	GGA *nmea.GGA
	VTG *nmea.VTG
	MWV *nmea.MWV
	DPT *nmea.DPT
	HDG *nmea.HDG
	MTW *nmea.MTW

	UpdatedAt time.Time
}

func New() *Aggregator {
	return &Aggregator{}
}

// Apply stores rec as the latest record of its kind. Returns false for record
// kinds the aggregator does not track.
func (a *Aggregator) Apply(nowUTC time.Time, rec nmea.Record) bool {
	if a == nil || rec == nil {
		return false
	}
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch r := rec.(type) {
	case nmea.RMC:
		a.snap.RMC = &r
	case nmea.GGA:
		a.snap.GGA = &r
	case nmea.VTG:
		a.snap.VTG = &r
	case nmea.MWV:
		a.snap.MWV = &r
	case nmea.DPT:
		a.snap.DPT = &r
	case nmea.HDG:
		a.snap.HDG = &r
	case nmea.MTW:
		a.snap.MTW = &r
	default:
		return false
	}
	a.snap.UpdatedAt = nowUTC.UTC()
	return true
}

func (a *Aggregator) Snapshot() Snapshot {
	if a == nil {
		return Snapshot{}
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// Position prefers RMC over GGA: RMC carries speed/course alongside position,
// so preferring it keeps position and velocity temporally consistent.
func (s Snapshot) Position() *Position {
	if s.RMC != nil && s.RMC.LatDeg != nil && s.RMC.LonDeg != nil {
		return &Position{LatDeg: *s.RMC.LatDeg, LonDeg: *s.RMC.LonDeg}
	}
	if s.GGA != nil && s.GGA.LatDeg != nil && s.GGA.LonDeg != nil {
		return &Position{LatDeg: *s.GGA.LatDeg, LonDeg: *s.GGA.LonDeg}
	}
	return nil
}

// SogKn prefers VTG over RMC.
func (s Snapshot) SogKn() *float64 {
	if s.VTG != nil && s.VTG.SpeedKn != nil {
		return s.VTG.SpeedKn
	}
	if s.RMC != nil && s.RMC.SogKn != nil {
		return s.RMC.SogKn
	}
	return nil
}

// CogDeg prefers VTG over RMC.
func (s Snapshot) CogDeg() *float64 {
	if s.VTG != nil && s.VTG.TrackTrueDeg != nil {
		return s.VTG.TrackTrueDeg
	}
	if s.RMC != nil && s.RMC.CogDeg != nil {
		return s.RMC.CogDeg
	}
	return nil
}

// HeadingDeg is HDG's magnetic heading corrected by deviation and variation,
// normalized to [0,360). Without a compass sentence, course over ground is a
// reasonable proxy for heading.
func (s Snapshot) HeadingDeg() *float64 {
	if s.HDG != nil && s.HDG.HeadingMagDeg != nil {
		h := *s.HDG.HeadingMagDeg
		if s.HDG.DeviationDeg != nil {
			h += *s.HDG.DeviationDeg
		}
		if s.HDG.VariationDeg != nil {
			h += *s.HDG.VariationDeg
		}
		h = math.Mod(h+360.0, 360.0)
		return &h
	}
	return s.CogDeg()
}

// DepthM has no fallback source.
func (s Snapshot) DepthM() *float64 {
	if s.DPT == nil {
		return nil
	}
	return s.DPT.DepthM
}

// Wind has no fallback source.
func (s Snapshot) Wind() *Wind {
	if s.MWV == nil || s.MWV.AngleDeg == nil || s.MWV.SpeedKn == nil {
		return nil
	}
	return &Wind{AngleDeg: *s.MWV.AngleDeg, SpeedKn: *s.MWV.SpeedKn, Reference: s.MWV.Reference}
}

// WaterTempC has no fallback source.
func (s Snapshot) WaterTempC() *float64 {
	if s.MTW == nil {
		return nil
	}
	return s.MTW.TempC
}

// View is the JSON shape served to external consumers; every field is the
// corresponding derived accessor evaluated at marshal time.
type View struct {
	Position     *Position `json:"position,omitempty"`
	SogKn        *float64  `json:"sog_kn,omitempty"`
	CogDeg       *float64  `json:"cog_deg,omitempty"`
	HeadingDeg   *float64  `json:"heading_deg,omitempty"`
	DepthM       *float64  `json:"depth_m,omitempty"`
	Wind         *Wind     `json:"wind,omitempty"`
	WaterTempC   *float64  `json:"water_temp_c,omitempty"`
	UpdatedAtUTC string    `json:"updated_at_utc,omitempty"`
}

func (s Snapshot) View() View {
	v := View{
		Position:   s.Position(),
		SogKn:      s.SogKn(),
		CogDeg:     s.CogDeg(),
		HeadingDeg: s.HeadingDeg(),
		DepthM:     s.DepthM(),
		Wind:       s.Wind(),
		WaterTempC: s.WaterTempC(),
	}
	if !s.UpdatedAt.IsZero() {
		v.UpdatedAtUTC = s.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return v
}
