package nmea

// Record is one parsed instrument sentence. All measurement fields are
// pointers: nil means the field was empty on the wire, which is distinct from
// a measured zero (0 kn of wind is data; a missing wind sensor is not).
type Record interface {
	// SentenceType returns the 3-letter sentence type (RMC, GGA, ...).
	SentenceType() string
}

// RMC: Recommended Minimum Specific GNSS Data.
// Position, validity flag, speed over ground (kn), course over ground (deg).
type RMC struct {
	Valid  bool
	LatDeg *float64
	LonDeg *float64
	SogKn  *float64
	CogDeg *float64
}

// GGA: GPS Fix Data. Position plus fix quality, satellite count, HDOP and
// antenna altitude (meters).
type GGA struct {
	LatDeg     *float64
	LonDeg     *float64
	FixQuality *int
	Satellites *int
	HDOP       *float64
	AltitudeM  *float64
}

// VTG: Course Over Ground and Ground Speed.
type VTG struct {
	TrackTrueDeg *float64
	TrackMagDeg  *float64
	SpeedKn      *float64
	SpeedKmh     *float64
}

// MWV: Wind Speed and Angle. Reference is "R" (relative to bow) or "T"
// (true). Speed is normalized to knots regardless of the wire unit.
type MWV struct {
	AngleDeg  *float64
	Reference string
	SpeedKn   *float64
	Valid     bool
}

// DPT: Depth of Water, in meters below the transducer, plus the transducer
// offset (positive = distance to waterline, negative = distance to keel).
type DPT struct {
	DepthM  *float64
	OffsetM *float64
}

// HDG: Heading, Deviation and Variation. Deviation/variation are signed
// (east positive).
type HDG struct {
	HeadingMagDeg *float64
	DeviationDeg  *float64
	VariationDeg  *float64
}

// MTW: Mean Temperature of Water, °C.
type MTW struct {
	TempC *float64
}

func (RMC) SentenceType() string { return "RMC" }
func (GGA) SentenceType() string { return "GGA" }
func (VTG) SentenceType() string { return "VTG" }
func (MWV) SentenceType() string { return "MWV" }
func (DPT) SentenceType() string { return "DPT" }
func (HDG) SentenceType() string { return "HDG" }
func (MTW) SentenceType() string { return "MTW" }
