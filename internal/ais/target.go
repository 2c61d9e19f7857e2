package ais

import "time"

// NavStatus is the AIS navigational status code. 15 is the "not defined"
// sentinel transmitted by most Class B gear.
type NavStatus int

const (
	NavStatusUnderwayEngine      NavStatus = 0
	NavStatusAtAnchor            NavStatus = 1
	NavStatusNotUnderCommand     NavStatus = 2
	NavStatusRestrictedManoeuvre NavStatus = 3
	NavStatusConstrainedDraught  NavStatus = 4
	NavStatusMoored              NavStatus = 5
	NavStatusAground             NavStatus = 6
	NavStatusFishing             NavStatus = 7
	NavStatusUnderwaySailing     NavStatus = 8
	NavStatusAisSart             NavStatus = 14
	NavStatusUnknown             NavStatus = 15
)

func (s NavStatus) String() string {
	switch s {
	case NavStatusUnderwayEngine:
		return "underway using engine"
	case NavStatusAtAnchor:
		return "at anchor"
	case NavStatusNotUnderCommand:
		return "not under command"
	case NavStatusRestrictedManoeuvre:
		return "restricted manoeuvrability"
	case NavStatusConstrainedDraught:
		return "constrained by draught"
	case NavStatusMoored:
		return "moored"
	case NavStatusAground:
		return "aground"
	case NavStatusFishing:
		return "engaged in fishing"
	case NavStatusUnderwaySailing:
		return "underway sailing"
	case NavStatusAisSart:
		return "AIS-SART"
	default:
		return "unknown"
	}
}

// ShipCategory is derived from the two-digit AIS ship type by fixed numeric
// ranges.
type ShipCategory string

const (
	CategoryUnknown      ShipCategory = "unknown"
	CategoryWingInGround ShipCategory = "wing in ground"
	CategoryFishing      ShipCategory = "fishing"
	CategoryTowing       ShipCategory = "towing"
	CategoryDredging     ShipCategory = "dredging"
	CategoryDiving       ShipCategory = "diving ops"
	CategoryMilitary     ShipCategory = "military"
	CategorySailing      ShipCategory = "sailing"
	CategoryPleasure     ShipCategory = "pleasure craft"
	CategoryHighSpeed    ShipCategory = "high speed craft"
	CategorySpecial      ShipCategory = "special craft"
	CategoryPassenger    ShipCategory = "passenger"
	CategoryCargo        ShipCategory = "cargo"
	CategoryTanker       ShipCategory = "tanker"
	CategoryOther        ShipCategory = "other"
)

func CategoryForShipType(t int) ShipCategory {
	switch {
	case t >= 20 && t <= 29:
		return CategoryWingInGround
	case t == 30:
		return CategoryFishing
	case t == 31 || t == 32:
		return CategoryTowing
	case t == 33:
		return CategoryDredging
	case t == 34:
		return CategoryDiving
	case t == 35:
		return CategoryMilitary
	case t == 36:
		return CategorySailing
	case t == 37:
		return CategoryPleasure
	case t >= 38 && t <= 39:
		return CategoryOther
	case t >= 40 && t <= 49:
		return CategoryHighSpeed
	case t >= 50 && t <= 59:
		return CategorySpecial
	case t >= 60 && t <= 69:
		return CategoryPassenger
	case t >= 70 && t <= 79:
		return CategoryCargo
	case t >= 80 && t <= 89:
		return CategoryTanker
	case t >= 90 && t <= 99:
		return CategoryOther
	default:
		return CategoryUnknown
	}
}

// Dimensions are the four antenna-reference offsets from a static report.
type Dimensions struct {
	BowM       int `json:"bow_m"`
	SternM     int `json:"stern_m"`
	PortM      int `json:"port_m"`
	StarboardM int `json:"starboard_m"`
}

func (d Dimensions) LengthM() int { return d.BowM + d.SternM }

func (d Dimensions) BeamM() int { return d.PortM + d.StarboardM }

func (d Dimensions) isZero() bool {
	return d.BowM == 0 && d.SternM == 0 && d.PortM == 0 && d.StarboardM == 0
}

// staleAfter is how long a target may go without an update before it is
// presented as stale. Stale targets stay in the store; only capacity pressure
// removes them.
const staleAfter = 5 * time.Minute

// Target is one tracked vessel. Identity is the MMSI alone: two targets with
// equal MMSI are the same vessel regardless of any other field. Values are
// never mutated in place; Merge returns a new Target.
type Target struct {
	MMSI int `json:"mmsi"`

	LatDeg      *float64   `json:"lat_deg,omitempty"`
	LonDeg      *float64   `json:"lon_deg,omitempty"`
	SogKn       *float64   `json:"sog_kn,omitempty"`
	CogDeg      *float64   `json:"cog_deg,omitempty"`
	HeadingDeg  *float64   `json:"heading_deg,omitempty"`
	NavStatus   NavStatus  `json:"nav_status"`
	RateOfTurn  *float64   `json:"rate_of_turn_deg_min,omitempty"`
	Name        string     `json:"name,omitempty"`
	CallSign    string     `json:"call_sign,omitempty"`
	IMO         int        `json:"imo,omitempty"`
	ShipType    int        `json:"ship_type,omitempty"`
	Dimensions  Dimensions `json:"dimensions"`
	Destination string     `json:"destination,omitempty"`
	Draught     *float64   `json:"draught_m,omitempty"`
	ETA         *time.Time `json:"eta,omitempty"`

	LastUpdate time.Time `json:"last_update"`

	CpaNm   *float64 `json:"cpa_nm,omitempty"`
	TcpaMin *float64 `json:"tcpa_min,omitempty"`
}

// Equal is MMSI-only identity.
func (t Target) Equal(other Target) bool { return t.MMSI == other.MMSI }

// Stale reports whether the target is older than the presentation cutoff.
// Strictly greater-than: a target at exactly 5 minutes is not yet stale.
func (t Target) Stale(nowUTC time.Time) bool {
	return nowUTC.Sub(t.LastUpdate) > staleAfter
}

func (t Target) Category() ShipCategory { return CategoryForShipType(t.ShipType) }

// Merge folds update into t and returns the result. Position reports and
// static/voyage reports arrive on independent schedules and each carries only
// part of the picture, so every present (non-nil, non-default) field on
// update wins and absent fields keep the prior value.
func (t Target) Merge(update Target) Target {
	out := t

	if update.LatDeg != nil {
		out.LatDeg = update.LatDeg
	}
	if update.LonDeg != nil {
		out.LonDeg = update.LonDeg
	}
	if update.SogKn != nil {
		out.SogKn = update.SogKn
	}
	if update.CogDeg != nil {
		out.CogDeg = update.CogDeg
	}
	if update.HeadingDeg != nil {
		out.HeadingDeg = update.HeadingDeg
	}
	if update.NavStatus != NavStatusUnknown {
		out.NavStatus = update.NavStatus
	}
	if update.RateOfTurn != nil {
		out.RateOfTurn = update.RateOfTurn
	}
	if update.Name != "" {
		out.Name = update.Name
	}
	if update.CallSign != "" {
		out.CallSign = update.CallSign
	}
	if update.IMO != 0 {
		out.IMO = update.IMO
	}
	if update.ShipType != 0 {
		out.ShipType = update.ShipType
	}
	if !update.Dimensions.isZero() {
		out.Dimensions = update.Dimensions
	}
	if update.Destination != "" {
		out.Destination = update.Destination
	}
	if update.Draught != nil {
		out.Draught = update.Draught
	}
	if update.ETA != nil {
		out.ETA = update.ETA
	}
	if update.LastUpdate.After(out.LastUpdate) {
		out.LastUpdate = update.LastUpdate
	}
	return out
}
