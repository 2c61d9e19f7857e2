package ais

import (
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DecodeEnvelope translates one JSON envelope into a partial target update.
// ok=false means the message is rejected: zero MMSI, missing envelope parts,
// or an unsupported message type. Rejections are silent — a heterogeneous
// live feed routinely carries message types outside the supported set.
func DecodeEnvelope(raw []byte, nowUTC time.Time) (Target, bool) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Target{}, false
	}
	if env.MessageType == "" || env.MetaData == nil || env.MetaData.MMSI == 0 {
		return Target{}, false
	}
	body, ok := env.Message[env.MessageType]
	if !ok {
		return Target{}, false
	}

	update := Target{
		MMSI:       env.MetaData.MMSI,
		NavStatus:  NavStatusUnknown,
		Name:       cleanText(env.MetaData.ShipName),
		LastUpdate: parseTimeUTC(env.MetaData.TimeUTC, nowUTC),
	}

	switch env.MessageType {
	case msgPositionReport:
		var msg positionReport
		if err := json.Unmarshal(body, &msg); err != nil {
			return Target{}, false
		}
		applyPosition(&update, msg.Latitude, msg.Longitude, msg.Sog, msg.Cog, msg.TrueHeading)
		if msg.NavigationalStatus >= 0 && msg.NavigationalStatus <= 15 {
			update.NavStatus = NavStatus(msg.NavigationalStatus)
		}
		if rot := rateOfTurnDegMin(msg.RateOfTurn); rot != nil {
			update.RateOfTurn = rot
		}

	case msgClassBReport:
		var msg classBReport
		if err := json.Unmarshal(body, &msg); err != nil {
			return Target{}, false
		}
		applyPosition(&update, msg.Latitude, msg.Longitude, msg.Sog, msg.Cog, msg.TrueHeading)

	case msgShipStaticData:
		var msg shipStaticData
		if err := json.Unmarshal(body, &msg); err != nil {
			return Target{}, false
		}
		if n := cleanText(msg.Name); n != "" {
			update.Name = n
		}
		update.CallSign = cleanText(msg.CallSign)
		update.Destination = cleanText(msg.Destination)
		update.IMO = msg.ImoNumber
		update.ShipType = msg.Type
		update.Dimensions = Dimensions{
			BowM:       msg.Dimension.A,
			SternM:     msg.Dimension.B,
			PortM:      msg.Dimension.C,
			StarboardM: msg.Dimension.D,
		}
		if msg.MaximumStaticDraught > 0 {
			d := msg.MaximumStaticDraught
			update.Draught = &d
		}
		if eta := etaTime(msg.Eta.Month, msg.Eta.Day, msg.Eta.Hour, msg.Eta.Minute, nowUTC); eta != nil {
			update.ETA = eta
		}

	default:
		return Target{}, false
	}

	return update, true
}

// applyPosition copies kinematics into the update, mapping the AIS
// not-available sentinels (lat 91, lon 181, SOG 102.3, COG 360, heading 511)
// to absent rather than to a fake measurement.
func applyPosition(update *Target, lat, lon, sog, cog float64, heading int) {
	if math.Abs(lat) <= 90 && math.Abs(lon) <= 180 && !(lat == 0 && lon == 0) {
		update.LatDeg = &lat
		update.LonDeg = &lon
	}
	if sog >= 0 && sog < 102.3 {
		update.SogKn = &sog
	}
	if cog >= 0 && cog < 360 {
		update.CogDeg = &cog
	}
	if heading >= 0 && heading < 360 {
		h := float64(heading)
		update.HeadingDeg = &h
	}
}

// rateOfTurnDegMin converts the raw AIS ROT field (-127..127, -128 = not
// available) to degrees per minute using the standard (rot/4.733)² curve.
func rateOfTurnDegMin(raw int) *float64 {
	if raw == -128 || raw < -127 || raw > 127 {
		return nil
	}
	v := float64(raw) / 4.733
	degMin := v * v
	if raw < 0 {
		degMin = -degMin
	}
	return &degMin
}

// etaTime builds an ETA in the current year from the month/day/hour/minute
// quadruple. Month 0 means not reported.
func etaTime(month, day, hour, minute int, nowUTC time.Time) *time.Time {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		// 24:60 is the "not available" encoding for the time part; keep the
		// date with midnight.
		hour, minute = 0, 0
	}
	eta := time.Date(nowUTC.Year(), time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return &eta
}

// parseTimeUTC accepts RFC3339 or the relay's Go-stringified format, falling
// back to decode time when absent or unparsable.
func parseTimeUTC(s string, nowUTC time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nowUTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02 15:04:05.999999999 -0700 MST", s); err == nil {
		return t.UTC()
	}
	return nowUTC
}

// cleanText trims whitespace and the '@' padding AIS uses for unused
// character slots.
func cleanText(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "@"))
}
