package nmea

import (
	"strconv"
	"strings"
)

// Decode parses one newline-stripped line into a typed record. A nil Record
// with a non-nil *Error means the line was dropped; callers keep reading.
func Decode(line string) (Record, *Error) {
	sent, err := ParseSentence(line)
	if err != nil {
		return nil, err
	}
	switch sent.Type {
	case "RMC":
		return parseRMC(sent, line)
	case "GGA":
		return parseGGA(sent, line)
	case "VTG":
		return parseVTG(sent, line)
	case "MWV":
		return parseMWV(sent, line)
	case "DPT":
		return parseDPT(sent, line)
	case "HDG":
		return parseHDG(sent, line)
	case "MTW":
		return parseMTW(sent, line)
	default:
		return nil, newError(KindUnknownSentence, "unsupported sentence type "+sent.Type, line)
	}
}

// RMC fields (NMEA 0183 v2.3):
//
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3: latitude (ddmm.mmmm)   4: N/S
//	5: longitude (dddmm.mmmm) 6: E/W
//	7: speed over ground (kn)
//	8: course over ground (deg true)
func parseRMC(s Sentence, raw string) (Record, *Error) {
	if len(s.Fields) < 9 {
		return nil, newError(KindMissingField, "rmc: too few fields", raw)
	}
	f := s.Fields
	rec := RMC{Valid: strings.TrimSpace(f[2]) == "A"}

	var perr *Error
	rec.LatDeg, perr = optLatLon(f[3], f[4], raw)
	if perr != nil {
		return nil, perr
	}
	rec.LonDeg, perr = optLatLon(f[5], f[6], raw)
	if perr != nil {
		return nil, perr
	}
	if rec.SogKn, perr = optFloat(f[7], raw); perr != nil {
		return nil, perr
	}
	if rec.CogDeg, perr = optFloat(f[8], raw); perr != nil {
		return nil, perr
	}
	return rec, nil
}

// GGA fields:
//
//	2: latitude 3: N/S, 4: longitude 5: E/W
//	6: fix quality (0=no fix)
//	7: satellites in use, 8: HDOP, 9: altitude (m)
func parseGGA(s Sentence, raw string) (Record, *Error) {
	if len(s.Fields) < 10 {
		return nil, newError(KindMissingField, "gga: too few fields", raw)
	}
	f := s.Fields
	var rec GGA
	var perr *Error
	if rec.LatDeg, perr = optLatLon(f[2], f[3], raw); perr != nil {
		return nil, perr
	}
	if rec.LonDeg, perr = optLatLon(f[4], f[5], raw); perr != nil {
		return nil, perr
	}
	if rec.FixQuality, perr = optInt(f[6], raw); perr != nil {
		return nil, perr
	}
	if rec.Satellites, perr = optInt(f[7], raw); perr != nil {
		return nil, perr
	}
	if rec.HDOP, perr = optFloat(f[8], raw); perr != nil {
		return nil, perr
	}
	if rec.AltitudeM, perr = optFloat(f[9], raw); perr != nil {
		return nil, perr
	}
	return rec, nil
}

func parseVTG(s Sentence, raw string) (Record, *Error) {
	if len(s.Fields) < 8 {
		return nil, newError(KindMissingField, "vtg: too few fields", raw)
	}
	f := s.Fields
	var rec VTG
	var perr *Error
	if rec.TrackTrueDeg, perr = optFloat(f[1], raw); perr != nil {
		return nil, perr
	}
	if rec.TrackMagDeg, perr = optFloat(f[3], raw); perr != nil {
		return nil, perr
	}
	if rec.SpeedKn, perr = optFloat(f[5], raw); perr != nil {
		return nil, perr
	}
	if rec.SpeedKmh, perr = optFloat(f[7], raw); perr != nil {
		return nil, perr
	}
	return rec, nil
}

// MWV fields: 1: wind angle 0-359.9, 2: reference R/T, 3: speed,
// 4: speed units (N=kn, K=km/h, M=m/s), 5: status A/V.
func parseMWV(s Sentence, raw string) (Record, *Error) {
	if len(s.Fields) < 6 {
		return nil, newError(KindMissingField, "mwv: too few fields", raw)
	}
	f := s.Fields
	rec := MWV{
		Reference: strings.ToUpper(strings.TrimSpace(f[2])),
		Valid:     strings.TrimSpace(f[5]) == "A",
	}
	var perr *Error
	if rec.AngleDeg, perr = optFloat(f[1], raw); perr != nil {
		return nil, perr
	}
	speed, perr := optFloat(f[3], raw)
	if perr != nil {
		return nil, perr
	}
	if speed != nil {
		kn := *speed
		switch strings.ToUpper(strings.TrimSpace(f[4])) {
		case "K":
			kn = kn / 1.852
		case "M":
			kn = kn * 3600.0 / 1852.0
		}
		rec.SpeedKn = &kn
	}
	return rec, nil
}

func parseDPT(s Sentence, raw string) (Record, *Error) {
	if len(s.Fields) < 3 {
		return nil, newError(KindMissingField, "dpt: too few fields", raw)
	}
	f := s.Fields
	var rec DPT
	var perr *Error
	if rec.DepthM, perr = optFloat(f[1], raw); perr != nil {
		return nil, perr
	}
	if rec.OffsetM, perr = optFloat(f[2], raw); perr != nil {
		return nil, perr
	}
	return rec, nil
}

// HDG fields: 1: magnetic heading, 2/3: deviation + E/W, 4/5: variation + E/W.
func parseHDG(s Sentence, raw string) (Record, *Error) {
	if len(s.Fields) < 6 {
		return nil, newError(KindMissingField, "hdg: too few fields", raw)
	}
	f := s.Fields
	var rec HDG
	var perr *Error
	if rec.HeadingMagDeg, perr = optFloat(f[1], raw); perr != nil {
		return nil, perr
	}
	if rec.DeviationDeg, perr = optSigned(f[2], f[3], raw); perr != nil {
		return nil, perr
	}
	if rec.VariationDeg, perr = optSigned(f[4], f[5], raw); perr != nil {
		return nil, perr
	}
	return rec, nil
}

func parseMTW(s Sentence, raw string) (Record, *Error) {
	if len(s.Fields) < 2 {
		return nil, newError(KindMissingField, "mtw: too few fields", raw)
	}
	var rec MTW
	var perr *Error
	if rec.TempC, perr = optFloat(s.Fields[1], raw); perr != nil {
		return nil, perr
	}
	return rec, nil
}

// optFloat maps an empty field to nil and a malformed one to a parse error.
func optFloat(s string, raw string) (*float64, *Error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, newError(KindParseError, "bad numeric field "+strconv.Quote(s), raw)
	}
	return &v, nil
}

func optInt(s string, raw string) (*int, *Error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, newError(KindParseError, "bad integer field "+strconv.Quote(s), raw)
	}
	return &v, nil
}

// optSigned parses a magnitude plus an E/W hemisphere letter into a signed
// degree value (west negative).
func optSigned(v string, hemi string, raw string) (*float64, *Error) {
	f, perr := optFloat(v, raw)
	if perr != nil || f == nil {
		return f, perr
	}
	switch strings.ToUpper(strings.TrimSpace(hemi)) {
	case "W":
		neg := -*f
		return &neg, nil
	case "E", "":
		return f, nil
	default:
		return nil, newError(KindParseError, "bad hemisphere "+strconv.Quote(hemi), raw)
	}
}

// optLatLon parses NMEA ddmm.mmmm / dddmm.mmmm plus hemisphere into signed
// decimal degrees (S/W negative). Both fields empty means the receiver has no
// fix; that is nil, not an error.
func optLatLon(v string, hemi string, raw string) (*float64, *Error) {
	v = strings.TrimSpace(v)
	hemi = strings.ToUpper(strings.TrimSpace(hemi))
	if v == "" && hemi == "" {
		return nil, nil
	}
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return nil, newError(KindParseError, "bad lat/lon pair", raw)
	}

	// The last two digits of the integer part are whole minutes.
	dot := strings.IndexByte(v, '.')
	intPart := v
	if dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return nil, newError(KindParseError, "short lat/lon field", raw)
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return nil, newError(KindParseError, "bad lat/lon degrees", raw)
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil {
		return nil, newError(KindParseError, "bad lat/lon minutes", raw)
	}

	dec := float64(deg) + mins/60.0
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return &dec, nil
}
