package nmea

import (
	"fmt"
	"math"
	"testing"
)

func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

func TestParseSentence_ChecksumOK(t *testing.T) {
	line := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	s, err := ParseSentence(line)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.Type != "RMC" {
		t.Fatalf("expected type RMC, got %q", s.Type)
	}
}

func TestParseSentence_ChecksumMismatch(t *testing.T) {
	good := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	bad := good[:len(good)-2] + "00"
	_, err := ParseSentence(bad)
	if err == nil || err.Kind != KindChecksumFailed {
		t.Fatalf("expected checksum_failed, got %v", err)
	}
	if err.RawSentence != bad {
		t.Fatalf("expected raw sentence carried for diagnostics")
	}
}

func TestParseSentence_SingleMutatedByteDetected(t *testing.T) {
	good := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	// Flip each character inside the checksummed range; every mutation that
	// changes the payload must be caught.
	for i := 1; i < len(good)-3; i++ {
		if good[i] == ',' {
			continue
		}
		mutated := good[:i] + string(good[i]^0x01) + good[i+1:]
		if _, err := ParseSentence(mutated); err == nil {
			t.Fatalf("mutation at %d not detected: %q", i, mutated)
		}
	}
}

func TestParseSentence_RejectsNonDollar(t *testing.T) {
	_, err := ParseSentence("GPRMC,123519,A*00")
	if err == nil || err.Kind != KindInvalidFormat {
		t.Fatalf("expected invalid_format, got %v", err)
	}
}

func TestEncode_RoundTrips(t *testing.T) {
	payload := "GPDPT,12.3,0.5"
	line := Encode(payload)
	s, err := ParseSentence(line)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if s.Type != "DPT" {
		t.Fatalf("expected DPT, got %q", s.Type)
	}
}

func TestDecode_RMCReference(t *testing.T) {
	rec, err := Decode("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rmc, ok := rec.(RMC)
	if !ok {
		t.Fatalf("expected RMC, got %T", rec)
	}
	if !rmc.Valid {
		t.Fatalf("expected valid=true")
	}
	wantLat := 48.0 + 7.038/60.0
	wantLon := 11.0 + 31.000/60.0
	if rmc.LatDeg == nil || math.Abs(*rmc.LatDeg-wantLat) > 1e-6 {
		t.Fatalf("lat=%v want %v", rmc.LatDeg, wantLat)
	}
	if rmc.LonDeg == nil || math.Abs(*rmc.LonDeg-wantLon) > 1e-6 {
		t.Fatalf("lon=%v want %v", rmc.LonDeg, wantLon)
	}
	if rmc.SogKn == nil || math.Abs(*rmc.SogKn-22.4) > 1e-9 {
		t.Fatalf("sog=%v want 22.4", rmc.SogKn)
	}
	if rmc.CogDeg == nil || math.Abs(*rmc.CogDeg-84.4) > 1e-9 {
		t.Fatalf("cog=%v want 84.4", rmc.CogDeg)
	}
}

func TestDecode_RMCVoidKeepsFields(t *testing.T) {
	line := nmeaLine("GPRMC,123519,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	rec, err := Decode(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rmc := rec.(RMC)
	if rmc.Valid {
		t.Fatalf("expected valid=false for status V")
	}
	if rmc.LatDeg == nil {
		t.Fatalf("void fix should still carry parsed fields")
	}
}

func TestDecode_SouthWestNegative(t *testing.T) {
	line := nmeaLine("GPRMC,123519,A,4807.038,S,01131.000,W,0.0,0.0,230394,,")
	rec, err := Decode(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rmc := rec.(RMC)
	if rmc.LatDeg == nil || *rmc.LatDeg >= 0 {
		t.Fatalf("expected negative latitude, got %v", rmc.LatDeg)
	}
	if rmc.LonDeg == nil || *rmc.LonDeg >= 0 {
		t.Fatalf("expected negative longitude, got %v", rmc.LonDeg)
	}
	if rmc.SogKn == nil || *rmc.SogKn != 0 {
		t.Fatalf("measured zero speed must parse as 0, not nil")
	}
}

func TestDecode_EmptyFieldsAreNil(t *testing.T) {
	line := nmeaLine("GPRMC,123519,A,,,,,,,230394,,")
	rec, err := Decode(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rmc := rec.(RMC)
	if rmc.LatDeg != nil || rmc.LonDeg != nil || rmc.SogKn != nil || rmc.CogDeg != nil {
		t.Fatalf("empty fields must decode to nil, got %+v", rmc)
	}
}

func TestDecode_MalformedNumericIsParseError(t *testing.T) {
	line := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,abc,084.4,230394,,")
	_, err := Decode(line)
	if err == nil || err.Kind != KindParseError {
		t.Fatalf("expected parse_error, got %v", err)
	}
}

func TestDecode_GGA(t *testing.T) {
	line := nmeaLine("GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	rec, err := Decode(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gga := rec.(GGA)
	if gga.FixQuality == nil || *gga.FixQuality != 1 {
		t.Fatalf("fix quality = %v", gga.FixQuality)
	}
	if gga.Satellites == nil || *gga.Satellites != 8 {
		t.Fatalf("satellites = %v", gga.Satellites)
	}
	if gga.HDOP == nil || math.Abs(*gga.HDOP-0.9) > 1e-9 {
		t.Fatalf("hdop = %v", gga.HDOP)
	}
	if gga.AltitudeM == nil || math.Abs(*gga.AltitudeM-545.4) > 1e-9 {
		t.Fatalf("altitude = %v", gga.AltitudeM)
	}
}

func TestDecode_VTG(t *testing.T) {
	line := nmeaLine("GPVTG,054.7,T,034.4,M,005.5,N,010.2,K")
	rec, err := Decode(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	vtg := rec.(VTG)
	if vtg.TrackTrueDeg == nil || math.Abs(*vtg.TrackTrueDeg-54.7) > 1e-9 {
		t.Fatalf("track true = %v", vtg.TrackTrueDeg)
	}
	if vtg.SpeedKn == nil || math.Abs(*vtg.SpeedKn-5.5) > 1e-9 {
		t.Fatalf("speed kn = %v", vtg.SpeedKn)
	}
}

func TestDecode_MWVUnitConversion(t *testing.T) {
	// 10 m/s is ~19.438 kn.
	line := nmeaLine("IIMWV,045.0,R,10.0,M,A")
	rec, err := Decode(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	mwv := rec.(MWV)
	if mwv.Reference != "R" || !mwv.Valid {
		t.Fatalf("reference=%q valid=%v", mwv.Reference, mwv.Valid)
	}
	if mwv.SpeedKn == nil || math.Abs(*mwv.SpeedKn-19.4384449) > 1e-3 {
		t.Fatalf("speed kn = %v", mwv.SpeedKn)
	}
}

func TestDecode_DPTHDGMTW(t *testing.T) {
	rec, err := Decode(nmeaLine("SDDPT,12.3,0.5"))
	if err != nil {
		t.Fatalf("dpt: %v", err)
	}
	if d := rec.(DPT); d.DepthM == nil || *d.DepthM != 12.3 {
		t.Fatalf("depth = %v", d.DepthM)
	}

	rec, err = Decode(nmeaLine("HCHDG,271.1,2.0,E,3.5,W"))
	if err != nil {
		t.Fatalf("hdg: %v", err)
	}
	h := rec.(HDG)
	if h.HeadingMagDeg == nil || *h.HeadingMagDeg != 271.1 {
		t.Fatalf("heading = %v", h.HeadingMagDeg)
	}
	if h.DeviationDeg == nil || *h.DeviationDeg != 2.0 {
		t.Fatalf("deviation = %v", h.DeviationDeg)
	}
	if h.VariationDeg == nil || *h.VariationDeg != -3.5 {
		t.Fatalf("west variation must be negative, got %v", h.VariationDeg)
	}

	rec, err = Decode(nmeaLine("YXMTW,17.5,C"))
	if err != nil {
		t.Fatalf("mtw: %v", err)
	}
	if m := rec.(MTW); m.TempC == nil || *m.TempC != 17.5 {
		t.Fatalf("temp = %v", m.TempC)
	}
}

func TestDecode_UnknownSentence(t *testing.T) {
	line := nmeaLine("GPGSV,3,1,11,03,03,111,00")
	_, err := Decode(line)
	if err == nil || err.Kind != KindUnknownSentence {
		t.Fatalf("expected unknown_sentence, got %v", err)
	}
}

func TestIsAIVDM(t *testing.T) {
	if !IsAIVDM("!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24") {
		t.Fatalf("expected AIVDM detection")
	}
	if IsAIVDM("$GPRMC,123519,V*00") {
		t.Fatalf("instrument sentence flagged as AIVDM")
	}
}
