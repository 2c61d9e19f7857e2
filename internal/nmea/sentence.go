package nmea

import (
	"encoding/hex"
	"strings"
)

// Sentence is one checksum-verified NMEA 0183 frame, split into fields.
type Sentence struct {
	// Type is the sentence type normalized to the last 3 characters of the
	// talker+type field (RMC, GGA, ...), uppercased.
	Type string
	// Fields is the comma-split payload including the talker+type field.
	Fields []string
}

// Checksum computes the NMEA XOR checksum over payload (the characters
// between the leading $/! and the *).
func Checksum(payload string) byte {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return ck
}

// ParseSentence validates framing and checksum of a single newline-stripped
// line. The checksum check is unconditional; there is no trusted mode.
func ParseSentence(line string) (Sentence, *Error) {
	line = strings.TrimSpace(line)
	if line == "" || (line[0] != '$' && line[0] != '!') {
		return Sentence{}, newError(KindInvalidFormat, "missing '$' or '!'", line)
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return Sentence{}, newError(KindInvalidFormat, "missing checksum", line)
	}
	payload := line[1:star]
	ck := strings.TrimSpace(line[star+1:])
	if len(ck) < 2 {
		return Sentence{}, newError(KindInvalidFormat, "short checksum", line)
	}
	want, err := hex.DecodeString(ck[:2])
	if err != nil || len(want) != 1 {
		return Sentence{}, newError(KindInvalidFormat, "bad checksum digits", line)
	}
	if Checksum(payload) != want[0] {
		return Sentence{}, newError(KindChecksumFailed, "checksum mismatch", line)
	}

	parts := strings.Split(payload, ",")
	typeField := parts[0]
	if len(typeField) < 3 {
		return Sentence{}, newError(KindInvalidFormat, "short type field", line)
	}
	// Accept any talker ID (GP, GN, II, ...); dispatch on the last 3 chars.
	t := typeField
	if len(t) > 3 {
		t = t[len(t)-3:]
	}
	return Sentence{Type: strings.ToUpper(t), Fields: parts}, nil
}

// Encode frames payload as a checksummed sentence. Used by tests and tools.
func Encode(payload string) string {
	const hexdigits = "0123456789ABCDEF"
	ck := Checksum(payload)
	return "$" + payload + "*" + string(hexdigits[ck>>4]) + string(hexdigits[ck&0x0F])
}

// IsAIVDM reports whether line is an encapsulated AIS VDM/VDO sentence, which
// is routed to the AIS decoder instead of the instrument parsers.
func IsAIVDM(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 7 || line[0] != '!' {
		return false
	}
	t := line[1:6]
	return strings.HasSuffix(t, "VDM") || strings.HasSuffix(t, "VDO")
}
