package nmea

import "time"

// ErrorKind classifies parse and connection failures so consumers can tell a
// corrupt line from a dead socket.
type ErrorKind string

const (
	KindChecksumFailed  ErrorKind = "checksum_failed"
	KindInvalidFormat   ErrorKind = "invalid_format"
	KindUnknownSentence ErrorKind = "unknown_sentence"
	KindMissingField    ErrorKind = "missing_field"
	KindParseError      ErrorKind = "parse_error"
	KindConnectionError ErrorKind = "connection_error"
	KindTimeout         ErrorKind = "timeout"
	KindBufferOverflow  ErrorKind = "buffer_overflow"
)

// Error is surfaced as data (last-error in snapshots), never thrown across the
// socket boundary. RawSentence is kept for checksum/format failures so bad
// lines can be diagnosed from status output.
type Error struct {
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"message"`
	RawSentence string    `json:"raw_sentence,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Kind) + ": " + e.Message
}

func newError(kind ErrorKind, msg string, raw string) *Error {
	return &Error{Kind: kind, Message: msg, RawSentence: raw, Timestamp: time.Now().UTC()}
}
