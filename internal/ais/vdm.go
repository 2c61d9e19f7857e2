package ais

import (
	"sync"
	"time"

	goais "github.com/BertoldVdb/go-ais"
	"github.com/BertoldVdb/go-ais/aisnmea"
	"github.com/goccy/go-json"
)

// Bridge feeds raw !AIVDM/!AIVDO sentences — marine NMEA multiplexers
// interleave them with instrument sentences on the same socket — through the
// same library the upstream JSON relay runs, then re-frames the decoded
// packet as a standard envelope so DecodeEnvelope stays the single path into
// the target store.
type Bridge struct {
	mu    sync.Mutex
	codec *aisnmea.NMEACodec
}

func NewBridge() *Bridge {
	return &Bridge{codec: aisnmea.NMEACodecNew(goais.CodecNew(false, false))}
}

// messageTypeForID maps the AIS message ID to the envelope type name.
func messageTypeForID(id uint8) string {
	switch id {
	case 1, 2, 3:
		return msgPositionReport
	case 18, 19:
		return msgClassBReport
	case 5:
		return msgShipStaticData
	default:
		return ""
	}
}

// DecodeSentence decodes one AIVDM line into a target update. ok=false for
// multipart fragments still being assembled, decode failures, and message
// types outside the supported set — all silent, like envelope rejections.
func (b *Bridge) DecodeSentence(line string, nowUTC time.Time) (Target, bool) {
	if b == nil {
		return Target{}, false
	}

	b.mu.Lock()
	decoded, err := b.codec.ParseSentence(line)
	b.mu.Unlock()
	if err != nil || decoded == nil || decoded.Packet == nil {
		return Target{}, false
	}

	hdr := decoded.Packet.GetHeader()
	msgType := messageTypeForID(hdr.MessageID)
	if msgType == "" || hdr.UserID == 0 {
		return Target{}, false
	}

	body, err := json.Marshal(decoded.Packet)
	if err != nil {
		return Target{}, false
	}
	env := Envelope{
		MessageType: msgType,
		MetaData:    &MetaData{MMSI: int(hdr.UserID)},
		Message:     map[string]json.RawMessage{msgType: body},
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return Target{}, false
	}
	return DecodeEnvelope(raw, nowUTC)
}
