package id3v2

import "fmt"

func init() {
	registerFrameFactory([]FrameType{"ETCO"}, decodeEventTimingFrame)
	registerFrameFactory([]FrameType{"MLLT"}, decodeMLLTFrame)
	registerFrameFactory([]FrameType{"SYTC"}, decodeSYTCFrame)
	registerFrameFactory([]FrameType{"SYLT"}, decodeSYLTFrame)
}

// TimestampFormat is the single-byte enumeration shared by ETCO, MLLT,
// SYTC and SYLT to say whether their event timestamps are in milliseconds
// or MPEG frame counts.
type TimestampFormat byte

const (
	TimestampMPEGFrames TimestampFormat = 1
	TimestampMS         TimestampFormat = 2
)

// EventTimingFrame is ETCO: a timestamp format byte followed
// by a sequence of (event type byte, 4-byte big-endian timestamp) pairs.
type EventTimingFrame struct {
	FrameHeader
	Format TimestampFormat
	Events []TimingEvent
}

// TimingEvent is one entry in an EventTimingFrame.
type TimingEvent struct {
	Type      byte
	Timestamp uint32
}

func (f *EventTimingFrame) Header() FrameHeader                       { return f.FrameHeader }
func (f *EventTimingFrame) supportsContentVersion(v Version) error    { return nil }

func (f *EventTimingFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	out := []byte{byte(f.Format)}
	for _, e := range f.Events {
		ts, err := beBytes(uint64(e.Timestamp), 4)
		if err != nil {
			return nil, err
		}
		out = append(out, e.Type)
		out = append(out, ts...)
	}
	return out, nil
}

func decodeEventTimingFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 1 {
		return nil, ErrMalformed{Reason: "ETCO body is empty"}
	}
	rest := body[1:]
	if len(rest)%5 != 0 {
		return nil, ErrMalformed{Reason: "ETCO event list is not a whole number of 5-byte entries"}
	}
	var events []TimingEvent
	for len(rest) > 0 {
		events = append(events, TimingEvent{Type: rest[0], Timestamp: uint32(beUint(rest[1:5]))})
		rest = rest[5:]
	}
	return &EventTimingFrame{FrameHeader: h, Format: TimestampFormat(body[0]), Events: events}, nil
}

// MLLTFrame is MLLT: a fixed 10-byte preamble (2-byte frames-between,
// 3-byte bytes-between and 3-byte milliseconds-between reference fields,
// then one byte each for the bit width of the bytes deviation and of the
// ms deviation) followed by a bit-packed stream of (bytes deviation, ms
// deviation) pairs at those widths.
type MLLTFrame struct {
	FrameHeader
	FramesBetweenReference uint16
	BytesBetweenReference  uint32 // stored in 3 bytes on the wire
	MSBetweenReference     uint32 // stored in 3 bytes on the wire
	BitsForBytesDeviation  byte
	BitsForMSDeviation     byte
	Deviations             []MLLTDeviation
}

// MLLTDeviation is one bit-packed entry in an MLLTFrame's deviation stream.
type MLLTDeviation struct {
	BytesDeviation uint32
	MSDeviation    uint32
}

func (f *MLLTFrame) Header() FrameHeader { return f.FrameHeader }

func (f *MLLTFrame) supportsContentVersion(v Version) error { return nil }

func (f *MLLTFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	if f.BitsForBytesDeviation > 255 || f.BitsForMSDeviation > 255 {
		return nil, ErrOutOfRange{Field: "MLLT deviation bit width", Reason: "must not exceed 255 bits"}
	}
	out := make([]byte, 0, 10)
	framesBetween, err := beBytes(uint64(f.FramesBetweenReference), 2)
	if err != nil {
		return nil, err
	}
	bytesBetween, err := beBytes(uint64(f.BytesBetweenReference), 3)
	if err != nil {
		return nil, err
	}
	msBetween, err := beBytes(uint64(f.MSBetweenReference), 3)
	if err != nil {
		return nil, err
	}
	out = append(out, framesBetween...)
	out = append(out, bytesBetween...)
	out = append(out, msBetween...)
	out = append(out, f.BitsForBytesDeviation, f.BitsForMSDeviation)

	w := newBitWriter()
	for _, d := range f.Deviations {
		w.writeBits(uint64(d.BytesDeviation), int(f.BitsForBytesDeviation))
		w.writeBits(uint64(d.MSDeviation), int(f.BitsForMSDeviation))
	}
	out = append(out, w.bytes()...)
	return out, nil
}

func decodeMLLTFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 10 {
		return nil, ErrMalformed{Reason: "MLLT body shorter than its fixed preamble"}
	}
	f := &MLLTFrame{
		FrameHeader:            h,
		FramesBetweenReference: uint16(beUint(body[0:2])),
		BytesBetweenReference:  uint32(beUint(body[2:5])),
		MSBetweenReference:     uint32(beUint(body[5:8])),
		BitsForBytesDeviation:  body[8],
		BitsForMSDeviation:     body[9],
	}
	entryBits := int(f.BitsForBytesDeviation) + int(f.BitsForMSDeviation)
	if entryBits == 0 {
		return f, nil
	}
	r := newBitReader(body[10:])
	for r.remainingBits() >= entryBits {
		bytesDev := r.readBits(int(f.BitsForBytesDeviation))
		msDev := r.readBits(int(f.BitsForMSDeviation))
		f.Deviations = append(f.Deviations, MLLTDeviation{BytesDeviation: uint32(bytesDev), MSDeviation: uint32(msDev)})
	}
	return f, nil
}

// SYTCFrame is SYTC: a timestamp format byte followed by a
// sequence of entries, each a 4-byte big-endian timestamp followed by a
// variable-width tempo descriptor (one or two bytes: a tempo in 0..254
// encodes as a single byte; a tempo in 255..510 encodes as 0xFF followed
// by tempo-255 in a second byte; 0 means "beat, tempo unchanged" and 1
// means "stroke").
type SYTCFrame struct {
	FrameHeader
	Format TimestampFormat
	Tempos []TempoChange
}

// TempoChange is one entry in a SYTCFrame.
type TempoChange struct {
	Timestamp uint32
	Tempo     uint16 // 0 = beat, 1 = stroke, else BPM
}

func (f *SYTCFrame) Header() FrameHeader { return f.FrameHeader }

func (f *SYTCFrame) supportsContentVersion(v Version) error { return nil }

func (f *SYTCFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	out := []byte{byte(f.Format)}
	for _, t := range f.Tempos {
		ts, err := beBytes(uint64(t.Timestamp), 4)
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
		switch {
		case t.Tempo <= 1:
			out = append(out, byte(t.Tempo))
		case t.Tempo < 255:
			out = append(out, byte(t.Tempo))
		case t.Tempo <= 510:
			out = append(out, 0xFF, byte(t.Tempo-255))
		default:
			return nil, ErrOutOfRange{Field: "SYTC tempo", Reason: fmt.Sprintf("%d exceeds the maximum representable tempo", t.Tempo)}
		}
	}
	return out, nil
}

func decodeSYTCFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 1 {
		return nil, ErrMalformed{Reason: "SYTC body is empty"}
	}
	rest := body[1:]
	var tempos []TempoChange
	for len(rest) > 0 {
		if len(rest) < 5 {
			return nil, ErrMalformed{Reason: "SYTC tempo entry is truncated"}
		}
		ts := uint32(beUint(rest[0:4]))
		tempoByte := rest[4]
		rest = rest[5:]
		var tempo uint16
		if tempoByte == 255 {
			if len(rest) < 1 {
				return nil, ErrMalformed{Reason: "SYTC two-byte tempo is truncated"}
			}
			tempo = uint16(rest[0]) + 255
			rest = rest[1:]
		} else {
			tempo = uint16(tempoByte)
		}
		tempos = append(tempos, TempoChange{Timestamp: ts, Tempo: tempo})
	}
	return &SYTCFrame{FrameHeader: h, Format: TimestampFormat(body[0]), Tempos: tempos}, nil
}

// SYLTFrame is SYLT: encoding byte, 3-byte language code,
// timestamp format byte, content type byte, terminated content descriptor,
// then a sequence of (terminated syllable/word text, 4-byte timestamp)
// pairs running to the end of the body.
type SYLTFrame struct {
	FrameHeader
	Encoding    Encoding
	Language    [3]byte
	Format      TimestampFormat
	ContentType byte
	Descriptor  string
	Syllables   []SyncedText
}

// SyncedText is one lyric/text unit in a SYLTFrame.
type SyncedText struct {
	Text      string
	Timestamp uint32
}

func (f *SYLTFrame) Header() FrameHeader { return f.FrameHeader }

func (f *SYLTFrame) supportsContentVersion(v Version) error { return nil }

func (f *SYLTFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	enc := resolveEncoding(f.ID, f.Encoding, opts, v)
	desc, err := encodeText(f.Descriptor, enc)
	if err != nil {
		return nil, err
	}
	out := []byte{byte(enc)}
	out = append(out, f.Language[:]...)
	out = append(out, byte(f.Format), f.ContentType)
	out = append(out, desc...)
	out = append(out, enc.terminator()...)
	for _, s := range f.Syllables {
		text, err := encodeText(s.Text, enc)
		if err != nil {
			return nil, err
		}
		ts, err := beBytes(uint64(s.Timestamp), 4)
		if err != nil {
			return nil, err
		}
		out = append(out, text...)
		out = append(out, enc.terminator()...)
		out = append(out, ts...)
	}
	return out, nil
}

func decodeSYLTFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 6 {
		return nil, ErrMalformed{Reason: "SYLT body shorter than its fixed preamble"}
	}
	enc := Encoding(body[0])
	var lang [3]byte
	copy(lang[:], body[1:4])
	format := TimestampFormat(body[4])
	contentType := body[5]
	descBytes, rest, ok := splitTerminated(body[6:], enc)
	if !ok {
		return nil, ErrMalformed{Reason: "SYLT descriptor is not terminated"}
	}
	descriptor, err := decodeText(descBytes, enc)
	if err != nil {
		return nil, err
	}
	var syllables []SyncedText
	for len(rest) > 0 {
		textBytes, after, ok := splitTerminated(rest, enc)
		if !ok {
			return nil, ErrMalformed{Reason: "SYLT syllable text is not terminated"}
		}
		if len(after) < 4 {
			return nil, ErrMalformed{Reason: "SYLT syllable timestamp is truncated"}
		}
		text, err := decodeText(textBytes, enc)
		if err != nil {
			return nil, err
		}
		syllables = append(syllables, SyncedText{Text: text, Timestamp: uint32(beUint(after[0:4]))})
		rest = after[4:]
	}
	return &SYLTFrame{
		FrameHeader: h, Encoding: enc, Language: lang, Format: format,
		ContentType: contentType, Descriptor: descriptor, Syllables: syllables,
	}, nil
}
