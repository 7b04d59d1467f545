package id3v2

import "fmt"

func init() {
	registerFrameFactory([]FrameType{"RVAD"}, decodeRVADFrame)
	registerFrameFactory([]FrameType{"RVA2"}, decodeRVA2Frame)
	registerFrameFactory([]FrameType{"EQUA"}, decodeEQUAFrame)
	registerFrameFactory([]FrameType{"EQU2"}, decodeEQU2Frame)
	registerFrameFactory([]FrameType{"RVRB"}, decodeRVRBFrame)
}

// RVADFrame is RVAD, the v2.2/v2.3 relative-volume-adjustment frame:
// an increment/decrement byte, a bit-width byte, then four
// channel-wide volume fields (right, left, peak-right, peak-left), plus
// optionally a second set of four for the back channels and a (relative
// volume, peak volume) pair each for the center and bass channels, all at
// the declared bit width, rounded up to a whole byte count per field. The
// increment byte packs six per-channel booleans in the fixed order
// {bass, center, leftBack, rightBack, left, right}, MSB first — pinned by
// TestRVADIncrementByteBitOrder against two disagreeing implementations
// seen in the wild.
type RVADFrame struct {
	FrameHeader
	IncrementRight, IncrementLeft bool
	BitsPerVolume                 byte
	VolumeRight, VolumeLeft       uint32
	PeakRight, PeakLeft           uint32
	Back                          *RVADBackChannels
	Center                        *RVADExtraChannel
	Bass                          *RVADExtraChannel
}

// RVADBackChannels holds RVAD's optional back-channel fields.
type RVADBackChannels struct {
	IncrementRight, IncrementLeft bool
	VolumeRight, VolumeLeft       uint32
	PeakRight, PeakLeft           uint32
}

// RVADExtraChannel holds RVAD's optional center or bass channel: an
// increment flag plus a (relative volume, peak volume) pair, the same
// shape every RVAD channel carries.
type RVADExtraChannel struct {
	Increment bool
	Volume    uint32
	Peak      uint32
}

func (f *RVADFrame) Header() FrameHeader { return f.FrameHeader }

func (f *RVADFrame) supportsContentVersion(v Version) error {
	if v == Version4 {
		return fmt.Errorf("RVAD was replaced by RVA2 in ID3v2.4")
	}
	return nil
}

func fieldWidth(bits byte) int {
	return (int(bits) + 7) / 8
}

func (f *RVADFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	width := fieldWidth(f.BitsPerVolume)
	bassInc, centerInc, leftBackInc, rightBackInc := false, false, false, false
	if f.Bass != nil {
		bassInc = f.Bass.Increment
	}
	if f.Center != nil {
		centerInc = f.Center.Increment
	}
	if f.Back != nil {
		leftBackInc = f.Back.IncrementLeft
		rightBackInc = f.Back.IncrementRight
	}
	incByte := encodeFlagByte(bassInc, centerInc, leftBackInc, rightBackInc, f.IncrementLeft, f.IncrementRight)
	out := []byte{incByte, f.BitsPerVolume}
	for _, val := range []uint32{f.VolumeRight, f.VolumeLeft, f.PeakRight, f.PeakLeft} {
		b, err := beBytes(uint64(val), width)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	if f.Back != nil {
		for _, val := range []uint32{f.Back.VolumeRight, f.Back.VolumeLeft, f.Back.PeakRight, f.Back.PeakLeft} {
			b, err := beBytes(uint64(val), width)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
	}
	if f.Center != nil {
		for _, val := range []uint32{f.Center.Volume, f.Center.Peak} {
			b, err := beBytes(uint64(val), width)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
	}
	if f.Bass != nil {
		for _, val := range []uint32{f.Bass.Volume, f.Bass.Peak} {
			b, err := beBytes(uint64(val), width)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
	}
	return out, nil
}

func decodeRVADFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 2 {
		return nil, ErrMalformed{Reason: "RVAD body shorter than its fixed preamble"}
	}
	width := fieldWidth(body[1])
	need := 2 + 4*width
	if len(body) < need {
		return nil, ErrMalformed{Reason: "RVAD body is shorter than its declared bit width requires"}
	}
	incByte := body[0]
	f := &RVADFrame{
		FrameHeader:    h,
		IncrementLeft:  flagBit(incByte, 4),
		IncrementRight: flagBit(incByte, 5),
		BitsPerVolume:  body[1],
	}
	rest := body[2:]
	readField := func() uint32 {
		v := uint32(beUint(rest[:width]))
		rest = rest[width:]
		return v
	}
	f.VolumeRight = readField()
	f.VolumeLeft = readField()
	f.PeakRight = readField()
	f.PeakLeft = readField()

	if len(rest) >= 4*width {
		f.Back = &RVADBackChannels{
			IncrementLeft:  flagBit(incByte, 2),
			IncrementRight: flagBit(incByte, 3),
		}
		f.Back.VolumeRight = readField()
		f.Back.VolumeLeft = readField()
		f.Back.PeakRight = readField()
		f.Back.PeakLeft = readField()
	}
	if len(rest) >= 2*width {
		f.Center = &RVADExtraChannel{Increment: flagBit(incByte, 1), Volume: readField(), Peak: readField()}
	}
	if len(rest) >= 2*width {
		f.Bass = &RVADExtraChannel{Increment: flagBit(incByte, 0), Volume: readField(), Peak: readField()}
	}
	return f, nil
}

// RVA2Frame is RVA2, the v2.4 relative-volume-adjustment frame: a
// terminated ISO-8859-1 identification string followed by one or more
// per-channel adjustment entries.
type RVA2Frame struct {
	FrameHeader
	Identification string
	Channels       []RVA2Channel
}

// RVA2Channel is one per-channel entry in an RVA2Frame.
type RVA2Channel struct {
	ChannelType    byte
	VolumeAdjust   int16 // fixed point, 1/512 dB
	PeakBitsCount  byte
	PeakVolume     []byte // PeakBitsCount bits, rounded up to whole bytes
}

func (f *RVA2Frame) Header() FrameHeader { return f.FrameHeader }

func (f *RVA2Frame) supportsContentVersion(v Version) error {
	if v != Version4 {
		return fmt.Errorf("RVA2 is only defined in ID3v2.4")
	}
	return nil
}

func (f *RVA2Frame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	id, err := encodeText(f.Identification, ISO88591)
	if err != nil {
		return nil, err
	}
	out := append(id, 0)
	for _, c := range f.Channels {
		adj, err := beBytes(uint64(uint16(c.VolumeAdjust)), 2)
		if err != nil {
			return nil, err
		}
		out = append(out, c.ChannelType)
		out = append(out, adj...)
		out = append(out, c.PeakBitsCount)
		out = append(out, c.PeakVolume...)
	}
	return out, nil
}

func decodeRVA2Frame(h FrameHeader, body []byte, v Version) (Frame, error) {
	id, rest, ok := splitTerminated(body, ISO88591)
	if !ok {
		return nil, ErrMalformed{Reason: "RVA2 identification is not terminated"}
	}
	identification, err := decodeText(id, ISO88591)
	if err != nil {
		return nil, err
	}
	var channels []RVA2Channel
	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, ErrMalformed{Reason: "RVA2 channel entry is truncated"}
		}
		channelType := rest[0]
		adjust := int16(beUint(rest[1:3]))
		peakBits := rest[3]
		peakWidth := fieldWidth(peakBits)
		if len(rest) < 4+peakWidth {
			return nil, ErrMalformed{Reason: "RVA2 peak volume is truncated"}
		}
		peak := make([]byte, peakWidth)
		copy(peak, rest[4:4+peakWidth])
		channels = append(channels, RVA2Channel{ChannelType: channelType, VolumeAdjust: adjust, PeakBitsCount: peakBits, PeakVolume: peak})
		rest = rest[4+peakWidth:]
	}
	return &RVA2Frame{FrameHeader: h, Identification: identification, Channels: channels}, nil
}

// EQUAFrame is EQUA, the v2.2/v2.3 equalisation frame: a
// bit-width byte followed by a sequence of (16-bit frequency with its top
// bit as increment/decrement, bit-width-sized adjustment) entries.
type EQUAFrame struct {
	FrameHeader
	BitsPerAdjustment byte
	Adjustments       []EQUAAdjustment
}

// EQUAAdjustment is one frequency-band entry in an EQUAFrame.
type EQUAAdjustment struct {
	Increment bool
	Frequency uint16 // 15 bits
	Value     uint32
}

func (f *EQUAFrame) Header() FrameHeader { return f.FrameHeader }

func (f *EQUAFrame) supportsContentVersion(v Version) error {
	if v == Version4 {
		return fmt.Errorf("EQUA was replaced by EQU2 in ID3v2.4")
	}
	return nil
}

func (f *EQUAFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	width := fieldWidth(f.BitsPerAdjustment)
	out := []byte{f.BitsPerAdjustment}
	for _, a := range f.Adjustments {
		freq := a.Frequency & 0x7fff
		if a.Increment {
			freq |= 0x8000
		}
		freqBytes, err := beBytes(uint64(freq), 2)
		if err != nil {
			return nil, err
		}
		valBytes, err := beBytes(uint64(a.Value), width)
		if err != nil {
			return nil, err
		}
		out = append(out, freqBytes...)
		out = append(out, valBytes...)
	}
	return out, nil
}

func decodeEQUAFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 1 {
		return nil, ErrMalformed{Reason: "EQUA body is empty"}
	}
	width := fieldWidth(body[0])
	rest := body[1:]
	entryLen := 2 + width
	var adjustments []EQUAAdjustment
	for len(rest) >= entryLen {
		freqWord := uint16(beUint(rest[0:2]))
		adjustments = append(adjustments, EQUAAdjustment{
			Increment: freqWord&0x8000 != 0,
			Frequency: freqWord & 0x7fff,
			Value:     uint32(beUint(rest[2:entryLen])),
		})
		rest = rest[entryLen:]
	}
	return &EQUAFrame{FrameHeader: h, BitsPerAdjustment: body[0], Adjustments: adjustments}, nil
}

// EQU2Frame is EQU2, the v2.4 equalisation frame: an
// interpolation-method byte, a terminated ISO-8859-1 identification
// string, then a sequence of (16-bit frequency in units of 1/2 Hz, 16-bit
// signed fixed-point volume adjustment) pairs.
type EQU2Frame struct {
	FrameHeader
	InterpolationMethod byte
	Identification      string
	Points              []EQU2Point
}

// EQU2Point is one (frequency, adjustment) pair in an EQU2Frame.
type EQU2Point struct {
	Frequency uint16
	Adjust    int16
}

func (f *EQU2Frame) Header() FrameHeader { return f.FrameHeader }

func (f *EQU2Frame) supportsContentVersion(v Version) error {
	if v != Version4 {
		return fmt.Errorf("EQU2 is only defined in ID3v2.4")
	}
	return nil
}

func (f *EQU2Frame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	id, err := encodeText(f.Identification, ISO88591)
	if err != nil {
		return nil, err
	}
	out := append([]byte{f.InterpolationMethod}, id...)
	out = append(out, 0)
	for _, p := range f.Points {
		freq, err := beBytes(uint64(p.Frequency), 2)
		if err != nil {
			return nil, err
		}
		adj, err := beBytes(uint64(uint16(p.Adjust)), 2)
		if err != nil {
			return nil, err
		}
		out = append(out, freq...)
		out = append(out, adj...)
	}
	return out, nil
}

func decodeEQU2Frame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 1 {
		return nil, ErrMalformed{Reason: "EQU2 body is empty"}
	}
	method := body[0]
	id, rest, ok := splitTerminated(body[1:], ISO88591)
	if !ok {
		return nil, ErrMalformed{Reason: "EQU2 identification is not terminated"}
	}
	identification, err := decodeText(id, ISO88591)
	if err != nil {
		return nil, err
	}
	if len(rest)%4 != 0 {
		return nil, ErrMalformed{Reason: "EQU2 point list is not a whole number of 4-byte entries"}
	}
	var points []EQU2Point
	for len(rest) > 0 {
		points = append(points, EQU2Point{
			Frequency: uint16(beUint(rest[0:2])),
			Adjust:    int16(beUint(rest[2:4])),
		})
		rest = rest[4:]
	}
	return &EQU2Frame{FrameHeader: h, InterpolationMethod: method, Identification: identification, Points: points}, nil
}

// RVRBFrame is RVRB: a fixed 12-byte structure describing a
// simple stereo reverb effect.
type RVRBFrame struct {
	FrameHeader
	ReverbLeft, ReverbRight               uint16
	BouncesLeft, BouncesRight              byte
	FeedbackLeftToLeft, FeedbackLeftToRight   byte
	FeedbackRightToRight, FeedbackRightToLeft byte
	PremixLeftToRight, PremixRightToLeft      byte
}

func (f *RVRBFrame) Header() FrameHeader { return f.FrameHeader }

func (f *RVRBFrame) supportsContentVersion(v Version) error { return nil }

func (f *RVRBFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	left, err := beBytes(uint64(f.ReverbLeft), 2)
	if err != nil {
		return nil, err
	}
	right, err := beBytes(uint64(f.ReverbRight), 2)
	if err != nil {
		return nil, err
	}
	out := append(left, right...)
	out = append(out, f.BouncesLeft, f.BouncesRight,
		f.FeedbackLeftToLeft, f.FeedbackLeftToRight,
		f.FeedbackRightToRight, f.FeedbackRightToLeft,
		f.PremixLeftToRight, f.PremixRightToLeft)
	return out, nil
}

func decodeRVRBFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 12 {
		return nil, ErrMalformed{Reason: "RVRB body shorter than its fixed 12 bytes"}
	}
	return &RVRBFrame{
		FrameHeader:           h,
		ReverbLeft:            uint16(beUint(body[0:2])),
		ReverbRight:           uint16(beUint(body[2:4])),
		BouncesLeft:           body[4],
		BouncesRight:          body[5],
		FeedbackLeftToLeft:    body[6],
		FeedbackLeftToRight:   body[7],
		FeedbackRightToRight:  body[8],
		FeedbackRightToLeft:   body[9],
		PremixLeftToRight:     body[10],
		PremixRightToLeft:     body[11],
	}, nil
}
