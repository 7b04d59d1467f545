package id3v2

import "fmt"

func init() {
	registerFrameFactory([]FrameType{"MCDI"}, decodeMCDIFrame)
	registerFrameFactory([]FrameType{"APIC"}, decodeAPICFrame)
	registerFrameFactory([]FrameType{"GEOB"}, decodeGEOBFrame)
	registerFrameFactory([]FrameType{"PCNT"}, decodePCNTFrame)
	registerFrameFactory([]FrameType{"POPM"}, decodePOPMFrame)
	registerFrameFactory([]FrameType{"RBUF"}, decodeRBUFFrame)
	registerFrameFactory([]FrameType{"AENC"}, decodeAENCFrame)
}

// MCDIFrame is MCDI: the raw binary TOC of the CD the track
// was ripped from, no further structure.
type MCDIFrame struct {
	FrameHeader
	TOC []byte
}

func (f *MCDIFrame) Header() FrameHeader                    { return f.FrameHeader }
func (f *MCDIFrame) supportsContentVersion(v Version) error { return nil }

func (f *MCDIFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	return f.TOC, nil
}

func decodeMCDIFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	toc := make([]byte, len(body))
	copy(toc, body)
	return &MCDIFrame{FrameHeader: h, TOC: toc}, nil
}

// APICFrame is APIC (v2.3/v2.4) or PIC (v2.2): an encoding
// byte, a MIME type (ISO-8859-1, terminated; at v2.2 instead an
// unterminated 3-character image format such as "PNG" or "JPG"), a picture type
// byte, a terminated description in the frame's encoding, then the raw
// image data running to the end of the body.
type APICFrame struct {
	FrameHeader
	Encoding    Encoding
	MIMEType    string
	PictureType PictureType
	Description string
	Data        []byte
}

func (f *APICFrame) Header() FrameHeader                    { return f.FrameHeader }
func (f *APICFrame) supportsContentVersion(v Version) error { return nil }

func (f *APICFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	enc := resolveEncoding(f.ID, f.Encoding, opts, v)
	mimeType := f.MIMEType
	if v == Version2 {
		mimeType = imageFormatFor(f.MIMEType)
		if len(mimeType) != 3 {
			return nil, ErrOutOfRange{Field: "APIC image format", Reason: fmt.Sprintf("%q has no 3-character ID3v2.2 image format", f.MIMEType)}
		}
	}
	mime, err := encodeText(mimeType, ISO88591)
	if err != nil {
		return nil, err
	}
	desc, err := encodeText(f.Description, enc)
	if err != nil {
		return nil, err
	}
	out := []byte{byte(enc)}
	out = append(out, mime...)
	if v != Version2 {
		out = append(out, 0)
	}
	out = append(out, byte(f.PictureType))
	out = append(out, desc...)
	out = append(out, enc.terminator()...)
	out = append(out, f.Data...)
	return out, nil
}

func decodeAPICFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 1 {
		return nil, ErrMalformed{Reason: "APIC body is empty"}
	}
	enc := Encoding(body[0])
	var mimeBytes, rest []byte
	if v == Version2 {
		if len(body) < 4 {
			return nil, ErrMalformed{Reason: "PIC body is missing its image format"}
		}
		mimeBytes, rest = body[1:4], body[4:]
	} else {
		var ok bool
		mimeBytes, rest, ok = splitTerminated(body[1:], ISO88591)
		if !ok {
			return nil, ErrMalformed{Reason: "APIC MIME type is not terminated"}
		}
	}
	mimeType, err := decodeText(mimeBytes, ISO88591)
	if err != nil {
		return nil, err
	}
	if v == Version2 {
		mimeType = mimeTypeFor(mimeType)
	}
	if len(rest) < 1 {
		return nil, ErrMalformed{Reason: "APIC body is missing its picture type byte"}
	}
	pictureType := PictureType(rest[0])
	descBytes, data, ok := splitTerminated(rest[1:], enc)
	if !ok {
		return nil, ErrMalformed{Reason: "APIC description is not terminated"}
	}
	description, err := decodeText(descBytes, enc)
	if err != nil {
		return nil, err
	}
	imageData := make([]byte, len(data))
	copy(imageData, data)
	return &APICFrame{
		FrameHeader: h, Encoding: enc, MIMEType: mimeType,
		PictureType: pictureType, Description: description, Data: imageData,
	}, nil
}

// imageFormatToMIME maps the handful of v2.2 3-character image formats
// this codec knows to a MIME type and back: v2.2 PIC frames use a format
// code rather than a MIME string.
var imageFormatToMIME = map[string]string{
	"PNG": "image/png",
	"JPG": "image/jpeg",
}

var mimeToImageFormat = func() map[string]string {
	m := make(map[string]string, len(imageFormatToMIME))
	for k, v := range imageFormatToMIME {
		m[v] = k
	}
	return m
}()

func mimeTypeFor(imageFormat string) string {
	if m, ok := imageFormatToMIME[imageFormat]; ok {
		return m
	}
	return imageFormat
}

func imageFormatFor(mimeType string) string {
	if f, ok := mimeToImageFormat[mimeType]; ok {
		return f
	}
	return ""
}

// GEOBFrame is GEOB: an encoding byte, a terminated
// ISO-8859-1 MIME type, a terminated filename and content description in
// the frame's encoding, then raw encapsulated object data.
type GEOBFrame struct {
	FrameHeader
	Encoding    Encoding
	MIMEType    string
	Filename    string
	Description string
	Data        []byte
}

func (f *GEOBFrame) Header() FrameHeader                    { return f.FrameHeader }
func (f *GEOBFrame) supportsContentVersion(v Version) error { return nil }

func (f *GEOBFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	enc := resolveEncoding(f.ID, f.Encoding, opts, v)
	mime, err := encodeText(f.MIMEType, ISO88591)
	if err != nil {
		return nil, err
	}
	filename, err := encodeText(f.Filename, enc)
	if err != nil {
		return nil, err
	}
	desc, err := encodeText(f.Description, enc)
	if err != nil {
		return nil, err
	}
	out := []byte{byte(enc)}
	out = append(out, mime...)
	out = append(out, 0)
	out = append(out, filename...)
	out = append(out, enc.terminator()...)
	out = append(out, desc...)
	out = append(out, enc.terminator()...)
	out = append(out, f.Data...)
	return out, nil
}

func decodeGEOBFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 1 {
		return nil, ErrMalformed{Reason: "GEOB body is empty"}
	}
	enc := Encoding(body[0])
	mimeBytes, rest, ok := splitTerminated(body[1:], ISO88591)
	if !ok {
		return nil, ErrMalformed{Reason: "GEOB MIME type is not terminated"}
	}
	mimeType, err := decodeText(mimeBytes, ISO88591)
	if err != nil {
		return nil, err
	}
	filenameBytes, rest, ok := splitTerminated(rest, enc)
	if !ok {
		return nil, ErrMalformed{Reason: "GEOB filename is not terminated"}
	}
	filename, err := decodeText(filenameBytes, enc)
	if err != nil {
		return nil, err
	}
	descBytes, data, ok := splitTerminated(rest, enc)
	if !ok {
		return nil, ErrMalformed{Reason: "GEOB description is not terminated"}
	}
	description, err := decodeText(descBytes, enc)
	if err != nil {
		return nil, err
	}
	object := make([]byte, len(data))
	copy(object, data)
	return &GEOBFrame{
		FrameHeader: h, Encoding: enc, MIMEType: mimeType,
		Filename: filename, Description: description, Data: object,
	}, nil
}

// PCNTFrame is PCNT: a single counter, at least 4 bytes wide,
// growing as needed to hold values that overflow 32 bits.
type PCNTFrame struct {
	FrameHeader
	Count uint64
}

func (f *PCNTFrame) Header() FrameHeader                    { return f.FrameHeader }
func (f *PCNTFrame) supportsContentVersion(v Version) error { return nil }

func (f *PCNTFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	width := 4
	for (uint64(1) << uint(width*8) - 1) < f.Count {
		width++
	}
	return beBytes(f.Count, width)
}

func decodePCNTFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 4 {
		return nil, ErrMalformed{Reason: "PCNT body must be at least 4 bytes"}
	}
	return &PCNTFrame{FrameHeader: h, Count: beUint(body)}, nil
}

// POPMFrame is POPM: a terminated ISO-8859-1 email address, a
// rating byte (0 reserved, 1..255 meaningful), then an optional trailing
// play counter of the same variable width as PCNT.
type POPMFrame struct {
	FrameHeader
	Email   string
	Rating  byte
	Counter *uint64
}

func (f *POPMFrame) Header() FrameHeader                    { return f.FrameHeader }
func (f *POPMFrame) supportsContentVersion(v Version) error { return nil }

func (f *POPMFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	email, err := encodeText(f.Email, ISO88591)
	if err != nil {
		return nil, err
	}
	out := append(email, 0, f.Rating)
	if f.Counter != nil {
		width := 4
		for (uint64(1)<<uint(width*8) - 1) < *f.Counter {
			width++
		}
		b, err := beBytes(*f.Counter, width)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func decodePOPMFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	emailBytes, rest, ok := splitTerminated(body, ISO88591)
	if !ok {
		return nil, ErrMalformed{Reason: "POPM email is not terminated"}
	}
	email, err := decodeText(emailBytes, ISO88591)
	if err != nil {
		return nil, err
	}
	if len(rest) < 1 {
		return nil, ErrMalformed{Reason: "POPM body is missing its rating byte"}
	}
	f := &POPMFrame{FrameHeader: h, Email: email, Rating: rest[0]}
	if len(rest) > 1 {
		counter := beUint(rest[1:])
		f.Counter = &counter
	}
	return f, nil
}

// RBUFFrame is RBUF: a 3-byte recommended buffer size, a
// flags byte whose low bit says whether an embedded-info flag is set, then
// an optional 4-byte offset to the next flagged frame.
type RBUFFrame struct {
	FrameHeader
	BufferSize          uint32
	EmbeddedInfoFlag    bool
	OffsetToNextFlag    *uint32
}

func (f *RBUFFrame) Header() FrameHeader                    { return f.FrameHeader }
func (f *RBUFFrame) supportsContentVersion(v Version) error { return nil }

func (f *RBUFFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	size, err := beBytes(uint64(f.BufferSize), 3)
	if err != nil {
		return nil, err
	}
	var flags byte
	if f.EmbeddedInfoFlag {
		flags = 1
	}
	out := append(size, flags)
	if f.OffsetToNextFlag != nil {
		b, err := beBytes(uint64(*f.OffsetToNextFlag), 4)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func decodeRBUFFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	if len(body) < 4 {
		return nil, ErrMalformed{Reason: "RBUF body shorter than its fixed preamble"}
	}
	f := &RBUFFrame{
		FrameHeader:      h,
		BufferSize:       uint32(beUint(body[0:3])),
		EmbeddedInfoFlag: body[3]&1 != 0,
	}
	if len(body) >= 8 {
		offset := uint32(beUint(body[4:8]))
		f.OffsetToNextFlag = &offset
	}
	return f, nil
}

// AENCFrame is AENC: a terminated ISO-8859-1 owner
// identifier, a 2-byte preview start, a 2-byte preview length, then
// optional opaque encryption-info bytes running to the end of the body.
// Encryption key material is never interpreted.
type AENCFrame struct {
	FrameHeader
	Owner         string
	PreviewStart  uint16
	PreviewLength uint16
	EncryptionInfo []byte
}

func (f *AENCFrame) Header() FrameHeader                    { return f.FrameHeader }
func (f *AENCFrame) supportsContentVersion(v Version) error { return nil }

func (f *AENCFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	owner, err := encodeText(f.Owner, ISO88591)
	if err != nil {
		return nil, err
	}
	start, err := beBytes(uint64(f.PreviewStart), 2)
	if err != nil {
		return nil, err
	}
	length, err := beBytes(uint64(f.PreviewLength), 2)
	if err != nil {
		return nil, err
	}
	out := append(owner, 0)
	out = append(out, start...)
	out = append(out, length...)
	out = append(out, f.EncryptionInfo...)
	return out, nil
}

func decodeAENCFrame(h FrameHeader, body []byte, v Version) (Frame, error) {
	owner, rest, ok := splitTerminated(body, ISO88591)
	if !ok {
		return nil, ErrMalformed{Reason: "AENC owner is not terminated"}
	}
	ownerStr, err := decodeText(owner, ISO88591)
	if err != nil {
		return nil, err
	}
	if len(rest) < 4 {
		return nil, ErrMalformed{Reason: "AENC body is missing its preview fields"}
	}
	info := make([]byte, len(rest)-4)
	copy(info, rest[4:])
	return &AENCFrame{
		FrameHeader: h, Owner: ownerStr,
		PreviewStart: uint16(beUint(rest[0:2])), PreviewLength: uint16(beUint(rest[2:4])),
		EncryptionInfo: info,
	}, nil
}
