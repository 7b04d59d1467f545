package id3v2

import "fmt"

// TagRestrictions is the packed tag-restrictions sub-section of the v2.4
// extended header.
type TagRestrictions struct {
	TagSize       byte // 2 bits: 0..3
	TextEncoding  byte // 1 bit: 0..1
	TextFieldSize byte // 2 bits: 0..3
	ImageEncoding byte // 1 bit: 0..1
	ImageSize     byte // 2 bits: 0..3
}

func (r TagRestrictions) encode() byte {
	return (r.TagSize&0x3)<<6 | (r.TextEncoding&0x1)<<5 | (r.TextFieldSize&0x3)<<3 |
		(r.ImageEncoding&0x1)<<2 | (r.ImageSize & 0x3)
}

func decodeTagRestrictions(b byte) TagRestrictions {
	return TagRestrictions{
		TagSize:       (b >> 6) & 0x3,
		TextEncoding:  (b >> 5) & 0x1,
		TextFieldSize: (b >> 3) & 0x3,
		ImageEncoding: (b >> 2) & 0x1,
		ImageSize:     b & 0x3,
	}
}

// ExtendedHeader holds the optional material between the tag header and
// the frame stream.
type ExtendedHeader struct {
	// v2.3
	CRCPresent    bool
	PaddingSize   uint32
	CRC           uint32

	// v2.4
	TagIsAnUpdate   bool
	CRCDataPresent  bool
	CRCData         uint32
	Restrictions    *TagRestrictions
}

// TagHeader is the decoded 10-byte ID3v2 header plus any extended header.
type TagHeader struct {
	Version           Version
	Unsynchronisation bool
	Experimental      bool
	FooterPresent     bool // v2.4 only; this codec never writes a footer
	Size              uint32 // declared payload size, excluding the 10-byte header
	Extended          *ExtendedHeader

	// HeaderSize is 10 plus however many extended-header bytes were
	// consumed on decode.
	HeaderSize int
	// TagSize is 10 + Size: the total number of bytes the tag occupies,
	// from the "ID3" signature up to (not including) the audio payload.
	TagSize int
}

var tagMagic = [3]byte{'I', 'D', '3'}

// decodeTagHeader parses a tag header from data, which must start at the
// first byte of the "ID3" signature.
func decodeTagHeader(data []byte) (*TagHeader, error) {
	if len(data) < 10 {
		return nil, ErrMalformed{Reason: "truncated tag header"}
	}
	if [3]byte(data[0:3]) != tagMagic {
		var got [3]byte
		copy(got[:], data[0:3])
		return nil, ErrNotATag{Got: got}
	}

	major := data[3]
	v := Version(major)
	if !v.valid() {
		return nil, ErrUnsupportedVersion{Version: int(major)}
	}

	flagByte := data[5]
	h := &TagHeader{Version: v}

	switch v {
	case Version2:
		h.Unsynchronisation = flagBit(flagByte, 0)
		if flagBit(flagByte, 1) {
			return nil, ErrMalformed{Reason: "ID3v2.2 tag-level compression is not supported"}
		}
	case Version3:
		h.Unsynchronisation = flagBit(flagByte, 0)
		h.Experimental = flagBit(flagByte, 2)
	case Version4:
		h.Unsynchronisation = flagBit(flagByte, 0)
		h.Experimental = flagBit(flagByte, 2)
		h.FooterPresent = flagBit(flagByte, 3)
	}
	extendedHeaderPresent := v != Version2 && flagBit(flagByte, 1)

	size, err := decodeSynchsafe(data[6:10])
	if err != nil {
		return nil, err
	}
	h.Size = uint32(size)
	h.HeaderSize = 10
	h.TagSize = 10 + int(size)

	if extendedHeaderPresent {
		ext, consumed, err := decodeExtendedHeader(data[10:], v)
		if err != nil {
			return nil, err
		}
		h.Extended = ext
		h.HeaderSize += consumed
	}

	return h, nil
}

func decodeExtendedHeader(data []byte, v Version) (*ExtendedHeader, int, error) {
	if v == Version3 {
		if len(data) < 10 {
			return nil, 0, ErrMalformed{Reason: "truncated v2.3 extended header"}
		}
		size, err := decodeSynchsafe(data[0:4])
		if err != nil {
			return nil, 0, err
		}
		_ = size // not consulted: 10 bytes, plus 4 CRC bytes when the CRC flag is set
		ext := &ExtendedHeader{
			CRCPresent:  flagBit(data[4], 0),
			PaddingSize: uint32(beUint(data[6:10])),
		}
		consumed := 10
		if ext.CRCPresent {
			if len(data) < 14 {
				return nil, 0, ErrMalformed{Reason: "truncated v2.3 extended header CRC"}
			}
			ext.CRC = uint32(beUint(data[10:14]))
			consumed = 14
		}
		return ext, consumed, nil
	}

	// v2.4
	if len(data) < 6 {
		return nil, 0, ErrMalformed{Reason: "truncated v2.4 extended header"}
	}
	size, err := decodeSynchsafe(data[0:4])
	if err != nil {
		return nil, 0, err
	}
	if len(data) < int(size) {
		return nil, 0, ErrMalformed{Reason: "truncated v2.4 extended header"}
	}
	numFlagBytes := data[4]
	if numFlagBytes != 1 {
		return nil, 0, ErrMalformed{Reason: "unexpected v2.4 extended header flag byte count"}
	}
	flags := data[5]
	ext := &ExtendedHeader{
		TagIsAnUpdate: flagBit(flags, 1),
	}
	offset := 6
	if flagBit(flags, 2) {
		if len(data) < offset+6 || data[offset] != 5 {
			return nil, 0, ErrMalformed{Reason: "truncated v2.4 CRC sub-section"}
		}
		crc, err := decodeSynchsafe(data[offset+1 : offset+6])
		if err != nil {
			return nil, 0, err
		}
		ext.CRCDataPresent = true
		ext.CRCData = uint32(crc)
		offset += 6
	}
	if flagBit(flags, 3) {
		if len(data) < offset+2 || data[offset] != 1 {
			return nil, 0, ErrMalformed{Reason: "truncated v2.4 tag-restrictions sub-section"}
		}
		r := decodeTagRestrictions(data[offset+1])
		ext.Restrictions = &r
		offset += 2
	}
	return ext, int(size) + 4, nil
}

// needsExtendedHeader decides whether an extended header must be emitted
// for the given options at version v.
func needsExtendedHeader(opts EncodeOptions, v Version) bool {
	switch v {
	case Version2:
		return false
	case Version3:
		return opts.CRCData != nil
	case Version4:
		return opts.TagIsAnUpdate || opts.CRCData != nil || opts.TagRestrictions != nil
	}
	return false
}

// encodeExtendedHeader renders the extended header bytes for the given
// options at version v. Callers must have already checked
// needsExtendedHeader.
func encodeExtendedHeader(opts EncodeOptions, v Version) ([]byte, error) {
	if v == Version3 {
		out := make([]byte, 10)
		crcPresent := opts.CRCData != nil
		bodyLen := uint64(6) // body beyond the size field itself: 6 bytes, 10 with a CRC
		if crcPresent {
			bodyLen = 10
		}
		sz, _ := encodeSynchsafe(bodyLen, 4)
		copy(out[0:4], sz)
		out[4] = encodeFlagByte(crcPresent)
		// out[5] reserved/zero; padding size left at zero (this codec
		// never pads beyond what the caller's frame stream already is).
		if crcPresent {
			crcBytes, err := beBytes(uint64(*opts.CRCData), 4)
			if err != nil {
				return nil, err
			}
			out = append(out, crcBytes...)
		}
		return out, nil
	}

	// v2.4
	var body []byte
	flags := byte(0)
	if opts.TagIsAnUpdate {
		flags |= 1 << 6 // bit 1 from the MSB side -> flagBit(flags,1)
	}
	var sub []byte
	if opts.CRCData != nil {
		crcBytes, err := encodeSynchsafe(uint64(*opts.CRCData), 5)
		if err != nil {
			return nil, err
		}
		sub = append(sub, 5)
		sub = append(sub, crcBytes...)
		flags |= 1 << 5 // flagBit(flags,2)
	}
	if opts.TagRestrictions != nil {
		sub = append(sub, 1, opts.TagRestrictions.encode())
		flags |= 1 << 4 // flagBit(flags,3)
	}
	body = append(body, 1, flags)
	body = append(body, sub...)

	sizeBytes, err := encodeSynchsafe(uint64(len(body)), 4)
	if err != nil {
		return nil, err
	}
	return append(sizeBytes, body...), nil
}

// encodeTagHeader renders the 10-byte tag header (plus extended header, if
// any) for a frame stream of the given length and options at version v.
func encodeTagHeader(frameStreamLen int, opts EncodeOptions, v Version) ([]byte, error) {
	var extended []byte
	if needsExtendedHeader(opts, v) {
		var err error
		extended, err = encodeExtendedHeader(opts, v)
		if err != nil {
			return nil, err
		}
	}

	totalSize := frameStreamLen + len(extended)
	sizeBytes, err := encodeSynchsafe(uint64(totalSize), 4)
	if err != nil {
		return nil, err
	}

	var flagByte byte
	switch v {
	case Version2:
		flagByte = encodeFlagByte(opts.Unsynchronisation)
	case Version3:
		flagByte = encodeFlagByte(opts.Unsynchronisation, len(extended) > 0, opts.Experimental)
	case Version4:
		flagByte = encodeFlagByte(opts.Unsynchronisation, len(extended) > 0, opts.Experimental, false)
	default:
		return nil, ErrUnsupportedVersion{Version: int(v)}
	}

	out := make([]byte, 0, 10+len(extended))
	out = append(out, tagMagic[:]...)
	out = append(out, byte(v), 0)
	out = append(out, flagByte)
	out = append(out, sizeBytes...)
	out = append(out, extended...)

	if len(out) != 10+len(extended) {
		return nil, fmt.Errorf("internal error: tag header length mismatch")
	}
	return out, nil
}
