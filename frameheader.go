package id3v2

import "fmt"

// FrameFlags mirrors every per-frame flag bit across the three ID3v2
// revisions. v2.2 frames carry none of these; the zero value is correct
// for them.
type FrameFlags struct {
	DiscardOnTagAlteration  bool
	DiscardOnFileAlteration bool
	ReadOnly                bool
	GroupingIdentity        bool
	Compression             bool
	Encryption              bool
	Unsynchronisation       bool // v2.4 only
	DataLengthIndicator     bool // v2.4 only

	// Sub-fields present only when the corresponding flag above is set;
	// round-tripped verbatim, never interpreted.
	GroupID           byte
	DecompressedSize  uint32 // v2.3 compression only
	EncryptionMethod  byte
	DataLength        uint32 // v2.4 dataLengthIndicator only
}

// anySet reports whether any flag is set — a frame with any flag at all
// cannot be represented at v2.2.
func (f FrameFlags) anySet() bool {
	return f.DiscardOnTagAlteration || f.DiscardOnFileAlteration || f.ReadOnly ||
		f.GroupingIdentity || f.Compression || f.Encryption ||
		f.Unsynchronisation || f.DataLengthIndicator
}

// supportsVersion implements version support by flags: any flag at all
// rules out v2.2; the two v2.4-only flags rule out v2.3 as well.
func (f FrameFlags) supportsVersion(v Version) error {
	if v == Version2 && f.anySet() {
		return fmt.Errorf("frame flags are not representable in ID3v2.2 (no flag byte exists)")
	}
	if (f.Unsynchronisation || f.DataLengthIndicator) && v != Version4 {
		return fmt.Errorf("unsynchronisation/dataLengthIndicator flags are only supported in ID3v2.4")
	}
	return nil
}

// defaultDiscardOnFileAlteration is the set of identifiers (in canonical
// 4-char form) for which defaultFlags sets discardOnFileAlteration=true.
// Encode does not apply these defaults: it writes each frame's Flags
// exactly as the frame carries them.
var defaultDiscardOnFileAlteration = map[FrameType]bool{
	"ASPI": true, "AENC": true, "ETCO": true, "EQUA": true, "EQU2": true,
	"MLLT": true, "POSS": true, "SEEK": true, "SYLT": true, "SYTC": true,
	"RVAD": true, "RVA2": true, "TENC": true, "TLEN": true, "TSIZ": true,
}

// defaultFlags returns the default FrameFlags for a frame with the given
// canonical identifier: discardOnFileAlteration=true for the identifiers
// above, everything else false.
func defaultFlags(id FrameType) FrameFlags {
	return FrameFlags{DiscardOnFileAlteration: defaultDiscardOnFileAlteration[id]}
}

// headerFlagBit names one per-frame flag; v23BitPositions and
// v24BitPositions give its bit position for v2.3 vs v2.4.
type headerFlagBit int

const (
	bitDiscardOnTagAlteration headerFlagBit = iota
	bitDiscardOnFileAlteration
	bitReadOnly
	bitGroupingIdentity
	bitCompression
	bitEncryption
	bitUnsynchronisation
	bitDataLengthIndicator
)

var v23BitPositions = map[headerFlagBit]int{
	bitDiscardOnTagAlteration:  0,
	bitDiscardOnFileAlteration: 1,
	bitReadOnly:                2,
	bitGroupingIdentity:        10,
	bitCompression:             8,
	bitEncryption:              9,
}

var v24BitPositions = map[headerFlagBit]int{
	bitDiscardOnTagAlteration:  1,
	bitDiscardOnFileAlteration: 2,
	bitReadOnly:                3,
	bitGroupingIdentity:        9,
	bitCompression:             12,
	bitEncryption:              13,
	bitUnsynchronisation:       14,
	bitDataLengthIndicator:     15,
}

func decodeFrameFlags(w uint16, v Version) FrameFlags {
	positions := v23BitPositions
	if v == Version4 {
		positions = v24BitPositions
	}
	get := func(bit headerFlagBit) bool {
		pos, ok := positions[bit]
		return ok && flagBitWord(w, pos)
	}
	return FrameFlags{
		DiscardOnTagAlteration:  get(bitDiscardOnTagAlteration),
		DiscardOnFileAlteration: get(bitDiscardOnFileAlteration),
		ReadOnly:                get(bitReadOnly),
		GroupingIdentity:        get(bitGroupingIdentity),
		Compression:             get(bitCompression),
		Encryption:              get(bitEncryption),
		Unsynchronisation:       get(bitUnsynchronisation),
		DataLengthIndicator:     get(bitDataLengthIndicator),
	}
}

func encodeFrameFlagWord(f FrameFlags, v Version) [2]byte {
	positions := v23BitPositions
	if v == Version4 {
		positions = v24BitPositions
	}
	var w uint16
	set := func(bit headerFlagBit, val bool) {
		if !val {
			return
		}
		if pos, ok := positions[bit]; ok {
			w |= 1 << (15 - pos)
		}
	}
	set(bitDiscardOnTagAlteration, f.DiscardOnTagAlteration)
	set(bitDiscardOnFileAlteration, f.DiscardOnFileAlteration)
	set(bitReadOnly, f.ReadOnly)
	set(bitGroupingIdentity, f.GroupingIdentity)
	set(bitCompression, f.Compression)
	set(bitEncryption, f.Encryption)
	set(bitUnsynchronisation, f.Unsynchronisation)
	set(bitDataLengthIndicator, f.DataLengthIndicator)
	return [2]byte{byte(w >> 8), byte(w)}
}

// decodedFrameHeader is the result of parsing one frame's header: its
// identifier (remapped to canonical form), its flags, and the number of
// header bytes consumed (including any flag-triggered extra fields),
// plus the size of the body that follows.
type decodedFrameHeader struct {
	ID         FrameType
	Flags      FrameFlags
	HeaderSize int
	BodySize   int
}

// decodeFrameHeader reads one frame header starting at data[0]. It returns
// io.EOF-shaped signalling via a nil header and nil error when it
// encounters padding (an all-zero identifier).
func decodeFrameHeader(data []byte, v Version) (*decodedFrameHeader, error) {
	idWidth := v.idWidth()
	if len(data) < idWidth {
		return nil, ErrMalformed{Reason: "truncated frame header"}
	}
	if allZero(data[:idWidth]) {
		return nil, nil // padding
	}

	sizeWidth := 3
	if v != Version2 {
		sizeWidth = 4
	}
	if len(data) < idWidth+sizeWidth {
		return nil, ErrMalformed{Reason: "truncated frame header"}
	}

	rawID := data[:idWidth]
	for _, c := range rawID {
		if !(c >= '0' && c <= '9') && !(c >= 'A' && c <= 'Z') {
			return nil, ErrMalformed{Reason: fmt.Sprintf("invalid frame identifier byte 0x%02x", c)}
		}
	}

	var id FrameType
	var err error
	if v == Version2 {
		id, err = remapToCanonical(string(rawID))
		if err != nil {
			return nil, err
		}
	} else {
		id = FrameType(rawID)
	}

	offset := idWidth
	var bodySize int
	if v == Version4 {
		n, err := decodeSynchsafe(data[offset : offset+4])
		if err != nil {
			return nil, err
		}
		bodySize = int(n)
	} else {
		bodySize = int(beUint(data[offset : offset+sizeWidth]))
	}
	offset += sizeWidth

	var flags FrameFlags
	if v != Version2 {
		if len(data) < offset+2 {
			return nil, ErrMalformed{Reason: "truncated frame header"}
		}
		w := uint16(data[offset])<<8 | uint16(data[offset+1])
		flags = decodeFrameFlags(w, v)
		offset += 2

		if flags.GroupingIdentity {
			if len(data) < offset+1 {
				return nil, ErrMalformed{Reason: "truncated frame header: missing group identifier"}
			}
			flags.GroupID = data[offset]
			offset++
		}
		if flags.Compression && v == Version3 {
			if len(data) < offset+4 {
				return nil, ErrMalformed{Reason: "truncated frame header: missing decompressed size"}
			}
			flags.DecompressedSize = uint32(beUint(data[offset : offset+4]))
			offset += 4
		}
		if flags.Encryption {
			if len(data) < offset+1 {
				return nil, ErrMalformed{Reason: "truncated frame header: missing encryption method"}
			}
			flags.EncryptionMethod = data[offset]
			offset++
		}
		if flags.DataLengthIndicator {
			if len(data) < offset+4 {
				return nil, ErrMalformed{Reason: "truncated frame header: missing data length indicator"}
			}
			n, err := decodeSynchsafe(data[offset : offset+4])
			if err != nil {
				return nil, err
			}
			flags.DataLength = uint32(n)
			offset += 4
		}
	}

	if len(data) < offset+bodySize {
		return nil, ErrOutOfRange{Field: "frame", Reason: "declared size exceeds remaining tag data"}
	}

	return &decodedFrameHeader{ID: id, Flags: flags, HeaderSize: offset, BodySize: bodySize}, nil
}

// encodeFrameHeader serializes a frame header for id/flags targeting v,
// given the already-encoded body length. It returns the header bytes
// (including any flag-triggered extra fields) to be followed directly by
// the body.
func encodeFrameHeader(id FrameType, flags FrameFlags, bodyLen int, v Version) ([]byte, error) {
	wireID, err := remapForVersion(id, v)
	if err != nil {
		return nil, err
	}

	var out []byte
	out = append(out, []byte(wireID)...)

	if v == Version2 {
		// v2.2 frame sizes are plain big-endian, not synchsafe.
		be, err := beBytes(uint64(bodyLen), 3)
		if err != nil {
			return nil, err
		}
		out = append(out, be...)
		return out, nil
	}

	var sizeBytes []byte
	if v == Version4 {
		sizeBytes, err = encodeSynchsafe(uint64(bodyLen), 4)
	} else {
		sizeBytes, err = beBytes(uint64(bodyLen), 4)
	}
	if err != nil {
		return nil, err
	}
	out = append(out, sizeBytes...)

	word := encodeFrameFlagWord(flags, v)
	out = append(out, word[:]...)

	if flags.GroupingIdentity {
		out = append(out, flags.GroupID)
	}
	if flags.Compression && v == Version3 {
		b, err := beBytes(uint64(flags.DecompressedSize), 4)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	if flags.Encryption {
		out = append(out, flags.EncryptionMethod)
	}
	if flags.DataLengthIndicator {
		b, err := encodeSynchsafe(uint64(flags.DataLength), 4)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}

	return out, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func beUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = (v << 8) | uint64(c)
	}
	return v
}

func beBytes(v uint64, width int) ([]byte, error) {
	if width < 8 && v >= (uint64(1)<<(uint(width)*8)) {
		return nil, ErrOutOfRange{Field: "integer field", Reason: fmt.Sprintf("%d does not fit in %d bytes", v, width)}
	}
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(v & 0xff)
		v >>= 8
	}
	return out, nil
}
