package id3v2

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is the wire byte that identifies a frame's text encoding.
type Encoding byte

const (
	ISO88591 Encoding = 0
	UTF16BOM Encoding = 1
	UTF16BE  Encoding = 2
	UTF8     Encoding = 3
)

func (e Encoding) String() string {
	switch e {
	case ISO88591:
		return "ISO-8859-1"
	case UTF16BOM:
		return "UTF-16"
	case UTF16BE:
		return "UTF-16BE"
	case UTF8:
		return "UTF-8"
	default:
		return fmt.Sprintf("unknown encoding 0x%02x", byte(e))
	}
}

// terminator returns the byte sequence that ends an in-band string using
// this encoding: two zero bytes for either UTF-16 variant, one otherwise.
func (e Encoding) terminator() []byte {
	switch e {
	case UTF16BOM, UTF16BE:
		return []byte{0, 0}
	default:
		return []byte{0}
	}
}

// supportedAt reports whether this encoding may be used in a tag targeting
// v. v2.2 and v2.3 restrict the permissive set to ISO-8859-1 and UTF-16
// with BOM, per the normative choice recorded in the open
// question ("the permissive set [for v2.3] as {ISO-8859-1, UTF-16-with-BOM}").
func (e Encoding) supportedAt(v Version) bool {
	if v == Version4 {
		return true
	}
	return e == ISO88591 || e == UTF16BOM
}

// resolveEncoding returns enc if it's legal at v, otherwise the per-version
// default from opts, logging the downgrade since it silently changes the
// frame's wire bytes from what the caller asked for.
func resolveEncoding(id FrameType, enc Encoding, opts EncodeOptions, v Version) Encoding {
	if enc.supportedAt(v) {
		return enc
	}
	fallback := opts.textEncodingFor(v)
	Logging.Println("id3v2: downgrading", id, "text encoding from", enc, "to", fallback, "at", v)
	return fallback
}

// x/text codecs used for the three non-ASCII wire encodings, rather than
// hand-rolling ISO-8859-1/UTF-16 byte conversion.
var (
	iso88591Codec  = charmap.ISO8859_1
	utf16beCodec   = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	utf16leCodec   = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	utf16bomReader = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
)

// encodeText converts a UTF-8 Go string into the wire bytes for the given
// encoding, without any terminator — callers append terminators themselves
// per the frame layout in.
func encodeText(s string, enc Encoding) ([]byte, error) {
	switch enc {
	case ISO88591:
		b, err := iso88591Codec.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, ErrMalformed{Reason: fmt.Sprintf("string %q is not representable in ISO-8859-1: %v", s, err)}
		}
		return b, nil
	case UTF8:
		return []byte(s), nil
	case UTF16BE:
		b, err := utf16beCodec.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, ErrMalformed{Reason: fmt.Sprintf("string %q is not representable in UTF-16: %v", s, err)}
		}
		return b, nil
	case UTF16BOM:
		// unicode.UTF16 with UseBOM only recognises BOMs on decode; for
		// encode we prepend one explicitly and reuse the little-endian
		// encoder, which matches the BOM we write.
		b, err := utf16leCodec.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, ErrMalformed{Reason: fmt.Sprintf("string %q is not representable in UTF-16: %v", s, err)}
		}
		return append([]byte{0xFF, 0xFE}, b...), nil
	default:
		return nil, ErrMalformed{Reason: fmt.Sprintf("unrecognised text encoding byte 0x%02x", byte(enc))}
	}
}

// decodeText converts wire bytes (with any terminator already stripped)
// for the given encoding back into a UTF-8 Go string.
func decodeText(b []byte, enc Encoding) (string, error) {
	switch enc {
	case ISO88591:
		out, err := iso88591Codec.NewDecoder().Bytes(b)
		if err != nil {
			return "", ErrMalformed{Reason: fmt.Sprintf("invalid ISO-8859-1 data: %v", err)}
		}
		return string(out), nil
	case UTF8:
		return string(b), nil
	case UTF16BE:
		out, err := utf16beCodec.NewDecoder().Bytes(b)
		if err != nil {
			return "", ErrMalformed{Reason: fmt.Sprintf("invalid UTF-16BE data: %v", err)}
		}
		return string(out), nil
	case UTF16BOM:
		out, err := utf16bomReader.NewDecoder().Bytes(b)
		if err != nil {
			return "", ErrMalformed{Reason: fmt.Sprintf("invalid UTF-16 data: %v", err)}
		}
		return string(out), nil
	default:
		return "", ErrMalformed{Reason: fmt.Sprintf("unrecognised text encoding byte 0x%02x", byte(enc))}
	}
}

// splitTerminated splits data on the first occurrence of enc's terminator,
// returning the part before it and the remainder after it. UTF-16
// terminators must fall on a code-unit (2-byte) boundary —
// a pair of zero bytes that straddles two code units does not count.
func splitTerminated(data []byte, enc Encoding) (before, after []byte, ok bool) {
	if enc == UTF16BOM || enc == UTF16BE {
		for i := 0; i+1 < len(data); i += 2 {
			if data[i] == 0 && data[i+1] == 0 {
				return data[:i], data[i+2:], true
			}
		}
		return data, nil, false
	}
	i := bytes.IndexByte(data, 0)
	if i < 0 {
		return data, nil, false
	}
	return data[:i], data[i+1:], true
}

// splitTerminatedN splits data into at most n fields separated by enc's
// terminator; the final field runs to the end of data regardless of
// whether it is itself terminated, matching the "termination is
// optional on decode [for] the last string in the body".
func splitTerminatedN(data []byte, enc Encoding, n int) [][]byte {
	parts := make([][]byte, 0, n)
	rest := data
	for len(parts) < n-1 {
		before, after, ok := splitTerminated(rest, enc)
		if !ok {
			break
		}
		parts = append(parts, before)
		rest = after
	}
	parts = append(parts, rest)
	return parts
}

// --- synchsafe integers ---

// encodeSynchsafe packs v into width bytes, seven payload bits per byte,
// with every byte's high bit zero. It fails if v does not fit in
// width*7 bits.
func encodeSynchsafe(v uint64, width int) ([]byte, error) {
	if width <= 0 {
		return nil, ErrMalformed{Reason: "synchsafe width must be positive"}
	}
	if bits := uint(width) * 7; v >= (uint64(1) << bits) {
		return nil, ErrOutOfRange{Field: "synchsafe integer", Reason: fmt.Sprintf("%d does not fit in %d bits", v, width*7)}
	}
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(v & 0x7f)
		v >>= 7
	}
	return out, nil
}

// decodeSynchsafe is the inverse of encodeSynchsafe. It fails if any input
// byte has its high bit set.
func decodeSynchsafe(b []byte) (uint64, error) {
	var v uint64
	for _, c := range b {
		if c&0x80 != 0 {
			return 0, ErrMalformed{Reason: fmt.Sprintf("synchsafe byte 0x%02x has its high bit set", c)}
		}
		v = (v << 7) | uint64(c&0x7f)
	}
	return v, nil
}

// --- unsynchronisation ---

// unsyncEncode inserts 0x00 after any 0xFF that is followed by either
// 0x00, a byte ≥ 0xE0, or the buffer end, so that the resulting stream
// never contains a byte sequence that could be mistaken for an MPEG sync
// word.
func unsyncEncode(in []byte) []byte {
	out := make([]byte, 0, len(in)+len(in)/8+1)
	for i, b := range in {
		out = append(out, b)
		if b != 0xFF {
			continue
		}
		if i == len(in)-1 {
			out = append(out, 0x00)
			continue
		}
		next := in[i+1]
		if next == 0x00 || next >= 0xE0 {
			out = append(out, 0x00)
		}
	}
	return out
}

// unsyncDecode is the inverse transform: after any 0xFF it skips the
// following byte when that byte is 0x00 (the one unsyncEncode inserted),
// and keeps it otherwise.
func unsyncDecode(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		b := in[i]
		out = append(out, b)
		if b == 0xFF && i+1 < len(in) && in[i+1] == 0x00 {
			i++
		}
	}
	return out
}

// --- flag bytes ---

// encodeFlagByte packs bits[0..] into the high-order bits of a single
// byte, MSB first, zero-padding the remainder.
func encodeFlagByte(bits ...bool) byte {
	var b byte
	for i, set := range bits {
		if set {
			b |= 1 << (7 - i)
		}
	}
	return b
}

func flagBit(b byte, pos int) bool {
	return b&(1<<(7-pos)) != 0
}

// encodeFlagWord packs bits[0..] into the high-order bits of a big-endian
// 16-bit integer, MSB first.
func encodeFlagWord(bits ...bool) [2]byte {
	var w uint16
	for i, set := range bits {
		if set {
			w |= 1 << (15 - i)
		}
	}
	return [2]byte{byte(w >> 8), byte(w)}
}

func flagBitWord(w uint16, pos int) bool {
	return w&(1<<(15-pos)) != 0
}

// --- identifier remap ---

// v22ToCanonical pairs every v2.2 3-character identifier this codec knows
// about with its v2.3/v2.4 4-character form. Compiled from the ID3v2.2
// informational frame list; identifiers added only in v2.3+ (radio station
// frames, sort-order frames, and so on) have no v2.2 counterpart and are
// absent here by construction.
var v22ToCanonical = map[string]FrameType{
	"BUF": "RBUF", "CNT": "PCNT", "COM": "COMM", "CRA": "AENC",
	"ETC": "ETCO", "EQU": "EQUA", "GEO": "GEOB", "IPL": "IPLS",
	"LNK": "LINK", "MCI": "MCDI", "MLL": "MLLT", "PIC": "APIC",
	"POP": "POPM", "REV": "RVRB", "RVA": "RVAD", "SLT": "SYLT",
	"STC": "SYTC", "TAL": "TALB", "TBP": "TBPM", "TCM": "TCOM",
	"TCO": "TCON", "TCR": "TCOP", "TDA": "TDAT", "TDY": "TDLY",
	"TEN": "TENC", "TFT": "TFLT", "TIM": "TIME", "TKE": "TKEY",
	"TLA": "TLAN", "TLE": "TLEN", "TMT": "TMED", "TOA": "TOPE",
	"TOF": "TOFN", "TOL": "TOLY", "TOR": "TORY", "TOT": "TOAL",
	"TP1": "TPE1", "TP2": "TPE2", "TP3": "TPE3", "TP4": "TPE4",
	"TPA": "TPOS", "TPB": "TPUB", "TRC": "TSRC", "TRD": "TRDA",
	"TRK": "TRCK", "TSI": "TSIZ", "TSS": "TSSE", "TT1": "TIT1",
	"TT2": "TIT2", "TT3": "TIT3", "TXT": "TEXT", "TXX": "TXXX",
	"TYE": "TYER", "UFI": "UFID", "ULT": "USLT", "WAF": "WOAF",
	"WAR": "WOAR", "WAS": "WOAS", "WCM": "WCOM", "WCP": "WCOP",
	"WPB": "WPUB", "WXX": "WXXX",
}

var canonicalToV22 = func() map[FrameType]string {
	m := make(map[FrameType]string, len(v22ToCanonical))
	for k, v := range v22ToCanonical {
		m[v] = k
	}
	return m
}()

// remapToCanonical converts a v2.2 3-character identifier into its
// canonical (v2.3/v2.4) 4-character form.
func remapToCanonical(id string) (FrameType, error) {
	if ft, ok := v22ToCanonical[id]; ok {
		return ft, nil
	}
	return "", ErrNoRemap{ID: FrameType(id)}
}

// remapToV22 converts a canonical 4-character identifier into its v2.2
// 3-character form.
func remapToV22(id FrameType) (string, error) {
	if s, ok := canonicalToV22[id]; ok {
		return s, nil
	}
	return "", ErrNoRemap{ID: id}
}

// remapForVersion converts id (always stored canonically) into the wire
// form for v, removing the handful of identifiers v2.4 dropped.
func remapForVersion(id FrameType, v Version) (string, error) {
	if v == Version2 {
		return remapToV22(id)
	}
	if v == Version4 && removedInV4[id] {
		return "", fmt.Errorf("%s was removed in ID3v2.4", id)
	}
	return string(id), nil
}
