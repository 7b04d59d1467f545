package id3v2

import "fmt"

// FrameHeader is the version-independent identity of a frame: its
// canonical identifier and its per-frame flags. Every concrete frame type
// embeds a FrameHeader.
type FrameHeader struct {
	ID    FrameType
	Flags FrameFlags
}

// Frame is implemented by every concrete frame type. A frame whose
// Compression or Encryption flag is set decodes as a *RawFrame instead of
// its typed variant, since payload transformation is out of scope and the
// body bytes cannot be meaningfully interpreted.
type Frame interface {
	Header() FrameHeader

	// encodeBody renders this frame's body for version v, honoring opts
	// for any frame whose wire form depends on a default (text encoding).
	encodeBody(opts EncodeOptions, v Version) ([]byte, error)

	// supportsContentVersion reports why this frame's content (distinct
	// from its flags, checked separately) cannot be represented at v, or
	// nil if it can.
	supportsContentVersion(v Version) error
}

// RawFrame is the fallback representation for a frame whose Compression or
// Encryption flag is set. Body is round-tripped verbatim.
type RawFrame struct {
	FrameHeader
	Body []byte
}

func (f *RawFrame) Header() FrameHeader { return f.FrameHeader }

func (f *RawFrame) encodeBody(opts EncodeOptions, v Version) ([]byte, error) {
	return f.Body, nil
}

func (f *RawFrame) supportsContentVersion(v Version) error {
	return nil
}

// frameFactory builds a typed Frame out of a decoded body, given the frame
// has none of the flags that force a RawFrame.
type frameFactory func(FrameHeader, []byte, Version) (Frame, error)

// frameFactories dispatches by canonical identifier to the frame-specific
// body codec. Identifiers not in this table are unrecognised and fatal on
// decode, unless decodeFrameBody's "T***"/"W***" fallback covers them.
var frameFactories = map[FrameType]frameFactory{}

func registerFrameFactory(ids []FrameType, f frameFactory) {
	for _, id := range ids {
		frameFactories[id] = f
	}
}

// decodeFrameBody dispatches a frame body to its typed decoder by
// canonical identifier. Frames with Compression or Encryption set are
// always returned as *RawFrame, since their body is not the structure the
// identifier otherwise implies.
//
// An identifier outside frameFactories still decodes if it falls in one of
// the two open-ended classes every identifier space reserves: any "T***"
// identifier other than TXXX is a text information frame, and any "W***"
// identifier other than WXXX is a URL link frame, whether or not this
// codec has a name for it in FrameNames. This covers well-known but
// non-standard extensions (e.g. iTunes' TCMP) as well as any standard
// identifier this codec hasn't been taught by name.
func decodeFrameBody(id FrameType, flags FrameFlags, body []byte, v Version) (Frame, error) {
	header := FrameHeader{ID: id, Flags: flags}
	if flags.Compression || flags.Encryption {
		raw := make([]byte, len(body))
		copy(raw, body)
		return &RawFrame{FrameHeader: header, Body: raw}, nil
	}

	if factory, ok := frameFactories[id]; ok {
		return factory(header, body, v)
	}

	switch {
	case len(id) == 4 && id[0] == 'T' && id != "TXXX":
		return decodeTextFrame(header, body, v)
	case len(id) == 4 && id[0] == 'W' && id != "WXXX":
		return decodeURLFrame(header, body, v)
	}

	return nil, ErrMalformed{Reason: fmt.Sprintf("unrecognised frame identifier %q", id)}
}
